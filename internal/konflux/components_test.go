package konflux_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/konflux-ci/compliance-scans/internal/konflux"
)

const (
	testWorkspaceNamespaceConstant = "team-tenant"
	testApplicationNameConstant    = "payments"
	testComponentNameConstant      = "payments-api"
	testComponentGitURLConstant    = "https://github.com/org/payments-api.git"
	testLastBuiltCommitConstant    = "0a1b2c3d4e5f60718293a4b5c6d7e8f901234567"
)

func newFakeDynamicClient(testInstance *testing.T, objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	testInstance.Helper()
	scheme := runtime.NewScheme()
	listKinds := map[schema.GroupVersionResource]string{
		konflux.ComponentResource: "ComponentList",
		konflux.SnapshotResource:  "SnapshotList",
	}
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, listKinds, objects...)
}

func newComponentObject(name string, namespace string, spec map[string]any, status map[string]any) *unstructured.Unstructured {
	objectContent := map[string]any{
		"apiVersion": "appstudio.redhat.com/v1alpha1",
		"kind":       "Component",
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
		},
	}
	if spec != nil {
		objectContent["spec"] = spec
	}
	if status != nil {
		objectContent["status"] = status
	}
	return &unstructured.Unstructured{Object: objectContent}
}

func TestNewReaderRequiresClient(testInstance *testing.T) {
	reader, creationError := konflux.NewReader(nil)
	require.Nil(testInstance, reader)
	require.ErrorIs(testInstance, creationError, konflux.ErrClientRequired)
}

func TestListComponentsExtractsRecordFields(testInstance *testing.T) {
	componentObject := newComponentObject(testComponentNameConstant, testWorkspaceNamespaceConstant,
		map[string]any{
			"application":    testApplicationNameConstant,
			"componentName":  testComponentNameConstant,
			"containerImage": "quay.io/org/payments-api:latest",
			"source": map[string]any{
				"git": map[string]any{
					"url":      testComponentGitURLConstant,
					"revision": "main",
				},
			},
		},
		map[string]any{
			"lastBuiltCommit": testLastBuiltCommitConstant,
		},
	)

	reader, readerError := konflux.NewReader(newFakeDynamicClient(testInstance, componentObject))
	require.NoError(testInstance, readerError)

	componentRecords, listError := reader.ListComponents(context.Background(), testWorkspaceNamespaceConstant)
	require.NoError(testInstance, listError)
	require.Len(testInstance, componentRecords, 1)

	componentRecord := componentRecords[0]
	require.Equal(testInstance, testComponentNameConstant, componentRecord.Name)
	require.Equal(testInstance, testWorkspaceNamespaceConstant, componentRecord.Namespace)
	require.Equal(testInstance, testApplicationNameConstant, componentRecord.Application)
	require.Equal(testInstance, testComponentGitURLConstant, componentRecord.GitURL)
	require.Equal(testInstance, "main", componentRecord.GitRevision)
	require.Equal(testInstance, "quay.io/org/payments-api:latest", componentRecord.ContainerImage)
	require.Equal(testInstance, testLastBuiltCommitConstant, componentRecord.LastBuiltCommit)
}

func TestListComponentsToleratesSparseObjects(testInstance *testing.T) {
	sparseComponent := newComponentObject("bare-component", testWorkspaceNamespaceConstant, nil, nil)

	reader, readerError := konflux.NewReader(newFakeDynamicClient(testInstance, sparseComponent))
	require.NoError(testInstance, readerError)

	componentRecords, listError := reader.ListComponents(context.Background(), testWorkspaceNamespaceConstant)
	require.NoError(testInstance, listError)
	require.Len(testInstance, componentRecords, 1)
	require.Equal(testInstance, "bare-component", componentRecords[0].Name)
	require.Empty(testInstance, componentRecords[0].GitURL)
	require.Empty(testInstance, componentRecords[0].LastBuiltCommit)
}
