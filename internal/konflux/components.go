package konflux

import (
	"context"
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

const (
	appStudioGroupConstant       = "appstudio.redhat.com"
	appStudioVersionConstant     = "v1alpha1"
	componentsResourceConstant   = "components"
	clientRequiredMessageConstant = "dynamic client required"
	componentListErrorTemplateConstant = "unable to list components in %s: %w"
)

// ComponentResource addresses the Konflux Component custom resource.
var ComponentResource = schema.GroupVersionResource{
	Group:    appStudioGroupConstant,
	Version:  appStudioVersionConstant,
	Resource: componentsResourceConstant,
}

// ErrClientRequired indicates reader construction without a dynamic client.
var ErrClientRequired = errors.New(clientRequiredMessageConstant)

// ComponentRecord captures the fields of a Component the compliance scan inspects.
// Optional fields are empty strings rather than errors so a partially built
// component still produces findings for the checks that can run.
type ComponentRecord struct {
	Name            string
	Namespace       string
	Application     string
	GitURL          string
	GitRevision     string
	ContainerImage  string
	LastBuiltCommit string
	Annotations     map[string]string
	Labels          map[string]string
}

// Reader lists Konflux custom resources.
type Reader struct {
	dynamicClient dynamic.Interface
}

// NewReader constructs a Reader over the supplied dynamic client.
func NewReader(dynamicClient dynamic.Interface) (*Reader, error) {
	if dynamicClient == nil {
		return nil, ErrClientRequired
	}
	return &Reader{dynamicClient: dynamicClient}, nil
}

// ListComponents returns every Component in the namespace as a ComponentRecord.
func (reader *Reader) ListComponents(executionContext context.Context, namespace string) ([]ComponentRecord, error) {
	componentList, listError := reader.dynamicClient.Resource(ComponentResource).Namespace(namespace).List(executionContext, metav1.ListOptions{})
	if listError != nil {
		return nil, fmt.Errorf(componentListErrorTemplateConstant, namespace, listError)
	}

	componentRecords := make([]ComponentRecord, 0, len(componentList.Items))
	for _, componentItem := range componentList.Items {
		componentRecords = append(componentRecords, buildComponentRecord(componentItem))
	}
	return componentRecords, nil
}

func buildComponentRecord(componentItem unstructured.Unstructured) ComponentRecord {
	record := ComponentRecord{
		Name:        componentItem.GetName(),
		Namespace:   componentItem.GetNamespace(),
		Annotations: componentItem.GetAnnotations(),
		Labels:      componentItem.GetLabels(),
	}

	record.Application = nestedStringOrEmpty(componentItem, "spec", "application")
	record.GitURL = nestedStringOrEmpty(componentItem, "spec", "source", "git", "url")
	record.GitRevision = nestedStringOrEmpty(componentItem, "spec", "source", "git", "revision")
	record.ContainerImage = nestedStringOrEmpty(componentItem, "spec", "containerImage")
	record.LastBuiltCommit = nestedStringOrEmpty(componentItem, "status", "lastBuiltCommit")

	if componentName := nestedStringOrEmpty(componentItem, "spec", "componentName"); len(componentName) > 0 {
		record.Name = componentName
	}

	return record
}

func nestedStringOrEmpty(item unstructured.Unstructured, fields ...string) string {
	value, found, lookupError := unstructured.NestedString(item.Object, fields...)
	if lookupError != nil || !found {
		return ""
	}
	return value
}
