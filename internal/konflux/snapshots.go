package konflux

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	snapshotsResourceConstant              = "snapshots"
	applicationLabelNameConstant           = "appstudio.openshift.io/application"
	testStatusAnnotationNameConstant       = "test.appstudio.openshift.io/status"
	applicationSelectorTemplateConstant    = "%s=%s"
	snapshotListErrorTemplateConstant      = "unable to list snapshots in %s: %w"
	testStatusDecodeErrorTemplateConstant  = "unable to decode test status annotation on snapshot %s: %w"
	testPassedStatusValueConstant          = "TestPassed"
)

// SnapshotResource addresses the Konflux Snapshot custom resource.
var SnapshotResource = schema.GroupVersionResource{
	Group:    appStudioGroupConstant,
	Version:  appStudioVersionConstant,
	Resource: snapshotsResourceConstant,
}

// SnapshotTestStatus is one integration test scenario result recorded on a snapshot.
type SnapshotTestStatus struct {
	ScenarioName   string `json:"scenario"`
	Status         string `json:"status"`
	Details        string `json:"details"`
	TestPipelineRun string `json:"testPipelineRunName"`
}

// Passed reports whether the scenario completed successfully.
func (testStatus SnapshotTestStatus) Passed() bool {
	return testStatus.Status == testPassedStatusValueConstant
}

// SnapshotRecord captures the snapshot fields relevant to compliance checks.
type SnapshotRecord struct {
	Name              string
	Application       string
	CreationTimestamp time.Time
	TestStatuses      []SnapshotTestStatus
}

// LatestSnapshot returns the most recently created snapshot for the
// application, or nil when the application has none.
func (reader *Reader) LatestSnapshot(executionContext context.Context, namespace string, application string) (*SnapshotRecord, error) {
	listOptions := metav1.ListOptions{
		LabelSelector: fmt.Sprintf(applicationSelectorTemplateConstant, applicationLabelNameConstant, application),
	}

	snapshotList, listError := reader.dynamicClient.Resource(SnapshotResource).Namespace(namespace).List(executionContext, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(snapshotListErrorTemplateConstant, namespace, listError)
	}
	if len(snapshotList.Items) == 0 {
		return nil, nil
	}

	latestIndex := 0
	for itemIndex := 1; itemIndex < len(snapshotList.Items); itemIndex++ {
		if snapshotList.Items[itemIndex].GetCreationTimestamp().After(snapshotList.Items[latestIndex].GetCreationTimestamp().Time) {
			latestIndex = itemIndex
		}
	}
	latestItem := snapshotList.Items[latestIndex]

	snapshotRecord := &SnapshotRecord{
		Name:              latestItem.GetName(),
		Application:       application,
		CreationTimestamp: latestItem.GetCreationTimestamp().Time,
	}

	statusAnnotation, annotationPresent := latestItem.GetAnnotations()[testStatusAnnotationNameConstant]
	if annotationPresent && len(statusAnnotation) > 0 {
		if decodeError := json.Unmarshal([]byte(statusAnnotation), &snapshotRecord.TestStatuses); decodeError != nil {
			return nil, fmt.Errorf(testStatusDecodeErrorTemplateConstant, snapshotRecord.Name, decodeError)
		}
	}

	return snapshotRecord, nil
}
