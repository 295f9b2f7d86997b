package konflux

import (
	"fmt"
	"strings"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	kubeconfigLoadErrorTemplateConstant    = "unable to load kubeconfig: %w"
	dynamicClientErrorTemplateConstant     = "unable to construct dynamic client: %w"
)

// NewDynamicClient builds a Kubernetes dynamic client from the supplied
// kubeconfig path. An empty path follows the default loading rules, which
// honor KUBECONFIG and the in-cluster service account.
func NewDynamicClient(kubeconfigPath string) (dynamic.Interface, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	trimmedPath := strings.TrimSpace(kubeconfigPath)
	if len(trimmedPath) > 0 {
		loadingRules.ExplicitPath = trimmedPath
	}

	clientConfiguration := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{})
	restConfiguration, configurationError := clientConfiguration.ClientConfig()
	if configurationError != nil {
		return nil, fmt.Errorf(kubeconfigLoadErrorTemplateConstant, configurationError)
	}

	dynamicClient, clientError := dynamic.NewForConfig(restConfiguration)
	if clientError != nil {
		return nil, fmt.Errorf(dynamicClientErrorTemplateConstant, clientError)
	}

	return dynamicClient, nil
}
