package scan

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	hermeticParameterNameConstant       = "hermetic"
	prefetchParameterNameConstant       = "prefetch-input"
	hermeticEnabledValueConstant        = "true"
	pipelineDecodeErrorTemplateConstant = "unable to decode pipeline definition: %w"
)

type pipelineRunDocument struct {
	Spec struct {
		Params []pipelineRunParameter `yaml:"params"`
	} `yaml:"spec"`
}

type pipelineRunParameter struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// PipelineDefinition exposes the build parameters of a Tekton PipelineRun.
type PipelineDefinition struct {
	parameters map[string]string
}

// ParsePipelineDefinition decodes a PipelineRun document and collects its scalar parameters.
func ParsePipelineDefinition(documentContent string) (PipelineDefinition, error) {
	var document pipelineRunDocument
	if decodeError := yaml.Unmarshal([]byte(documentContent), &document); decodeError != nil {
		return PipelineDefinition{}, fmt.Errorf(pipelineDecodeErrorTemplateConstant, decodeError)
	}

	parameters := map[string]string{}
	for _, parameter := range document.Spec.Params {
		scalarValue, isScalar := parameter.Value.(string)
		if !isScalar {
			continue
		}
		parameters[parameter.Name] = scalarValue
	}
	return PipelineDefinition{parameters: parameters}, nil
}

// Parameter returns the named scalar parameter value.
func (definition PipelineDefinition) Parameter(parameterName string) (string, bool) {
	parameterValue, found := definition.parameters[parameterName]
	return parameterValue, found
}

// HermeticEnabled reports whether the pipeline requests a hermetic build.
func (definition PipelineDefinition) HermeticEnabled() bool {
	parameterValue, found := definition.Parameter(hermeticParameterNameConstant)
	return found && parameterValue == hermeticEnabledValueConstant
}

// PrefetchInput returns the dependency prefetch configuration, empty when unset.
func (definition PipelineDefinition) PrefetchInput() string {
	parameterValue, _ := definition.Parameter(prefetchParameterNameConstant)
	return parameterValue
}
