package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/makehd/internal/provision"
)

// YAMLFormatter formats results as YAML.
type YAMLFormatter struct{}

// FormatReport formats a run report as YAML.
func (f *YAMLFormatter) FormatReport(r *provision.Report) (string, error) {
	return marshalYAML("report", r)
}

// FormatPlan formats a dry run as YAML.
func (f *YAMLFormatter) FormatPlan(p *provision.Plan) (string, error) {
	return marshalYAML("plan", p)
}

// FormatTeardown formats release steps as a YAML sequence.
func (f *YAMLFormatter) FormatTeardown(steps []provision.TeardownStep) (string, error) {
	if len(steps) == 0 {
		return "[]\n", nil
	}
	return marshalYAML("teardown steps", steps)
}

func marshalYAML(what string, v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to YAML: %w", what, err)
	}
	return string(data), nil
}
