package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/makehd/internal/provision"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// FormatReport formats a run report as JSON.
func (f *JSONFormatter) FormatReport(r *provision.Report) (string, error) {
	return marshalJSON("report", r)
}

// FormatPlan formats a dry run as JSON.
func (f *JSONFormatter) FormatPlan(p *provision.Plan) (string, error) {
	return marshalJSON("plan", p)
}

// FormatTeardown formats release steps as a JSON array.
func (f *JSONFormatter) FormatTeardown(steps []provision.TeardownStep) (string, error) {
	if len(steps) == 0 {
		return "[]\n", nil
	}
	return marshalJSON("teardown steps", steps)
}

func marshalJSON(what string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}
	return string(data) + "\n", nil
}
