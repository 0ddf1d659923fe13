package formatting

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/services"
)

// StructuredFormatter emits JSON or YAML documents.
type StructuredFormatter struct {
	options Options
}

func (f *StructuredFormatter) RunResult(w io.Writer, r orchestrator.RunResult) error {
	return f.encode(w, newRunView(r))
}

func (f *StructuredFormatter) Plan(w io.Writer, p orchestrator.Plan) error {
	return f.encode(w, newPlanView(p))
}

func (f *StructuredFormatter) Reports(w io.Writer, reports []services.Report) error {
	return f.encode(w, map[string]interface{}{"services": newReportViews(reports)})
}

func (f *StructuredFormatter) Inventory(w io.Writer, lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	return f.encode(w, map[string]interface{}{"products": lines})
}

func (f *StructuredFormatter) Files(w io.Writer, files []string) error {
	if files == nil {
		files = []string{}
	}
	return f.encode(w, map[string]interface{}{"files": files, "count": len(files)})
}

func (f *StructuredFormatter) encode(w io.Writer, v interface{}) error {
	if f.options.Format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
