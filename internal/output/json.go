package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/bootup/internal/report"
	"github.com/bgricker/bootup/internal/step"
)

// JSONRenderer emits structured run data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Document captures the JSON output schema. List mode fills Steps; run
// mode fills Run.
type Document struct {
	Steps   []step.Step       `json:"steps,omitempty"`
	Run     *report.RunReport `json:"run,omitempty"`
	Summary report.Summary    `json:"summary"`
}

// Render encodes the document as indented JSON.
func (j *JSONRenderer) Render(doc Document) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
