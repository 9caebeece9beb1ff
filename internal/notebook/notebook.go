// Package notebook converts Jupyter notebook documents into plain text
// suitable for inclusion in a digest. Code cells keep their source with a
// cell marker; markdown and raw cells are emitted as comments so the result
// reads like an exported script.
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Extension identifies notebook files by suffix.
const Extension = ".ipynb"

const (
	cellMarker        = "# %%"
	commentPrefix     = "# "
	cellTypeCode      = "code"
	cellTypeMarkdown  = "markdown"
	cellTypeRaw       = "raw"
	outputTypeStream  = "stream"
	outputTypeError   = "error"
	outputTypeExecute = "execute_result"
)

type notebookDocument struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string           `json:"cell_type"`
	Source   flexibleText     `json:"source"`
	Outputs  []notebookOutput `json:"outputs"`
}

type notebookOutput struct {
	OutputType string                  `json:"output_type"`
	Text       flexibleText            `json:"text"`
	Data       map[string]flexibleText `json:"data"`
	EValue     string                  `json:"evalue"`
}

// flexibleText accepts the two source encodings the notebook format allows:
// a single string or a list of line strings.
type flexibleText string

func (text *flexibleText) UnmarshalJSON(data []byte) error {
	var singleValue string
	if unmarshalError := json.Unmarshal(data, &singleValue); unmarshalError == nil {
		*text = flexibleText(singleValue)
		return nil
	}
	var lineValues []string
	if unmarshalError := json.Unmarshal(data, &lineValues); unmarshalError != nil {
		return unmarshalError
	}
	*text = flexibleText(strings.Join(lineValues, ""))
	return nil
}

// Convert reads the notebook at path and renders it as text. Structural
// problems with the document are returned as errors; the caller is expected
// to absorb them into placeholder content.
func Convert(path string) (string, error) {
	rawDocument, readError := os.ReadFile(path)
	if readError != nil {
		return "", fmt.Errorf("reading notebook %s: %w", path, readError)
	}

	var document notebookDocument
	if unmarshalError := json.Unmarshal(rawDocument, &document); unmarshalError != nil {
		return "", fmt.Errorf("parsing notebook %s: %w", path, unmarshalError)
	}

	var rendered strings.Builder
	for _, cell := range document.Cells {
		switch cell.CellType {
		case cellTypeCode:
			rendered.WriteString(cellMarker + "\n")
			rendered.WriteString(string(cell.Source))
			rendered.WriteString("\n")
			renderOutputs(&rendered, cell.Outputs)
		case cellTypeMarkdown, cellTypeRaw:
			rendered.WriteString(cellMarker + " [" + cell.CellType + "]\n")
			for _, line := range strings.Split(strings.TrimRight(string(cell.Source), "\n"), "\n") {
				rendered.WriteString(commentPrefix + line + "\n")
			}
		default:
			// Unknown cell types are skipped rather than failing the whole notebook.
			continue
		}
		rendered.WriteString("\n")
	}
	return rendered.String(), nil
}

func renderOutputs(rendered *strings.Builder, outputs []notebookOutput) {
	for _, output := range outputs {
		switch output.OutputType {
		case outputTypeStream:
			writeCommented(rendered, string(output.Text))
		case outputTypeExecute:
			if plainText, hasPlainText := output.Data["text/plain"]; hasPlainText {
				writeCommented(rendered, string(plainText))
			}
		case outputTypeError:
			if output.EValue != "" {
				writeCommented(rendered, output.EValue)
			}
		}
	}
}

func writeCommented(rendered *strings.Builder, text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		rendered.WriteString(commentPrefix + line + "\n")
	}
}
