package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"
)

// StudyNote is the markdown of a single question and its answer.
func StudyNote(question, answer string) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(answer))
	sb.WriteString("\n")
	return sb.String()
}

// ExportPDF writes the study note to pdfPath and returns its absolute path.
func ExportPDF(pdfPath, question, answer string) (string, error) {
	if !strings.HasSuffix(pdfPath, ".pdf") {
		return "", fmt.Errorf("output file must have .pdf extension: %s", pdfPath)
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("nothing to export for %q", question)
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process([]byte(StudyNote(question, answer))); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}
