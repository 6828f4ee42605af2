package pdf

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Writer converts rendered report text into a downloadable PDF artifact.
type Writer struct{}

// NewWriter constructs a writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Render lays out the report body under a title and returns the PDF bytes.
func (w *Writer) Render(title, body string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(0, 10, title, "", "L", false)
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 11)
	for _, line := range strings.Split(body, "\n") {
		doc.MultiCell(0, 6, line, "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
