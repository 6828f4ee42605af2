package pdf

import (
	"bytes"
	"testing"
)

func TestRenderProducesPDFBytes(t *testing.T) {
	w := NewWriter()
	out, err := w.Render("Monthly summary", "10 total\n4 resolved\n3 open")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", out[:min(len(out), 8)])
	}
}

func TestRenderEmptyBody(t *testing.T) {
	w := NewWriter()
	out, err := w.Render("Empty", "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) == 0 {
		t.Error("empty artifact")
	}
}
