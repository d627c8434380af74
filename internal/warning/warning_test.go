package warning

import "testing"

func TestStringWithRoutineName(t *testing.T) {
	w := New(KindMalformedControl, "compute", 7, "missing %s", "body")
	got := w.String()
	want := "compute: missing body (node 7)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStringWithoutRoutineName(t *testing.T) {
	w := New(KindUnresolvedGoto, "", 3, "no such label")
	if got := w.String(); got != "no such label" {
		t.Fatalf("expected the bare message when RoutineName is empty, got %q", got)
	}
}

func TestNewFormatsMessage(t *testing.T) {
	w := New(KindArityMismatch, "f", 1, "call passes %d, expected %d", 2, 1)
	if w.Message != "call passes 2, expected 1" {
		t.Fatalf("unexpected formatted message: %q", w.Message)
	}
	if w.Kind != KindArityMismatch {
		t.Fatalf("expected KindArityMismatch, got %v", w.Kind)
	}
}
