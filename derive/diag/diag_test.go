package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestDiagnosticErrorFormat(t *testing.T) {
	d := Errorf(CodeDescDuplicateCtor, "init", "constructor already declared by %q", "setup")
	if got, want := d.Error(), `init: [ABI1002] constructor already declared by "setup"`; got != want {
		t.Fatalf("diagnostic text: got=%q want=%q", got, want)
	}
	bare := Diagnostic{Code: CodeDescMissingName, Message: "interface name is required"}
	if got, want := bare.Error(), "[ABI1001] interface name is required"; got != want {
		t.Fatalf("bare diagnostic text: got=%q want=%q", got, want)
	}
}

func TestDiagnosticsErrorSummary(t *testing.T) {
	ds := Diagnostics{
		{Code: CodeDescEmptyItemName, Message: "item name is required"},
		{Code: CodeDescEmptyType, Message: "argument type is required", Item: "ping"},
	}
	if !ds.HasErrors() {
		t.Fatalf("expected errors")
	}
	if !strings.Contains(ds.Error(), "(and 1 more error(s))") {
		t.Fatalf("unexpected summary: %q", ds.Error())
	}
	if got := strings.Count(ds.Detail(), "\n"); got != 1 {
		t.Fatalf("unexpected detail line count: got=%d want=1", got+1)
	}
	if codes := ds.Codes(); len(codes) != 2 || codes[1] != CodeDescEmptyType {
		t.Fatalf("unexpected codes: %v", codes)
	}
	var empty Diagnostics
	if empty.HasErrors() || empty.Error() != "" {
		t.Fatalf("empty diagnostics should report nothing")
	}
}

func TestDiagnosticsClassification(t *testing.T) {
	var err error = Diagnostics{
		{Code: CodeSigSelectorCollision, Message: "selector 0x42966c68 shared"},
	}
	if !errors.Is(err, ErrSelectorCollision) {
		t.Fatalf("expected selector collision class")
	}
	if errors.Is(err, ErrDescription) {
		t.Fatalf("collision must not be classified as description error")
	}

	err = Diagnostics{{Code: CodeDescUnsupportedShape, Message: "event cannot be payable"}}
	if !errors.Is(err, ErrDescription) {
		t.Fatalf("expected description error class")
	}

	var d Diagnostic
	if !errors.As(err, &d) || d.Code != CodeDescUnsupportedShape {
		t.Fatalf("errors.As did not reach the diagnostic: %#v", d)
	}
}
