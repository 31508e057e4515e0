package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/tos-network/abiderive/derive/desc"
	"github.com/tos-network/abiderive/derive/diag"
)

func tokenDescription() *desc.Description {
	return &desc.Description{
		Name: "Token",
		Methods: []desc.Method{
			{Name: "constructor", Constructor: true, Args: []desc.Arg{{Name: "supply", Type: "u256"}}},
			{Name: "transfer", Args: []desc.Arg{{Name: "to", Type: "address"}, {Name: "amount", Type: "u256"}}, Returns: []string{"bool"}},
			{Name: "Transfer", Event: true, Args: []desc.Arg{{Name: "from", Type: "address"}, {Name: "value", Type: "u256"}}},
			{Name: "deposit", Payable: true},
		},
	}
}

func TestBuildPreservesDeclarationOrder(t *testing.T) {
	intf, diags := Build(tokenDescription())
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if intf.Name != "Token" {
		t.Fatalf("unexpected name: %q", intf.Name)
	}
	if intf.Constructor == nil || len(intf.Constructor.Arguments) != 1 || intf.Constructor.Arguments[0].Type.Source != "u256" {
		t.Fatalf("unexpected constructor: %#v", intf.Constructor)
	}
	names := make([]string, 0, len(intf.Items))
	for _, item := range intf.Items {
		names = append(names, item.ItemName())
	}
	if got, want := strings.Join(names, ","), "transfer,Transfer,deposit"; got != want {
		t.Fatalf("item order: got=%s want=%s", got, want)
	}
	sigs := intf.Signatures()
	if len(sigs) != 2 || sigs[0].Name != "transfer" || sigs[1].Name != "deposit" {
		t.Fatalf("unexpected signatures: %#v", sigs)
	}
	if sigs[0].Payable || !sigs[1].Payable {
		t.Fatalf("unexpected payable flags: transfer=%v deposit=%v", sigs[0].Payable, sigs[1].Payable)
	}
	if evs := intf.Events(); len(evs) != 1 || evs[0].Name != "Transfer" {
		t.Fatalf("unexpected events: %#v", evs)
	}
	if _, ok := intf.Lookup("deposit"); !ok {
		t.Fatalf("lookup deposit failed")
	}
	if _, ok := intf.Lookup("missing"); ok {
		t.Fatalf("lookup of unknown item succeeded")
	}
}

func TestBuildRejectsSecondConstructor(t *testing.T) {
	d := tokenDescription()
	d.Methods = append(d.Methods, desc.Method{Name: "init", Constructor: true})
	intf, diags := Build(d)
	if intf != nil {
		t.Fatalf("expected nil interface on error")
	}
	if len(diags) != 1 || diags[0].Code != diag.CodeDescDuplicateCtor {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !errors.Is(diags, diag.ErrDescription) {
		t.Fatalf("expected description error class")
	}
}

func TestBuildRejectsUnsupportedShapes(t *testing.T) {
	d := &desc.Description{
		Name: "Bad",
		Methods: []desc.Method{
			{Name: "a", Event: true, Payable: true},
			{Name: "b", Constructor: true, Returns: []string{"u8"}},
			{Name: "c", Event: true, Constructor: true},
		},
	}
	_, diags := Build(d)
	if len(diags) != 3 {
		t.Fatalf("unexpected diagnostic count: %d (%v)", len(diags), diags)
	}
	for _, dg := range diags {
		if dg.Code != diag.CodeDescUnsupportedShape {
			t.Fatalf("unexpected code %s: %v", dg.Code, dg)
		}
	}
}

func TestBuildReportsAllDescriptionProblems(t *testing.T) {
	d := &desc.Description{
		Methods: []desc.Method{
			{Name: ""},
			{Name: "dup"},
			{Name: "dup"},
			{Name: "typed", Args: []desc.Arg{{Name: "x"}}, Returns: []string{" "}},
		},
	}
	_, diags := Build(d)
	got := strings.Join(diags.Codes(), ",")
	want := strings.Join([]string{
		diag.CodeDescMissingName,
		diag.CodeDescEmptyItemName,
		diag.CodeDescDuplicateItem,
		diag.CodeDescEmptyType,
		diag.CodeDescEmptyType,
	}, ",")
	if got != want {
		t.Fatalf("diagnostic codes: got=%s want=%s", got, want)
	}
	if _, diags := Build(nil); !diags.HasErrors() {
		t.Fatalf("nil description must fail")
	}
}

func TestBuildFallbackArgumentNames(t *testing.T) {
	d := &desc.Description{
		Name:    "Demo",
		Methods: []desc.Method{{Name: "set", Args: []desc.Arg{{Type: "u8"}, {Name: "b", Type: "u8"}}}},
	}
	intf, diags := Build(d)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	args := intf.Signatures()[0].Arguments
	if args[0].Name != "arg1" || args[1].Name != "b" {
		t.Fatalf("unexpected argument names: %q %q", args[0].Name, args[1].Name)
	}
}

func TestInterfaceString(t *testing.T) {
	intf, diags := Build(tokenDescription())
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	intf.Items[0].(*Signature).Canonical = "transfer(address,uint256)"
	intf.Items[0].(*Signature).Selector = 0xa9059cbb
	out := intf.String()
	for _, want := range []string{
		"interface Token {",
		"  constructor(supply: u256);",
		"  fn transfer(to: address, amount: u256) -> (bool); -- 0xa9059cbb",
		"  event Transfer(from: address, value: u256);",
		"  fn deposit() payable;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestBuildRejectsNonIdentifierNames(t *testing.T) {
	d := &desc.Description{
		Name: "../../escape",
		Methods: []desc.Method{
			{Name: "set value", Args: []desc.Arg{{Name: "a-b", Type: "u8"}}},
			{Name: "9lives"},
			{Name: "ok_1", Args: []desc.Arg{{Name: "_x", Type: "u8"}}},
		},
	}
	_, diags := Build(d)
	got := strings.Join(diags.Codes(), ",")
	want := strings.Join([]string{
		diag.CodeDescInvalidName,
		diag.CodeDescInvalidName,
		diag.CodeDescInvalidName,
		diag.CodeDescInvalidName,
	}, ",")
	if got != want {
		t.Fatalf("diagnostic codes: got=%s want=%s (%v)", got, want, diags)
	}
	if !errors.Is(diags, diag.ErrDescription) {
		t.Fatalf("invalid names must classify as description errors")
	}
}

func TestIsIdentifier(t *testing.T) {
	for name, want := range map[string]bool{
		"Token":      true,
		"balance_of": true,
		"_private":   true,
		"u256x2":     true,
		"":           false,
		"2fast":      false,
		"../escape":  false,
		"a/b":        false,
		"with space": false,
		"caf\u00e9":  false,
	} {
		if got := IsIdentifier(name); got != want {
			t.Fatalf("IsIdentifier(%q): got=%v want=%v", name, got, want)
		}
	}
}
