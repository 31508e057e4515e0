package model

import (
	"fmt"
	"strings"

	"github.com/tos-network/abiderive/derive/desc"
	"github.com/tos-network/abiderive/derive/diag"
)

// Build turns a raw description into an Interface. Every problem found in
// the description is reported; the returned model is nil when any is.
func Build(d *desc.Description) (*Interface, diag.Diagnostics) {
	var diags diag.Diagnostics
	if d == nil {
		return nil, append(diags, diag.Errorf(diag.CodeDescMissingName, "", "interface description is nil"))
	}

	name := strings.TrimSpace(d.Name)
	if name == "" {
		diags = append(diags, diag.Errorf(diag.CodeDescMissingName, "", "interface name is required"))
	} else if !IsIdentifier(name) {
		diags = append(diags, diag.Errorf(diag.CodeDescInvalidName, "", "interface name %q is not an identifier", name))
	}

	out := &Interface{
		Name:  name,
		Items: make([]Item, 0, len(d.Methods)),
	}
	seen := map[string]struct{}{}
	ctorName := ""

	for i, m := range d.Methods {
		itemName := strings.TrimSpace(m.Name)
		label := itemName
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			diags = append(diags, diag.Errorf(diag.CodeDescEmptyItemName, label, "declaration name is required"))
		} else if !IsIdentifier(itemName) {
			diags = append(diags, diag.Errorf(diag.CodeDescInvalidName, label, "declaration name is not an identifier"))
		}

		args, argDiags := buildArguments(label, m.Args)
		diags = append(diags, argDiags...)
		returns, retDiags := buildReturns(label, m.Returns)
		diags = append(diags, retDiags...)

		switch m.Shape() {
		case "constructor":
			if ctorName != "" {
				diags = append(diags, diag.Errorf(diag.CodeDescDuplicateCtor, label,
					"constructor already declared by %q", ctorName))
				continue
			}
			ctorName = label
			out.Constructor = &Signature{
				Name:      itemName,
				Arguments: args,
				Payable:   m.Payable,
			}
			continue
		case "event":
			if itemName != "" && !markSeen(seen, itemName) {
				diags = append(diags, diag.Errorf(diag.CodeDescDuplicateItem, label, "duplicate declaration name"))
				continue
			}
			out.Items = append(out.Items, &Event{
				Name:      itemName,
				Arguments: args,
			})
		case "method", "payable":
			if itemName != "" && !markSeen(seen, itemName) {
				diags = append(diags, diag.Errorf(diag.CodeDescDuplicateItem, label, "duplicate declaration name"))
				continue
			}
			out.Items = append(out.Items, &Signature{
				Name:        itemName,
				Arguments:   args,
				ReturnTypes: returns,
				Payable:     m.Payable,
			})
		default:
			diags = append(diags, diag.Errorf(diag.CodeDescUnsupportedShape, label,
				"unsupported declaration shape (%s)", describeFlags(m)))
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return out, nil
}

// IsIdentifier reports whether s is an ASCII identifier: a letter or
// underscore followed by letters, digits or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func markSeen(seen map[string]struct{}, name string) bool {
	if _, dup := seen[name]; dup {
		return false
	}
	seen[name] = struct{}{}
	return true
}

func buildArguments(item string, in []desc.Arg) ([]Argument, diag.Diagnostics) {
	var diags diag.Diagnostics
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Argument, 0, len(in))
	for i, a := range in {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = fmt.Sprintf("arg%d", i+1)
		} else if !IsIdentifier(name) {
			diags = append(diags, diag.Errorf(diag.CodeDescInvalidName, item, "argument name %q is not an identifier", name))
		}
		typ := strings.TrimSpace(a.Type)
		if typ == "" {
			diags = append(diags, diag.Errorf(diag.CodeDescEmptyType, item, "argument %q has no type", name))
		}
		out = append(out, Argument{Name: name, Type: Type{Source: typ}})
	}
	return out, diags
}

func buildReturns(item string, in []string) ([]Type, diag.Diagnostics) {
	var diags diag.Diagnostics
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Type, 0, len(in))
	for i, r := range in {
		typ := strings.TrimSpace(r)
		if typ == "" {
			diags = append(diags, diag.Errorf(diag.CodeDescEmptyType, item, "return value %d has no type", i+1))
		}
		out = append(out, Type{Source: typ})
	}
	return out, diags
}

func describeFlags(m desc.Method) string {
	var flags []string
	if m.Constructor {
		flags = append(flags, "constructor")
	}
	if m.Event {
		flags = append(flags, "event")
	}
	if m.Payable {
		flags = append(flags, "payable")
	}
	if len(m.Returns) > 0 {
		flags = append(flags, fmt.Sprintf("%d return value(s)", len(m.Returns)))
	}
	return strings.Join(flags, ", ")
}
