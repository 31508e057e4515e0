// Package model is the structured, immutable form of an interface description.
//
// Build produces an Interface from a raw description; the signature package
// then annotates it in place with canonical forms and selectors. After that
// the model is read-only and shared by the dispatcher, client and manifest
// generators.
package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Interface is the finished model of one interface description.
type Interface struct {
	Name        string
	Constructor *Signature
	// Items holds methods and events in declaration order.
	Items []Item
}

// Item is either a *Signature or an *Event.
type Item interface {
	ItemName() string
	isItem()
}

// Type is a declared type together with its normalized forms.
type Type struct {
	Source    string
	Canonical string
	ABI       abi.Type
}

// Name returns the canonical name once normalized, the declared name otherwise.
func (t Type) Name() string {
	if t.Canonical != "" {
		return t.Canonical
	}
	return t.Source
}

type Argument struct {
	Name string
	Type Type
}

// Signature is a callable method or the constructor.
type Signature struct {
	Name        string
	Arguments   []Argument
	ReturnTypes []Type
	Payable     bool

	Canonical string
	Selector  uint32
}

type Event struct {
	Name      string
	Arguments []Argument

	Canonical string
	Topic     [32]byte
}

func (s *Signature) ItemName() string { return s.Name }
func (e *Event) ItemName() string     { return e.Name }

func (*Signature) isItem() {}
func (*Event) isItem()     {}

// Signatures returns the callable methods in declaration order.
func (i *Interface) Signatures() []*Signature {
	out := make([]*Signature, 0, len(i.Items))
	for _, item := range i.Items {
		switch it := item.(type) {
		case *Signature:
			out = append(out, it)
		case *Event:
		}
	}
	return out
}

// Events returns the events in declaration order.
func (i *Interface) Events() []*Event {
	out := make([]*Event, 0)
	for _, item := range i.Items {
		switch it := item.(type) {
		case *Signature:
		case *Event:
			out = append(out, it)
		}
	}
	return out
}

// Lookup finds an item by name.
func (i *Interface) Lookup(name string) (Item, bool) {
	for _, item := range i.Items {
		if item.ItemName() == name {
			return item, true
		}
	}
	return nil, false
}

// String renders the interface as a textual declaration.
func (i *Interface) String() string {
	if i == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("interface ")
	b.WriteString(i.Name)
	b.WriteString(" {\n")
	if c := i.Constructor; c != nil {
		b.WriteString("  constructor(")
		b.WriteString(renderArguments(c.Arguments))
		b.WriteString(")")
		if c.Payable {
			b.WriteString(" payable")
		}
		b.WriteString(";\n")
	}
	for _, item := range i.Items {
		switch it := item.(type) {
		case *Signature:
			b.WriteString("  fn ")
			b.WriteString(it.Name)
			b.WriteString("(")
			b.WriteString(renderArguments(it.Arguments))
			b.WriteString(")")
			if len(it.ReturnTypes) > 0 {
				names := make([]string, 0, len(it.ReturnTypes))
				for _, t := range it.ReturnTypes {
					names = append(names, t.Name())
				}
				b.WriteString(" -> (")
				b.WriteString(strings.Join(names, ", "))
				b.WriteString(")")
			}
			if it.Payable {
				b.WriteString(" payable")
			}
			b.WriteString(";")
			if it.Canonical != "" {
				fmt.Fprintf(&b, " -- 0x%08x", it.Selector)
			}
			b.WriteString("\n")
		case *Event:
			b.WriteString("  event ")
			b.WriteString(it.Name)
			b.WriteString("(")
			b.WriteString(renderArguments(it.Arguments))
			b.WriteString(");\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func renderArguments(args []Argument) string {
	if len(args) == 0 {
		return ""
	}
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, a.Name+": "+a.Type.Name())
	}
	return strings.Join(out, ", ")
}
