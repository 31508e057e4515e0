// Package manifest renders an interface model as a JSON ABI manifest for
// external tooling.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tos-network/abiderive/derive/model"
	"github.com/tos-network/abiderive/derive/signature"
)

// Manifest is the document written for one interface. Field order is the
// serialized order.
type Manifest struct {
	Name        string       `json:"name"`
	Constructor *Constructor `json:"constructor,omitempty"`
	Functions   []Function   `json:"functions"`
	Events      []Event      `json:"events"`
}

type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Constructor struct {
	Inputs  []Param `json:"inputs"`
	Payable bool    `json:"payable"`
}

type Function struct {
	Name     string   `json:"name"`
	Inputs   []Param  `json:"inputs"`
	Outputs  []string `json:"outputs"`
	Payable  bool     `json:"payable"`
	Selector string   `json:"selector"`
}

type Event struct {
	Name   string  `json:"name"`
	Inputs []Param `json:"inputs"`
}

// Build converts an annotated model. Items keep declaration order.
func Build(intf *model.Interface) *Manifest {
	m := &Manifest{
		Name:      intf.Name,
		Functions: []Function{},
		Events:    []Event{},
	}
	if c := intf.Constructor; c != nil {
		m.Constructor = &Constructor{
			Inputs:  params(c.Arguments),
			Payable: c.Payable,
		}
	}
	for _, item := range intf.Items {
		switch it := item.(type) {
		case *model.Signature:
			outputs := make([]string, 0, len(it.ReturnTypes))
			for _, t := range it.ReturnTypes {
				outputs = append(outputs, t.Name())
			}
			m.Functions = append(m.Functions, Function{
				Name:     it.Name,
				Inputs:   params(it.Arguments),
				Outputs:  outputs,
				Payable:  it.Payable,
				Selector: signature.SelectorHex(it.Selector),
			})
		case *model.Event:
			m.Events = append(m.Events, Event{
				Name:   it.Name,
				Inputs: params(it.Arguments),
			})
		}
	}
	return m
}

func params(args []model.Argument) []Param {
	out := make([]Param, 0, len(args))
	for _, a := range args {
		out = append(out, Param{Name: a.Name, Type: a.Type.Name()})
	}
	return out
}

// Encode serializes m with two-space indentation and a trailing newline.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest %s: %w", m.Name, err)
	}
	return buf.Bytes(), nil
}

// Decode parses a manifest produced by Encode.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Functions == nil {
		m.Functions = []Function{}
	}
	if m.Events == nil {
		m.Events = []Event{}
	}
	return &m, nil
}

// Emit builds, encodes and writes the manifest of intf to sink. It returns
// the location reported by the sink.
func Emit(intf *model.Interface, sink Sink) (string, error) {
	data, err := Encode(Build(intf))
	if err != nil {
		return "", err
	}
	return sink.Write(intf.Name, data)
}
