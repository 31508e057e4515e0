// Package desc defines the raw interface description consumed by the model
// builder. A description is what a source parser hands over: an interface name
// and its method declarations in source order, with declared type names and
// attribute flags.
package desc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Description is the root of a parsed interface description.
type Description struct {
	Name    string   `yaml:"name" json:"name"`
	Methods []Method `yaml:"methods" json:"methods"`
}

// Method is one declaration. The flags select its shape: plain method,
// payable method, constructor or event.
type Method struct {
	Name        string   `yaml:"name" json:"name"`
	Args        []Arg    `yaml:"args,omitempty" json:"args,omitempty"`
	Returns     []string `yaml:"returns,omitempty" json:"returns,omitempty"`
	Payable     bool     `yaml:"payable,omitempty" json:"payable,omitempty"`
	Constructor bool     `yaml:"constructor,omitempty" json:"constructor,omitempty"`
	Event       bool     `yaml:"event,omitempty" json:"event,omitempty"`
}

// Arg is a (binding, type) pair.
type Arg struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Load decodes a YAML or JSON description. Unknown fields are rejected.
func Load(r io.Reader) (*Description, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var d Description
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("interface description is empty")
		}
		return nil, fmt.Errorf("decode interface description: %w", err)
	}
	return &d, nil
}

// LoadBytes decodes a description held in memory.
func LoadBytes(data []byte) (*Description, error) {
	return Load(bytes.NewReader(data))
}

// LoadFile reads and decodes the description at path.
func LoadFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Shape names the declaration kind implied by the flags, or "" when the flag
// combination is not a supported shape.
func (m Method) Shape() string {
	switch {
	case m.Event && (m.Constructor || m.Payable || len(m.Returns) > 0):
		return ""
	case m.Event:
		return "event"
	case m.Constructor && len(m.Returns) > 0:
		return ""
	case m.Constructor:
		return "constructor"
	case m.Payable:
		return "payable"
	default:
		return "method"
	}
}

func (d *Description) String() string {
	if d == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "description %s {\n", d.Name)
	for _, m := range d.Methods {
		args := make([]string, 0, len(m.Args))
		for _, a := range m.Args {
			args = append(args, a.Name+": "+a.Type)
		}
		kind := m.Shape()
		if kind == "" {
			kind = "invalid"
		}
		fmt.Fprintf(&b, "  %s %s(%s)", kind, m.Name, strings.Join(args, ", "))
		if len(m.Returns) > 0 {
			fmt.Fprintf(&b, " -> (%s)", strings.Join(m.Returns, ", "))
		}
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
