// Package signature maps declared types to canonical ABI names and computes
// the keccak-256 selectors and event topics of an interface model.
package signature

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"

	"github.com/tos-network/abiderive/derive/diag"
	"github.com/tos-network/abiderive/derive/model"
	"github.com/tos-network/abiderive/derive/wire"
)

// ErrUnknownType is returned by CanonicalType for names outside the type table.
var ErrUnknownType = errors.New("unknown type")

// normalizeType drops all whitespace; declared type names never contain any
// that is significant.
func normalizeType(t string) string {
	return strings.Join(strings.Fields(t), "")
}

// CanonicalType returns the canonical ABI name of a declared type.
func CanonicalType(source string) (string, error) {
	t := normalizeType(source)
	if t == "" {
		return "", fmt.Errorf("%w: empty type", ErrUnknownType)
	}
	out, ok := canonical(t)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownType, source)
	}
	return out, nil
}

func canonical(t string) (string, bool) {
	if strings.HasSuffix(t, "]") {
		open := strings.LastIndexByte(t, '[')
		if open <= 0 {
			return "", false
		}
		elem, ok := canonical(t[:open])
		if !ok {
			return "", false
		}
		size := t[open+1 : len(t)-1]
		if size == "" {
			return elem + "[]", true
		}
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 || strconv.Itoa(n) != size {
			return "", false
		}
		return elem + "[" + size + "]", true
	}

	switch t {
	case "bool", "address", "bytes", "string":
		return t, true
	case "uint":
		return "uint256", true
	case "int":
		return "int256", true
	case "h256":
		return "bytes32", true
	}

	switch {
	case strings.HasPrefix(t, "uint"):
		return integer("uint", t[len("uint"):])
	case strings.HasPrefix(t, "u"):
		return integer("uint", t[len("u"):])
	case strings.HasPrefix(t, "int"):
		return integer("int", t[len("int"):])
	case strings.HasPrefix(t, "i"):
		return integer("int", t[len("i"):])
	case strings.HasPrefix(t, "bytes"):
		n, ok := digits(t[len("bytes"):])
		if !ok || n < 1 || n > 32 {
			return "", false
		}
		return "bytes" + strconv.Itoa(n), true
	}
	return "", false
}

func integer(prefix, bits string) (string, bool) {
	n, ok := digits(bits)
	if !ok || n < 8 || n > 256 || n%8 != 0 {
		return "", false
	}
	return prefix + strconv.Itoa(n), true
}

func digits(s string) (int, bool) {
	if s == "" || s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Canonical joins a name and canonical argument types into a signature.
func Canonical(name string, types []string) string {
	return name + "(" + strings.Join(types, ",") + ")"
}

// Keccak256 is the legacy (pre-NIST) Keccak-256 digest used by the ABI.
func Keccak256(data []byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	h.Sum(out[:0])
	return out
}

// Selector returns the first four digest bytes of a canonical signature,
// read as a big-endian integer.
func Selector(sig string) uint32 {
	sum := Keccak256([]byte(sig))
	return binary.BigEndian.Uint32(sum[:4])
}

// SelectorHex formats a selector as 0x followed by eight lowercase hex digits.
func SelectorHex(sel uint32) string {
	return fmt.Sprintf("0x%08x", sel)
}

// Topic returns the full digest of an event signature.
func Topic(sig string) [32]byte {
	return Keccak256([]byte(sig))
}

// ParseSignature canonicalizes a human-entered signature such as
// "transfer(address, u256)".
func ParseSignature(text string) (string, error) {
	parsed, err := abi.ParseSelector(normalizeType(text))
	if err != nil {
		return "", fmt.Errorf("parse signature %q: %w", text, err)
	}
	types := make([]string, 0, len(parsed.Inputs))
	for _, in := range parsed.Inputs {
		if len(in.Components) > 0 || strings.HasPrefix(in.Type, "tuple") {
			return "", fmt.Errorf("parse signature %q: tuple arguments are not supported", text)
		}
		c, err := CanonicalType(in.Type)
		if err != nil {
			return "", fmt.Errorf("parse signature %q: %w", text, err)
		}
		types = append(types, c)
	}
	return Canonical(parsed.Name, types), nil
}

// Annotate fills canonical forms, ABI types, selectors and topics into the
// model and reports unknown types and selector collisions.
func Annotate(intf *model.Interface) diag.Diagnostics {
	var diags diag.Diagnostics
	if intf == nil {
		return diags
	}
	if c := intf.Constructor; c != nil {
		diags = append(diags, annotateSignature("constructor", c)...)
	}
	for _, item := range intf.Items {
		switch it := item.(type) {
		case *model.Signature:
			diags = append(diags, annotateSignature(it.Name, it)...)
		case *model.Event:
			types, argDiags := resolveArguments(it.Name, it.Arguments)
			diags = append(diags, argDiags...)
			if len(argDiags) == 0 {
				it.Canonical = Canonical(it.Name, types)
				it.Topic = Topic(it.Canonical)
			}
		}
	}
	if diags.HasErrors() {
		return diags
	}
	return CheckCollisions(intf.Signatures())
}

func annotateSignature(name string, s *model.Signature) diag.Diagnostics {
	types, diags := resolveArguments(s.Name, s.Arguments)
	for i := range s.ReturnTypes {
		if err := resolve(&s.ReturnTypes[i]); err != nil {
			diags = append(diags, diag.Errorf(diag.CodeSigUnknownType, s.Name,
				"return value %d: %v", i+1, err))
		}
	}
	if len(diags) == 0 {
		s.Canonical = Canonical(name, types)
		s.Selector = Selector(s.Canonical)
	}
	return diags
}

func resolveArguments(item string, args []model.Argument) ([]string, diag.Diagnostics) {
	var diags diag.Diagnostics
	types := make([]string, 0, len(args))
	for i := range args {
		if err := resolve(&args[i].Type); err != nil {
			diags = append(diags, diag.Errorf(diag.CodeSigUnknownType, item,
				"argument %q: %v", args[i].Name, err))
			continue
		}
		types = append(types, args[i].Type.Canonical)
	}
	return types, diags
}

func resolve(t *model.Type) error {
	c, err := CanonicalType(t.Source)
	if err != nil {
		return err
	}
	typ, err := wire.NewType(c)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnknownType, t.Source, err)
	}
	t.Canonical = c
	t.ABI = typ
	return nil
}

// CheckCollisions reports every pair of signatures sharing a selector.
func CheckCollisions(sigs []*model.Signature) diag.Diagnostics {
	var diags diag.Diagnostics
	owner := make(map[uint32]*model.Signature, len(sigs))
	for _, s := range sigs {
		prev, dup := owner[s.Selector]
		if !dup {
			owner[s.Selector] = s
			continue
		}
		diags = append(diags, diag.Errorf(diag.CodeSigSelectorCollision, s.Name,
			"selector %s of %s collides with %s", SelectorHex(s.Selector), s.Canonical, prev.Canonical))
	}
	return diags
}
