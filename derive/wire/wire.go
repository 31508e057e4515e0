// Package wire adapts the go-ethereum ABI codec to the sequential Stream/Sink
// shape used by dispatchers and clients: values are popped from, or pushed to,
// a 32-byte-word payload one at a time in declaration order.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
)

// WordSize is the width of one head slot.
const WordSize = 32

var (
	ErrShortPayload  = errors.New("payload too short")
	ErrInvalidOffset = errors.New("invalid dynamic offset")
	ErrNilValue      = errors.New("nil value")
)

var (
	bigIntType  = reflect.TypeOf((*big.Int)(nil))
	uint256Type = reflect.TypeOf((*uint256.Int)(nil))
)

// NewType resolves a canonical ABI type name such as "uint256" or "address[3]".
func NewType(canonical string) (abi.Type, error) {
	return abi.NewType(canonical, "", nil)
}

// IsDynamic reports whether t is encoded through an offset in the head.
func IsDynamic(t abi.Type) bool {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy:
		return true
	case abi.ArrayTy:
		return IsDynamic(*t.Elem)
	case abi.TupleTy:
		for _, elem := range t.TupleElems {
			if IsDynamic(*elem) {
				return true
			}
		}
	}
	return false
}

// HeadSize is the number of bytes t occupies in the head section.
func HeadSize(t abi.Type) int {
	if IsDynamic(t) {
		return WordSize
	}
	switch t.T {
	case abi.ArrayTy:
		return t.Size * HeadSize(*t.Elem)
	case abi.TupleTy:
		total := 0
		for _, elem := range t.TupleElems {
			total += HeadSize(*elem)
		}
		return total
	}
	return WordSize
}

// Stream decodes values sequentially from an ABI-encoded payload.
type Stream struct {
	payload []byte
	pos     int
}

func NewStream(payload []byte) *Stream {
	return &Stream{payload: payload}
}

// Position returns the offset of the next head slot.
func (s *Stream) Position() int { return s.pos }

// Pop decodes the next value of type t. Dynamic values are resolved through
// their head offset, which is relative to the start of the payload.
func (s *Stream) Pop(t abi.Type) (any, error) {
	size := HeadSize(t)
	if s.pos+size > len(s.payload) {
		return nil, fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d",
			ErrShortPayload, t.String(), size, s.pos, len(s.payload))
	}
	head := s.payload[s.pos : s.pos+size]

	var frame []byte
	if IsDynamic(t) {
		offset, err := readOffset(head)
		if err != nil {
			return nil, err
		}
		if offset > len(s.payload) {
			return nil, fmt.Errorf("%w: %d beyond payload length %d", ErrInvalidOffset, offset, len(s.payload))
		}
		// Re-frame the tail as a single-argument encoding: [offset=32][tail].
		frame = make([]byte, WordSize+len(s.payload)-offset)
		frame[WordSize-1] = WordSize
		copy(frame[WordSize:], s.payload[offset:])
	} else {
		frame = head
	}

	values, err := abi.Arguments{{Type: t}}.UnpackValues(frame)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("decode %s: got %d values", t.String(), len(values))
	}
	s.pos += size
	return values[0], nil
}

func readOffset(word []byte) (int, error) {
	for _, b := range word[:WordSize-8] {
		if b != 0 {
			return 0, fmt.Errorf("%w: offset does not fit in 64 bits", ErrInvalidOffset)
		}
	}
	v := binary.BigEndian.Uint64(word[WordSize-8 : WordSize])
	if v > uint64(int(^uint(0)>>1)) {
		return 0, fmt.Errorf("%w: offset %d overflows", ErrInvalidOffset, v)
	}
	return int(v), nil
}

// Sink accumulates values and encodes them as one ABI argument list.
type Sink struct {
	args   abi.Arguments
	values []any
}

// NewSink returns a sink with room for capacity values.
func NewSink(capacity int) *Sink {
	return &Sink{
		args:   make(abi.Arguments, 0, capacity),
		values: make([]any, 0, capacity),
	}
}

// Push appends a value of type t. A *uint256.Int is accepted wherever the
// codec expects a *big.Int, also as the element of an array or slice.
func (s *Sink) Push(t abi.Type, v any) {
	s.args = append(s.args, abi.Argument{Type: t})
	s.values = append(s.values, toCodec(v))
}

func toCodec(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *uint256.Int:
		if x == nil {
			return (*big.Int)(nil)
		}
		return x.ToBig()
	}
	rv := reflect.ValueOf(v)
	want := codecType(rv.Type())
	if want == rv.Type() {
		return v
	}
	return convertElems(rv, want).Interface()
}

// codecType replaces *uint256.Int with *big.Int inside array and slice types.
func codecType(t reflect.Type) reflect.Type {
	switch {
	case t == uint256Type:
		return bigIntType
	case t.Kind() == reflect.Slice:
		if elem := codecType(t.Elem()); elem != t.Elem() {
			return reflect.SliceOf(elem)
		}
	case t.Kind() == reflect.Array:
		if elem := codecType(t.Elem()); elem != t.Elem() {
			return reflect.ArrayOf(t.Len(), elem)
		}
	}
	return t
}

func convertElems(v reflect.Value, want reflect.Type) reflect.Value {
	switch want.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(want)
		}
		out := reflect.MakeSlice(want, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(convertElems(v.Index(i), want.Elem()))
		}
		return out
	case reflect.Array:
		out := reflect.New(want).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(convertElems(v.Index(i), want.Elem()))
		}
		return out
	}
	if u := v.Interface().(*uint256.Int); u != nil {
		return reflect.ValueOf(u.ToBig())
	}
	return reflect.Zero(bigIntType)
}

// checkValue rejects nil pointers and interfaces, including array and slice
// elements. The codec dereferences them without checking.
func checkValue(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Invalid:
		return ErrNilValue
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return fmt.Errorf("%w of type %s", ErrNilValue, v.Type())
		}
		if v.Kind() == reflect.Interface {
			return checkValue(v.Elem())
		}
	case reflect.Array, reflect.Slice:
		switch v.Type().Elem().Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Array, reflect.Slice:
			for i := 0; i < v.Len(); i++ {
				if err := checkValue(v.Index(i)); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
		}
	}
	return nil
}

// Len returns the number of pushed values.
func (s *Sink) Len() int { return len(s.values) }

// Finalize encodes the pushed values.
func (s *Sink) Finalize() ([]byte, error) {
	if len(s.values) == 0 {
		return []byte{}, nil
	}
	for i, v := range s.values {
		if err := checkValue(reflect.ValueOf(v)); err != nil {
			return nil, fmt.Errorf("value %d (%s): %w", i+1, s.args[i].Type.String(), err)
		}
	}
	out, err := s.args.Pack(s.values...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DrainTo appends the encoded values to dst and resets the sink.
func (s *Sink) DrainTo(dst []byte) ([]byte, error) {
	out, err := s.Finalize()
	if err != nil {
		return dst, err
	}
	s.args = s.args[:0]
	s.values = s.values[:0]
	return append(dst, out...), nil
}
