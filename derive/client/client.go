// Package client encodes outbound calls against an interface model and
// decodes their results through an execution runtime.
package client

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	abierrors "github.com/tos-network/abiderive/derive/errors"
	"github.com/tos-network/abiderive/derive/model"
	"github.com/tos-network/abiderive/derive/wire"
)

// DefaultGas is the gas limit of a client that never called Gas.
const DefaultGas uint64 = 200000

// Runtime executes a call against the contract at to and returns its output.
type Runtime interface {
	Call(gas uint64, to common.Address, value *uint256.Int, payload []byte) ([]byte, error)
}

// RuntimeFunc adapts a function to Runtime.
type RuntimeFunc func(gas uint64, to common.Address, value *uint256.Int, payload []byte) ([]byte, error)

func (f RuntimeFunc) Call(gas uint64, to common.Address, value *uint256.Int, payload []byte) ([]byte, error) {
	return f(gas, to, value, payload)
}

// Client is an immutable call builder. Gas and Value return modified copies.
type Client struct {
	intf    *model.Interface
	rt      Runtime
	address common.Address
	gas     uint64
	value   uint256.Int
}

func New(intf *model.Interface, rt Runtime, address common.Address) *Client {
	return &Client{
		intf:    intf,
		rt:      rt,
		address: address,
		gas:     DefaultGas,
	}
}

// Gas returns a copy of c using the given gas limit.
func (c *Client) Gas(gas uint64) *Client {
	out := *c
	out.gas = gas
	return &out
}

// Value returns a copy of c transferring v with each call. A nil v means zero.
func (c *Client) Value(v *uint256.Int) *Client {
	out := *c
	out.value.Clear()
	if v != nil {
		out.value.Set(v)
	}
	return &out
}

func (c *Client) Address() common.Address { return c.address }
func (c *Client) GasLimit() uint64         { return c.gas }

// CallValue returns a copy of the value transferred with each call.
func (c *Client) CallValue() *uint256.Int { return new(uint256.Int).Set(&c.value) }

// Encode builds the payload of a call: the four-byte selector followed by the
// arguments in declaration order.
func (c *Client) Encode(method string, args ...any) ([]byte, error) {
	sig, err := c.signature(method)
	if err != nil {
		return nil, err
	}
	return encode(sig, args)
}

func encode(sig *model.Signature, args []any) ([]byte, error) {
	if len(args) != len(sig.Arguments) {
		return nil, abierrors.ErrArgumentEncode.WithMethod(sig.Name).
			WithDetail("got %d argument(s), want %d", len(args), len(sig.Arguments))
	}
	sink := wire.NewSink(len(args))
	for i, a := range sig.Arguments {
		sink.Push(a.Type.ABI, args[i])
	}
	payload := make([]byte, 4, 4+wire.WordSize*len(args))
	binary.BigEndian.PutUint32(payload, sig.Selector)
	payload, err := sink.DrainTo(payload)
	if err != nil {
		return nil, abierrors.ErrArgumentEncode.WithMethod(sig.Name).WithCause(err)
	}
	return payload, nil
}

// Call invokes method and decodes its first return value. Methods without
// return types yield nil. A runtime failure is returned as an ErrCallFailed
// error.
func (c *Client) Call(method string, args ...any) (any, error) {
	sig, err := c.signature(method)
	if err != nil {
		return nil, err
	}
	payload, err := encode(sig, args)
	if err != nil {
		return nil, err
	}
	out, err := c.rt.Call(c.gas, c.address, c.CallValue(), payload)
	if err != nil {
		return nil, abierrors.ErrCallFailed.WithMethod(sig.Name).WithSelector(sig.Selector).WithCause(err)
	}
	if len(sig.ReturnTypes) == 0 {
		return nil, nil
	}
	ret := sig.ReturnTypes[0]
	v, err := wire.NewStream(out).Pop(ret.ABI)
	if err != nil {
		return nil, abierrors.ErrResultDecode.WithMethod(sig.Name).
			WithDetail("return type %s", ret.Name()).WithCause(err)
	}
	return v, nil
}

// Constructor always fails: contracts cannot be deployed through a client.
func (c *Client) Constructor(args ...any) error {
	return abierrors.ErrConstructorUnsupported.WithMethod("constructor")
}

func (c *Client) signature(method string) (*model.Signature, error) {
	item, ok := c.intf.Lookup(method)
	if !ok {
		return nil, abierrors.ErrUnknownMethod.WithMethod(method)
	}
	switch it := item.(type) {
	case *model.Signature:
		return it, nil
	case *model.Event:
		return nil, abierrors.ErrEventNotCallable.WithMethod(it.Name)
	}
	return nil, abierrors.ErrUnknownMethod.WithMethod(method)
}
