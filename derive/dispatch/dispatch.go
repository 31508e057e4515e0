// Package dispatch routes ABI-encoded call payloads to method implementations.
//
// A Dispatcher is built from an annotated interface model and a set of
// handlers. The first four payload bytes select the method; the remainder is
// decoded into the declared argument types, the handler is invoked, and its
// results are encoded as the call output.
package dispatch

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	abierrors "github.com/tos-network/abiderive/derive/errors"
	"github.com/tos-network/abiderive/derive/model"
	"github.com/tos-network/abiderive/derive/signature"
	"github.com/tos-network/abiderive/derive/wire"
)

// SelectorSize is the length of the method id prefix.
const SelectorSize = 4

// Handler implements one method. It receives the decoded arguments in
// declaration order and returns one value per declared return type.
type Handler func(args []any) ([]any, error)

// ConstructorHandler implements the constructor.
type ConstructorHandler func(args []any) error

// Handlers binds method names to implementations.
type Handlers struct {
	Methods     map[string]Handler
	Constructor ConstructorHandler
}

// ValueSource reports the value transferred with the current call.
type ValueSource interface {
	Value() *uint256.Int
}

// ValueFunc adapts a function to ValueSource.
type ValueFunc func() *uint256.Int

func (f ValueFunc) Value() *uint256.Int { return f() }

// Route is one entry of the routing table.
type Route struct {
	Selector  uint32
	Signature *model.Signature
	handler   Handler
}

type Dispatcher struct {
	name    string
	routes  []*Route
	table   map[uint32]*Route
	ctor    *model.Signature
	ctorFn  ConstructorHandler
	value   ValueSource
	logger  *zap.Logger
	metrics *Metrics

	ctorMu      sync.Mutex
	constructed bool
}

// New builds the routing table of intf. The model must already be annotated.
func New(intf *model.Interface, h Handlers, opts ...Option) (*Dispatcher, error) {
	if intf == nil {
		return nil, fmt.Errorf("dispatch: nil interface")
	}
	d := &Dispatcher{
		name:   intf.Name,
		table:  make(map[uint32]*Route),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	known := make(map[string]struct{})
	for _, item := range intf.Items {
		switch it := item.(type) {
		case *model.Signature:
			known[it.Name] = struct{}{}
			if it.Canonical == "" {
				return nil, fmt.Errorf("dispatch: method %q is not annotated", it.Name)
			}
			fn := h.Methods[it.Name]
			if fn == nil {
				return nil, fmt.Errorf("dispatch: no handler for method %q", it.Name)
			}
			if prev, dup := d.table[it.Selector]; dup {
				return nil, fmt.Errorf("dispatch: selector %s of %s collides with %s",
					signature.SelectorHex(it.Selector), it.Canonical, prev.Signature.Canonical)
			}
			r := &Route{Selector: it.Selector, Signature: it, handler: fn}
			d.routes = append(d.routes, r)
			d.table[it.Selector] = r
		case *model.Event:
		}
	}
	for name := range h.Methods {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("dispatch: handler %q does not match a declared method", name)
		}
	}

	if intf.Constructor != nil {
		if h.Constructor == nil {
			return nil, fmt.Errorf("dispatch: no handler for the constructor")
		}
		d.ctor = intf.Constructor
		d.ctorFn = h.Constructor
	}

	d.logger.Debug("dispatcher ready",
		zap.String("interface", d.name),
		zap.Int("routes", len(d.routes)),
		zap.Bool("constructor", d.ctor != nil))
	return d, nil
}

// Name returns the interface name.
func (d *Dispatcher) Name() string { return d.name }

// Routes returns the routing table in declaration order.
func (d *Dispatcher) Routes() []Route {
	out := make([]Route, 0, len(d.routes))
	for _, r := range d.routes {
		out = append(out, *r)
	}
	return out
}

// Dispatch executes one call. Errors abort only this call.
func (d *Dispatcher) Dispatch(payload []byte) ([]byte, error) {
	if len(payload) < SelectorSize {
		return nil, d.fail(abierrors.ErrInvalidPayload.
			WithDetail("payload is %d byte(s), need at least %d", len(payload), SelectorSize))
	}
	sel := binary.BigEndian.Uint32(payload[:SelectorSize])
	r, ok := d.table[sel]
	if !ok {
		return nil, d.fail(abierrors.ErrUnknownSelector.WithSelector(sel))
	}
	sig := r.Signature
	d.metrics.call(d.name, sig.Name)

	if err := d.checkValue(sig); err != nil {
		return nil, d.fail(err.WithMethod(sig.Name).WithSelector(sel))
	}
	args, err := decodeArguments(sig.Arguments, payload[SelectorSize:])
	if err != nil {
		return nil, d.fail(err.WithMethod(sig.Name).WithSelector(sel))
	}

	results, herr := r.handler(args)
	if herr != nil {
		return nil, d.fail(abierrors.ErrHandler.WithMethod(sig.Name).WithSelector(sel).WithCause(herr))
	}
	if len(sig.ReturnTypes) == 0 {
		return []byte{}, nil
	}
	out, encErr := encodeResults(sig.ReturnTypes, results)
	if encErr != nil {
		return nil, d.fail(encErr.WithMethod(sig.Name).WithSelector(sel))
	}

	d.logger.Debug("dispatched",
		zap.String("interface", d.name),
		zap.String("method", sig.Name),
		zap.Int("output", len(out)))
	return out, nil
}

// DispatchConstructor runs the constructor once. Without a declared
// constructor it does nothing.
func (d *Dispatcher) DispatchConstructor(payload []byte) error {
	if d.ctor == nil {
		return nil
	}
	d.ctorMu.Lock()
	defer d.ctorMu.Unlock()

	const method = "constructor"
	if d.constructed {
		return d.fail(abierrors.ErrAlreadyConstructed.WithMethod(method))
	}
	d.metrics.call(d.name, method)
	if err := d.checkValue(d.ctor); err != nil {
		return d.fail(err.WithMethod(method))
	}
	args, err := decodeArguments(d.ctor.Arguments, payload)
	if err != nil {
		return d.fail(err.WithMethod(method))
	}
	if herr := d.ctorFn(args); herr != nil {
		return d.fail(abierrors.ErrHandler.WithMethod(method).WithCause(herr))
	}
	d.constructed = true
	d.logger.Debug("constructed", zap.String("interface", d.name))
	return nil
}

func (d *Dispatcher) checkValue(sig *model.Signature) *abierrors.Error {
	if sig.Payable || d.value == nil {
		return nil
	}
	v := d.value.Value()
	if v == nil || v.IsZero() {
		return nil
	}
	return abierrors.ErrValueNotAccepted.WithDetail("transferred value %s", v.Dec())
}

func (d *Dispatcher) fail(err *abierrors.Error) error {
	d.metrics.failure(d.name, err.Kind)
	d.logger.Debug("dispatch failed",
		zap.String("interface", d.name),
		zap.String("kind", string(err.Kind)),
		zap.Error(err))
	return err
}

func decodeArguments(args []model.Argument, payload []byte) ([]any, *abierrors.Error) {
	stream := wire.NewStream(payload)
	out := make([]any, 0, len(args))
	for _, a := range args {
		v, err := stream.Pop(a.Type.ABI)
		if err != nil {
			return nil, abierrors.ErrArgumentDecode.WithDetail("argument %q (%s)", a.Name, a.Type.Name()).WithCause(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func encodeResults(types []model.Type, results []any) ([]byte, *abierrors.Error) {
	if len(results) != len(types) {
		return nil, abierrors.ErrResultEncode.WithDetail("handler returned %d value(s), want %d", len(results), len(types))
	}
	sink := wire.NewSink(len(types))
	for i, t := range types {
		sink.Push(t.ABI, results[i])
	}
	out, err := sink.Finalize()
	if err != nil {
		return nil, abierrors.ErrResultEncode.WithCause(err)
	}
	return out, nil
}
