package dispatch

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"unicode"

	"github.com/holiman/uint256"

	"github.com/tos-network/abiderive/derive/model"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	bigIntType  = reflect.TypeOf((*big.Int)(nil))
	uint256Type = reflect.TypeOf((*uint256.Int)(nil))
)

// GoName maps a declared method name to the exported Go method implementing
// it: "transfer" becomes "Transfer", "balance_of" becomes "BalanceOf".
func GoName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// Bind builds handlers from the exported methods of impl. Every declared
// method must have a Go method named by GoName; the constructor is bound to
// Constructor, and two declarations mapping to the same Go method are
// rejected. Parameters must accept the decoded argument values; a u256 may be
// taken as *uint256.Int, alone or as an array or slice element. A trailing
// error result is propagated as a handler error.
func Bind(intf *model.Interface, impl any) (Handlers, error) {
	h := Handlers{Methods: make(map[string]Handler)}
	if intf == nil {
		return h, fmt.Errorf("dispatch: nil interface")
	}
	v := reflect.ValueOf(impl)
	if !v.IsValid() {
		return h, fmt.Errorf("dispatch: nil implementation")
	}

	bound := make(map[string]string)
	if intf.Constructor != nil {
		bound["Constructor"] = "constructor"
	}
	for _, sig := range intf.Signatures() {
		goName := GoName(sig.Name)
		if prev, dup := bound[goName]; dup {
			return h, fmt.Errorf("dispatch: %q and %q both bind to %s", prev, sig.Name, goName)
		}
		bound[goName] = sig.Name
		m := v.MethodByName(goName)
		if !m.IsValid() {
			return h, fmt.Errorf("dispatch: %T has no method %s for %q", impl, goName, sig.Name)
		}
		fn, err := bindMethod(sig.Name, m, len(sig.Arguments), len(sig.ReturnTypes))
		if err != nil {
			return h, err
		}
		h.Methods[sig.Name] = fn
	}

	if c := intf.Constructor; c != nil {
		m := v.MethodByName("Constructor")
		if !m.IsValid() {
			return h, fmt.Errorf("dispatch: %T has no method Constructor", impl)
		}
		fn, err := bindMethod("constructor", m, len(c.Arguments), 0)
		if err != nil {
			return h, err
		}
		h.Constructor = func(args []any) error {
			_, err := fn(args)
			return err
		}
	}
	return h, nil
}

func bindMethod(name string, m reflect.Value, nargs, nresults int) (Handler, error) {
	t := m.Type()
	if t.IsVariadic() || t.NumIn() != nargs {
		return nil, fmt.Errorf("dispatch: %s takes %d parameter(s), %q declares %d", t, t.NumIn(), name, nargs)
	}
	nout := t.NumOut()
	hasErr := nout > 0 && t.Out(nout-1) == errorType
	if hasErr {
		nout--
	}
	if nout != nresults {
		return nil, fmt.Errorf("dispatch: %s returns %d value(s), %q declares %d", t, nout, name, nresults)
	}

	return func(args []any) ([]any, error) {
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			arg, err := convertArgument(a, t.In(i))
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			in[i] = arg
		}
		out := m.Call(in)
		if hasErr {
			if errv := out[len(out)-1]; !errv.IsNil() {
				return nil, errv.Interface().(error)
			}
			out = out[:len(out)-1]
		}
		results := make([]any, len(out))
		for i, o := range out {
			results[i] = o.Interface()
		}
		return results, nil
	}, nil
}

func convertArgument(a any, want reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(a)
	if !v.IsValid() {
		return reflect.Zero(want), nil
	}
	return convertValue(v, want)
}

// convertValue assigns v to want, turning *big.Int into *uint256.Int, also
// element-wise for arrays and slices.
func convertValue(v reflect.Value, want reflect.Type) (reflect.Value, error) {
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	switch {
	case v.Type() == bigIntType && want == uint256Type:
		b := v.Interface().(*big.Int)
		if b == nil {
			return reflect.Zero(want), nil
		}
		u, overflow := uint256.FromBig(b)
		if overflow {
			return reflect.Value{}, fmt.Errorf("value %s overflows uint256", b)
		}
		return reflect.ValueOf(u), nil
	case v.Kind() == reflect.Slice && want.Kind() == reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(want), nil
		}
		out := reflect.MakeSlice(want, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertValue(v.Index(i), want.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	case v.Kind() == reflect.Array && want.Kind() == reflect.Array && v.Len() == want.Len():
		out := reflect.New(want).Elem()
		for i := 0; i < v.Len(); i++ {
			elem, err := convertValue(v.Index(i), want.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), want)
}
