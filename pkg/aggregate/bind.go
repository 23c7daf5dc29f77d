package aggregate

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Args is the argument tuple of one intercepted call.
type Args = []any

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	batchType   = reflect.TypeOf([]Args(nil))
)

// BindConfig names the target methods a Dynamic aggregator routes through.
type BindConfig struct {
	// Intercept is the method whose calls are buffered. Optional; when set
	// it must exist on the target. It is never invoked.
	Intercept string

	// Flush is the bulk method. Required. It must accept []Args, optionally
	// preceded by a context.Context, and return nothing or an error.
	Flush string

	// Close is the method invoked after the final drain. Optional; when set
	// it must take a context.Context first and return an error.
	Close string

	// Interval and Max are as in Config.
	Interval time.Duration
	Max      int

	// Transform is called with the target and the raw arguments of each
	// intercepted call. It may return replacement arguments; returning
	// false drops the call.
	Transform func(target any, args Args) (Args, bool)
}

// Dynamic is an aggregator bound to a target by method names.
// Calls to the Intercept and Close names are re-routed; every other
// method can be reached unchanged through Call or Target.
type Dynamic struct {
	target any
	value  reflect.Value
	cfg    BindConfig
	close  reflect.Value
	agg    *Aggregator[Args]

	closeMu  sync.Mutex
	closed   bool
	closeErr error
}

// Bind validates the method names in cfg against target and starts an
// aggregator that buffers argument tuples for target's Flush method.
// Returns an error wrapping ErrInvalidConfig if a name does not resolve to
// a suitable method.
func Bind(target any, cfg BindConfig, opts ...Option) (*Dynamic, error) {
	if target == nil {
		return nil, invalidConfig("target is required")
	}
	if cfg.Flush == "" {
		return nil, invalidConfig("flush is required")
	}

	value := reflect.ValueOf(target)

	flush := value.MethodByName(cfg.Flush)
	if !flush.IsValid() {
		return nil, invalidConfig("method %s should be function on target", cfg.Flush)
	}
	if err := checkFlushSignature(cfg.Flush, flush.Type()); err != nil {
		return nil, err
	}

	if cfg.Intercept != "" && !value.MethodByName(cfg.Intercept).IsValid() {
		return nil, invalidConfig("method %s should be function on target", cfg.Intercept)
	}

	var closeMethod reflect.Value
	if cfg.Close != "" {
		closeMethod = value.MethodByName(cfg.Close)
		if !closeMethod.IsValid() || !isContextAware(closeMethod.Type()) {
			return nil, invalidConfig("method %s should be context-aware function on target", cfg.Close)
		}
	}

	d := &Dynamic{
		target: target,
		value:  value,
		cfg:    cfg,
		close:  closeMethod,
	}

	aggCfg := Config[Args]{
		Interval: cfg.Interval,
		Max:      cfg.Max,
		// Close is driven by Dynamic.Close so it can forward arguments.
		Closer: CloserFunc(func(context.Context) error { return nil }),
	}
	if cfg.Transform != nil {
		aggCfg.Transform = func(args Args) (Args, bool) {
			return cfg.Transform(target, args)
		}
	}

	agg, err := New[Args](FlusherFunc[Args](func(ctx context.Context, batch []Args) error {
		return callFlush(flush, ctx, batch)
	}), aggCfg, opts...)
	if err != nil {
		return nil, err
	}
	d.agg = agg

	return d, nil
}

// Intercept buffers one call's arguments.
func (d *Dynamic) Intercept(args ...any) {
	d.agg.Intercept(Args(args))
}

// Close drains the buffer, then invokes the target's close method (if one
// was named) with ctx followed by args, returning its error.
//
// The close method runs at most once. Later calls return the first result
// and ignore their args. Arguments that do not fit the close method are
// rejected without consuming that single call. A nil ctx is treated as
// context.Background().
func (d *Dynamic) Close(ctx context.Context, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := d.agg.Close(ctx); err != nil {
		return err
	}
	if !d.close.IsValid() {
		return nil
	}

	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.closed {
		return d.closeErr
	}

	in, err := buildArgs(d.close.Type(), []reflect.Value{reflect.ValueOf(&ctx).Elem()}, args)
	if err != nil {
		return fmt.Errorf("close target: %w", err)
	}

	out := d.close.Call(in)
	d.closed = true
	if errVal := out[0]; !errVal.IsNil() {
		d.closeErr = fmt.Errorf("close target: %w", errVal.Interface().(error))
	}
	return d.closeErr
}

// Call invokes the named target method. The Intercept and Close names are
// re-routed to the aggregator; for Close, a leading context.Context argument
// is used as the close context. Calling the Intercept name after the final
// drain returns ErrClosed. Every other method runs on the target
// unchanged and its results are returned.
func (d *Dynamic) Call(name string, args ...any) ([]any, error) {
	switch {
	case name == "":
		return nil, fmt.Errorf("call: method name is required")
	case name == d.cfg.Intercept:
		if d.agg.State() == StateStopped {
			return nil, fmt.Errorf("call %s: %w", name, ErrClosed)
		}
		d.Intercept(args...)
		return nil, nil
	case name == d.cfg.Close:
		ctx := context.Background()
		if len(args) > 0 {
			if c, ok := args[0].(context.Context); ok {
				ctx, args = c, args[1:]
			}
		}
		return nil, d.Close(ctx, args...)
	}

	m := d.value.MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("call: target has no method %s", name)
	}
	in, err := buildArgs(m.Type(), nil, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	out := m.Call(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// Target returns the wrapped target itself.
func (d *Dynamic) Target() any {
	return d.target
}

// Aggregator returns the underlying typed aggregator.
func (d *Dynamic) Aggregator() *Aggregator[Args] {
	return d.agg
}

func checkFlushSignature(name string, t reflect.Type) error {
	batchIdx := 0
	switch t.NumIn() {
	case 1:
	case 2:
		if t.In(0) != contextType {
			return invalidConfig("method %s should take context.Context as first argument", name)
		}
		batchIdx = 1
	default:
		return invalidConfig("method %s should accept a batch of arguments", name)
	}
	if !batchType.AssignableTo(t.In(batchIdx)) {
		return invalidConfig("method %s should accept %s", name, batchType)
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if !t.Out(0).Implements(errorType) {
			return invalidConfig("method %s should return an error", name)
		}
	default:
		return invalidConfig("method %s should return at most an error", name)
	}
	return nil
}

func isContextAware(t reflect.Type) bool {
	return t.NumIn() >= 1 &&
		t.In(0) == contextType &&
		t.NumOut() == 1 &&
		t.Out(0) == errorType
}

func callFlush(flush reflect.Value, ctx context.Context, batch []Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flush panicked: %v", r)
		}
	}()

	t := flush.Type()
	in := make([]reflect.Value, 0, 2)
	if t.NumIn() == 2 {
		in = append(in, reflect.ValueOf(ctx))
	}
	in = append(in, reflect.ValueOf(batch).Convert(t.In(t.NumIn()-1)))

	out := flush.Call(in)
	if len(out) == 1 && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// buildArgs converts args into reflect values matching t's parameters after
// the leading values, checking count and assignability so Call cannot panic.
func buildArgs(t reflect.Type, lead []reflect.Value, args []any) ([]reflect.Value, error) {
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}
	total := len(lead) + len(args)
	if total < fixed || (!t.IsVariadic() && total != fixed) {
		return nil, fmt.Errorf("expected %d arguments, got %d", t.NumIn()-len(lead), len(args))
	}

	in := append([]reflect.Value{}, lead...)
	for i, arg := range args {
		pos := len(lead) + i
		var want reflect.Type
		if t.IsVariadic() && pos >= fixed {
			want = t.In(fixed).Elem()
		} else {
			want = t.In(pos)
		}

		if arg == nil {
			switch want.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
				in = append(in, reflect.Zero(want))
				continue
			}
			return nil, fmt.Errorf("argument %d: nil is not assignable to %s", i, want)
		}

		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, fmt.Errorf("argument %d: %s is not assignable to %s", i, v.Type(), want)
		}
		in = append(in, v)
	}
	return in, nil
}
