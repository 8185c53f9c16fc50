// Package intrinsics implements the built-in function set of spec.md
// §6 ("Built-in intrinsic set"). Intrinsics are native Go functions
// registered by name and dispatched by a small integer id — the
// process-wide registry is initialised lazily exactly once, per the
// Design Notes ("Global intrinsic registry") in spec.md §9.
//
// This package never imports the vm package: it depends only on
// object.Value and the small Frame/Host interfaces below, which vm.Context
// and vm.Machine satisfy. That keeps the dependency graph a DAG even
// though the vm package needs to look intrinsics up by id.
package intrinsics

import (
	"math/rand"
	"time"

	"mscript/internal/object"
)

// Frame is the subset of a call context an intrinsic's native code
// needs: its bound parameters (already defaulted) and its receiver.
type Frame interface {
	Param(name string) object.Value
	Self() object.Value
	Host() Host
}

// Host is the machine-level capability surface intrinsics may reach for
// — text output, wall-clock time, cooperative yielding and a private
// random stream — mirroring spec.md §6's "Host integration is an
// external collaborator exposing text-output and timing capabilities."
type Host interface {
	Print(s string)
	ImplicitOutput(v object.Value)
	Now() time.Time
	RequestYield()
	Rand() *rand.Rand
	Version() object.Value
}

// Result is what an intrinsic's native code returns: either a finished
// value, or a partial-result token telling the machine to resume the
// same call on the next step with State handed back as partial.
type Result struct {
	Done  bool
	Value object.Value
	State object.Value
}

func Done(v object.Value) Result { return Result{Done: true, Value: v} }

func Pending(state object.Value) Result { return Result{Done: false, State: state} }

// NativeFunc is the Go implementation behind one intrinsic.
type NativeFunc func(f Frame, partial object.Value) Result

// Intrinsic is one registered built-in: a name, a numeric id stable for
// the process lifetime, its formal parameters (with defaults), and its
// native implementation.
type Intrinsic struct {
	ID     int
	Name   string
	Params []object.Param
	Fn     NativeFunc
	fnObj  *object.Function
}

// AsFunctionValue wraps the intrinsic as a FunctionValue, the same value
// Registry.FunctionValue (which get_var uses for step 5 of name
// resolution, spec.md §4.3) returns: a Function whose Code is empty
// (native intrinsics never run TAC) tagged so the evaluator recognises
// it and dispatches natively instead of pushing an ordinary
// TAC-executing context.
func (in *Intrinsic) AsFunctionValue() *object.FunctionValue {
	return &object.FunctionValue{Fn: in.fnObj}
}

// Registry holds every registered intrinsic, indexed by name and by id.
type Registry struct {
	byName map[string]*Intrinsic
	byID   []*Intrinsic
	fnByID map[*object.Function]*Intrinsic
}

var global *Registry

// Global returns the process-wide intrinsic registry, building it on
// first use.
func Global() *Registry {
	if global == nil {
		global = build()
	}
	return global
}

func newRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Intrinsic),
		fnByID: make(map[*object.Function]*Intrinsic),
	}
}

// builder is the fluent handle spec.md §6 describes:
// Intrinsic::create(name) -> handle, handle.add_param(name, default?),
// handle.code = fn.
type builder struct {
	reg *Intrinsic
	r   *Registry
}

func (r *Registry) create(name string) *builder {
	in := &Intrinsic{ID: len(r.byID), Name: name, Params: nil}
	r.byID = append(r.byID, in)
	r.byName[name] = in
	return &builder{reg: in, r: r}
}

func (b *builder) param(name string, def object.Value) *builder {
	b.reg.Params = append(b.reg.Params, object.Param{Name: name, Default: def})
	return b
}

func (b *builder) code(fn NativeFunc) *builder {
	b.reg.Fn = fn
	fnObj := &object.Function{Params: b.reg.Params}
	b.r.fnByID[fnObj] = b.reg
	b.reg.fnObj = fnObj
	return b
}

// ByName looks up an intrinsic by its script-visible name.
func (r *Registry) ByName(name string) (*Intrinsic, bool) {
	in, ok := r.byName[name]
	return in, ok
}

// ByID looks up an intrinsic by its stable numeric id.
func (r *Registry) ByID(id int) (*Intrinsic, bool) {
	if id < 0 || id >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// FunctionValue returns the FunctionValue get_var hands back for name,
// so ordinary CallFunctionA machinery can invoke it via the evaluator's
// intrinsic fast path.
func (r *Registry) FunctionValue(name string) (*object.FunctionValue, bool) {
	in, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &object.FunctionValue{Fn: in.fnObj}, true
}

// Lookup resolves a *object.Function produced by AsFunctionValue back to
// its Intrinsic, letting the evaluator recognise "this FunctionValue is
// actually intrinsic #N" without a marker field on object.Function.
func (r *Registry) Lookup(fn *object.Function) (*Intrinsic, bool) {
	in, ok := r.fnByID[fn]
	return in, ok
}

// Names returns every registered intrinsic name. Machine.FindShortName
// does not use it; its fallback resolves a function through Lookup.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	return names
}
