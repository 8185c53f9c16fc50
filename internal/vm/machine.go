package vm

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"mscript/internal/intrinsics"
	"mscript/internal/ir"
	"mscript/internal/object"
	"mscript/internal/util"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// versionMap builds the map the "version" intrinsic returns (spec.md
// §6), lazily, so a failure to decode the embedded blob doesn't
// prevent building a Machine.
func versionMap() *object.Map {
	m := object.NewMap()
	info, err := util.LoadVersionInfo()
	if err != nil {
		m.RawSet(object.NewString("miniscript"), object.NewString("mscript"))
		return m
	}
	m.RawSet(object.NewString("miniscript"), object.NewString(info.Name))
	m.RawSet(object.NewString("buildDate"), object.NewString(info.BuildDate))
	m.RawSet(object.NewString("host"), object.NewString(info.Host))
	m.RawSet(object.NewString("hostName"), object.NewString(info.Host))
	m.RawSet(object.NewString("hostInfo"), object.NewString(info.HostInfo))
	return m
}

// Machine owns the call-frame stack (spec.md §4.5): the currently
// running program's root context at the bottom, pushed deeper by every
// function call, and popped on return. It also carries the handful of
// host capabilities (output, time, randomness, cooperative yield) that
// intrinsics reach through the Host interface.
type Machine struct {
	stack   []*Context
	out     io.Writer
	log     *log.Logger
	rng     *rand.Rand
	yield    bool
	stopped  bool
	lastErr  error
	replMode bool
}

// SetReplMode toggles whether a bare expression statement's implicit
// result is echoed to output (spec.md §4.5/§6's REPL contract) — a
// script run non-interactively still assigns the result to "_", it
// just doesn't print it.
func (m *Machine) SetReplMode(v bool) { m.replMode = v }

// New builds a Machine ready to run code as its root context.
func New(code []ir.Line) *Machine {
	m := &Machine{
		out: os.Stdout,
		log: log.StandardLogger(),
		rng: rand.New(rand.NewSource(1)),
	}
	root := NewRootContext(m, code)
	m.stack = []*Context{root}
	return m
}

// SetOutput redirects Print/ImplicitOutput, letting a REPL or test
// harness capture program output instead of writing to stdout.
func (m *Machine) SetOutput(w io.Writer) { m.out = w }

// SetSeed reseeds the machine's private random stream, used by the
// "shuffle"/"rnd" intrinsics, so tests can be deterministic.
func (m *Machine) SetSeed(seed int64) { m.rng = rand.New(rand.NewSource(seed)) }

func (m *Machine) Root() *Context { return m.stack[0] }

func (m *Machine) Current() *Context { return m.stack[len(m.stack)-1] }

func (m *Machine) Depth() int { return len(m.stack) }

func (m *Machine) push(c *Context) { m.stack = append(m.stack, c) }

func (m *Machine) pop() *Context {
	n := len(m.stack)
	top := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return top
}

// Reset replaces the root context's code, discarding the whole call
// stack, so a host can start new code without a new Machine (spec.md
// §4.5). The service layer's Reset does not use it: it compiles a new
// Machine.
func (m *Machine) Reset(code []ir.Line) {
	root := NewRootContext(m, code)
	m.stack = []*Context{root}
	m.stopped = false
	m.lastErr = nil
}

// Stop marks the machine done; the next Step/RunUntilDone call returns
// immediately.
func (m *Machine) Stop() { m.stopped = true }

func (m *Machine) Stopped() bool { return m.stopped }

func (m *Machine) LastError() error { return m.lastErr }

// Done reports whether the root context has run off the end of its
// code with no pending calls, i.e. the whole program has finished.
func (m *Machine) Done() bool {
	return m.stopped || (len(m.stack) == 1 && m.Root().done())
}

// Step executes exactly one TAC line in the current top frame,
// following spec.md §4.5's "step" contract: a single opcode dispatch,
// with function calls/returns adjusting the stack as a side effect.
func (m *Machine) Step() error {
	if m.Done() {
		return nil
	}
	c := m.Current()

	if c.done() {
		if c.Parent == nil {
			// Root context finished; Done() will notice on the next check.
			return nil
		}
		if err := m.returnFromContext(c, c.GetTemp(0)); err != nil {
			m.lastErr = err
			m.stopped = true
			return err
		}
		return nil
	}

	if c.Intrinsic != nil {
		return m.resumeIntrinsic(c)
	}

	line := c.Code[c.PC]
	c.PC++
	if err := m.evaluate(c, line); err != nil {
		m.lastErr = err
		m.stopped = true
		return err
	}
	return nil
}

// RunUntilDone repeatedly steps until the program finishes, the
// deadline (if nonzero) elapses, or returnEarly's yield request fires
// — the cooperative time-slicing contract of spec.md §4.5, letting a
// host embed the machine inside a larger event loop without a
// dedicated goroutine per script.
func (m *Machine) RunUntilDone(timeLimit time.Duration, returnEarly bool) (done bool, err error) {
	m.yield = false
	var deadline time.Time
	hasDeadline := timeLimit > 0
	if hasDeadline {
		deadline = time.Now().Add(timeLimit)
	}
	steps := 0
	for !m.Done() {
		if err := m.Step(); err != nil {
			return true, err
		}
		steps++
		if returnEarly && (m.yield || m.Current().PartialResult != nil) {
			return false, nil
		}
		if hasDeadline && steps%256 == 0 && time.Now().After(deadline) {
			return false, nil
		}
	}
	return true, nil
}

// ManuallyPushCall lets host code (the REPL's implicit-result wrapper,
// or an embedder calling into a script function directly) invoke an
// mscript function without going through CallFunctionA, per spec.md
// §4.5's "manually pushing a call" note. There is no receiver in play
// here, so self stays null and no "super" binding is made.
func (m *Machine) ManuallyPushCall(fv *object.FunctionValue, args []object.Value) (object.Value, error) {
	return m.manuallyPushCall(fv, args, object.NullValue, object.NullValue, false)
}

// manuallyPushCall is ManuallyPushCall's general form: it also threads a
// receiver (self) and, when hasSuper is set, binds "super" as an
// ordinary local on the new call — the same self/super pair a
// CallFunctionA dispatch would bind, so the "fully evaluate a bareword
// method reference" auto-invoke (spec.md §4.2) behaves identically to
// an explicit parenthesized call.
func (m *Machine) manuallyPushCall(fv *object.FunctionValue, args []object.Value, self object.Value, superVal object.Value, hasSuper bool) (object.Value, error) {
	if in, ok := intrinsics.Global().Lookup(fv.Fn); ok {
		frame := &nativeFrame{args: bindIntrinsicArgs(in.Params, args, self), self: self, host: m}
		res := in.Fn(frame, nil)
		if res.Done {
			return res.Value, nil
		}
		for !res.Done {
			res = in.Fn(frame, res.State)
		}
		return res.Value, nil
	}
	child := m.newCall(fv, args, self, nil, m.Current())
	if hasSuper {
		child.Variables.Set(object.NewString("super"), superVal)
	}
	base := len(m.stack)
	m.push(child)
	for len(m.stack) > base && !m.stopped {
		if err := m.Step(); err != nil {
			return nil, err
		}
	}
	return child.GetTemp(0), nil
}

// newCall builds the child Context for one function invocation,
// binding positional args to Params by name with defaults for anything
// omitted, per spec.md §4.2 ("Function-call argument binding").
func (m *Machine) newCall(fv *object.FunctionValue, args []object.Value, self object.Value, resultStorage any, parent *Context) *Context {
	c := &Context{
		Code:          fv.Fn.Code,
		Machine:       m,
		Variables:     object.NewMap(),
		OuterVars:     fv.Outer,
		SelfVal:       self,
		Parent:        parent,
		ResultStorage: resultStorage,
		temps:         make(map[int]object.Value),
	}
	bound := bindArgs(fv.Fn.Params, args)
	for _, p := range fv.Fn.Params {
		c.Variables.Set(object.NewString(p.Name), bound[p.Name])
	}
	return c
}

// bindArgs positionally binds args to params for an ordinary
// script-defined function, filling any params past len(args) from
// their Default, or object.NullValue if the parameter has none, per
// spec.md §4.2.
func bindArgs(params []object.Param, args []object.Value) map[string]object.Value {
	bound := make(map[string]object.Value, len(params))
	for i, p := range params {
		switch {
		case i < len(args):
			bound[p.Name] = args[i]
		case p.Default != nil:
			bound[p.Name] = p.Default
		default:
			bound[p.Name] = object.NullValue
		}
	}
	return bound
}

// bindIntrinsicArgs is bindArgs's counterpart for native intrinsics: a
// parameter with no default that was not supplied binds to a literal Go
// nil rather than object.NullValue, so an intrinsic can distinguish
// "explicitly passed null" from "omitted" (used by e.g. "range"'s
// optional step and "indexOf"'s optional after). When the call has a
// receiver (self is not null) and the first parameter is named "self",
// the receiver fills that parameter and args bind to the rest, per the
// builtins.go self-first binding convention.
func bindIntrinsicArgs(params []object.Param, args []object.Value, self object.Value) map[string]object.Value {
	if _, isNull := self.(object.Null); self != nil && !isNull && len(params) > 0 && params[0].Name == "self" {
		args = append([]object.Value{self}, args...)
	}
	bound := make(map[string]object.Value, len(params))
	for i, p := range params {
		switch {
		case i < len(args):
			bound[p.Name] = args[i]
		case p.Default != nil:
			bound[p.Name] = p.Default
		default:
			bound[p.Name] = nil
		}
	}
	return bound
}

// returnFromContext pops c, storing result into its ResultStorage
// lvalue in c.Parent (the calling line's Dest when the call came from
// CallFunctionA/CallIntrinsicA), per spec.md §4.2/§4.4.
func (m *Machine) returnFromContext(c *Context, result object.Value) error {
	m.pop()
	if c.Parent == nil {
		return nil
	}
	return storeInto(c.Parent, c.ResultStorage, result)
}

// pushIntrinsicCall installs a lightweight, code-less Context for a
// native call so it participates in the ordinary Step/RunUntilDone
// loop — including the time-slicing and partial-result rewind of
// spec.md §4.5's "yield"/"wait" contract — exactly like a script call.
func (m *Machine) pushIntrinsicCall(in *intrinsics.Intrinsic, args []object.Value, self object.Value, resultStorage any, parent *Context) *Context {
	c := &Context{
		Machine:       m,
		Variables:     object.NewMap(),
		SelfVal:       self,
		Parent:        parent,
		ResultStorage: resultStorage,
		Intrinsic:     in,
		temps:         make(map[int]object.Value),
	}
	bound := bindIntrinsicArgs(in.Params, args, self)
	for _, p := range in.Params {
		c.Variables.Set(object.NewString(p.Name), bound[p.Name])
	}
	return c
}

// resumeIntrinsic re-invokes an in-flight partial-result intrinsic
// (spec.md §4.5, "yield"/"wait"'s pending-state protocol): the
// intrinsic's own code-less Context stays on top of the stack, and each
// Step calls it again with the stored PartialResult until it reports
// done, then pops it and stores the value into the caller.
func (m *Machine) resumeIntrinsic(c *Context) error {
	frame := &nativeFrame{args: currentArgs(c), self: c.SelfVal, host: m}
	res := c.Intrinsic.Fn(frame, c.PartialResult)
	if !res.Done {
		c.PartialResult = res.State
		return nil
	}
	c.Intrinsic = nil
	c.PartialResult = nil
	return m.returnFromContext(c, res.Value)
}

func currentArgs(c *Context) map[string]object.Value {
	args := make(map[string]object.Value, c.Variables.Len())
	for _, k := range c.Variables.Keys() {
		if s, ok := k.(*object.String); ok {
			v, _ := c.Variables.GetStr(s.Value)
			args[s.Value] = v
		}
	}
	return args
}

// FindShortName searches the whole live call stack, then the global
// intrinsic table, for a variable currently bound to v, used by error
// messages that want to name a function by its call-site identifier
// rather than print "FUNCTION" (spec.md §4.5).
func (m *Machine) FindShortName(v object.Value) string {
	for i := len(m.stack) - 1; i >= 0; i-- {
		c := m.stack[i]
		for _, k := range c.Variables.Keys() {
			s, ok := k.(*object.String)
			if !ok {
				continue
			}
			val, _ := c.Variables.GetStr(s.Value)
			if object.Equal(val, v, 1) == 1 {
				return s.Value
			}
		}
	}
	if fv, ok := v.(*object.FunctionValue); ok {
		if in, ok := intrinsics.Global().Lookup(fv.Fn); ok {
			return in.Name
		}
	}
	return object.CodeForm(v)
}

// --- intrinsics.Host --------------------------------------------------

func (m *Machine) Print(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Machine) ImplicitOutput(v object.Value) {
	fmt.Fprintln(m.out, object.Display(v))
}

func (m *Machine) Now() time.Time { return time.Now() }

func (m *Machine) RequestYield() { m.yield = true }

func (m *Machine) Rand() *rand.Rand { return m.rng }

func (m *Machine) Version() object.Value { return versionMap() }

var _ intrinsics.Host = (*Machine)(nil)

// nativeFrame adapts a bound argument map into the intrinsics.Frame an
// intrinsic's NativeFunc expects, used both for the ordinary
// CallFunctionA-to-intrinsic fast path and for ManuallyPushCall.
type nativeFrame struct {
	args map[string]object.Value
	self object.Value
	host intrinsics.Host
}

func (f *nativeFrame) Param(name string) object.Value { return f.args[name] }
func (f *nativeFrame) Self() object.Value              { return f.self }
func (f *nativeFrame) Host() intrinsics.Host           { return f.host }

var _ intrinsics.Frame = (*nativeFrame)(nil)

// wrapErr adds the errors.Wrap-style context the teacher's kernel used
// for I/O and lookup failures that aren't themselves RuntimeErrors.
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
