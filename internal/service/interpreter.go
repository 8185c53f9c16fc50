// Package service is the host-facing API around the compile/parser/vm
// pipeline: the surface both cmd/mscript and internal/repl drive rather
// than touching internal/vm directly, grounded on the way the teacher's
// internal/repl.Start wires lexer→parser→evaluator behind one call
// (spec.md §6, "Host API").
package service

import (
	"time"

	"github.com/pkg/errors"

	"mscript/internal/ir"
	"mscript/internal/object"
	"mscript/internal/parser"
	"mscript/internal/util"
	"mscript/internal/vm"
)

// Interpreter owns one Machine plus the configuration governing how it
// is driven — the compiled-in defaults of spec.md §6 unless overridden
// by an mscript.toml the caller loaded via util.LoadConfig.
type Interpreter struct {
	Config util.Configuration

	source  string
	machine *vm.Machine
}

// New builds an Interpreter around cfg with no program compiled yet;
// Compile or Reset must run before Step/RunUntilDone.
func New(cfg util.Configuration) *Interpreter {
	return &Interpreter{Config: cfg}
}

// Compile parses src and installs it as a fresh program, discarding any
// previous machine state — spec.md §6's "compile()".
func (in *Interpreter) Compile(src string) error {
	code, err := parser.Parse(src)
	if err != nil {
		return err
	}
	in.source = src
	in.machine = vm.New(code)
	if in.Config.RandomSeed != 0 {
		in.machine.SetSeed(in.Config.RandomSeed)
	}
	return nil
}

// timeLimit resolves the configured slice length, defaulting to
// spec.md §6's "time_limit=60" (given in seconds) when unset.
func (in *Interpreter) timeLimit() time.Duration {
	ms := in.Config.TimeLimitMS
	if ms == 0 {
		ms = 60_000
	}
	return time.Duration(ms) * time.Millisecond
}

// RunUntilDone drives the machine to completion or the configured time
// slice, per spec.md §6's "run_until_done()".
func (in *Interpreter) RunUntilDone() (done bool, err error) {
	if in.machine == nil {
		return true, errors.New("no program compiled")
	}
	return in.machine.RunUntilDone(in.timeLimit(), false)
}

// Step executes exactly one TAC line, per spec.md §6's "step()".
func (in *Interpreter) Step() error {
	if in.machine == nil {
		return errors.New("no program compiled")
	}
	return in.machine.Step()
}

// Restart re-runs the currently compiled program from scratch.
func (in *Interpreter) Restart() error {
	if in.machine == nil {
		return errors.New("no program compiled")
	}
	return in.Compile(in.source)
}

// Stop halts the running program; the next Step/RunUntilDone returns
// immediately, per spec.md §6's "stop()".
func (in *Interpreter) Stop() {
	if in.machine != nil {
		in.machine.Stop()
	}
}

// Reset recompiles newSource into the same Interpreter, per spec.md
// §6's "reset(new_source)".
func (in *Interpreter) Reset(newSource string) error {
	return in.Compile(newSource)
}

// Done reports whether the compiled program has finished running.
func (in *Interpreter) Done() bool {
	return in.machine == nil || in.machine.Done()
}

// LastError returns the error, if any, that stopped the machine.
func (in *Interpreter) LastError() error {
	if in.machine == nil {
		return nil
	}
	return in.machine.LastError()
}

// GetGlobalValue looks up a root-scope variable by name, per spec.md
// §6's "get_global_value(name)".
func (in *Interpreter) GetGlobalValue(name string) (object.Value, bool) {
	if in.machine == nil {
		return nil, false
	}
	return in.machine.Root().Variables.GetStr(name)
}

// SetGlobalValue installs a root-scope variable, per spec.md §6's
// "set_global_value(name, value)" — used by an embedder to pass data
// into a script before running it.
func (in *Interpreter) SetGlobalValue(name string, val object.Value) {
	if in.machine == nil {
		return
	}
	in.machine.Root().Variables.Set(object.NewString(name), val)
}

// SetReplMode toggles whether a bare expression statement's value gets
// echoed, per spec.md §6's REPL contract.
func (in *Interpreter) SetReplMode(v bool) {
	if in.machine != nil {
		in.machine.SetReplMode(v)
	}
}

// Machine exposes the underlying vm.Machine for callers that need finer
// control than compile/run/step. The REPL does not use it; it goes
// through SetReplMode and AppendCode.
func (in *Interpreter) Machine() *vm.Machine { return in.machine }

// AppendCode extends the running root context's code with newLines,
// letting the REPL feed one parsed statement at a time into a program
// that is already mid-execution, per spec.md §6's "repl(line, ...)".
// newLines was compiled standalone, so its jump targets are 0-based
// against its own start; rebase rewrites them to the offset they land
// at once appended.
func (in *Interpreter) AppendCode(newLines []ir.Line) {
	root := in.machine.Root()
	offset := len(root.Code)
	root.Code = append(root.Code, rebaseJumps(newLines, offset)...)
}

var jumpOps = map[ir.Op]bool{
	ir.GotoA:         true,
	ir.GotoAifB:      true,
	ir.GotoAifTrulyB: true,
	ir.GotoAifNotB:   true,
}

func rebaseJumps(lines []ir.Line, offset int) []ir.Line {
	if offset == 0 {
		return lines
	}
	out := make([]ir.Line, len(lines))
	for i, l := range lines {
		if jumpOps[l.Op] {
			if target, ok := l.A.(int); ok {
				l.A = target + offset
			}
		}
		out[i] = l
	}
	return out
}
