// Package monitor implements the interactive command dispatcher: a
// single-letter command set operating on one simulator instance,
// grounded on the teacher's debug_commands.go/debug_monitor.go command
// table and condition syntax, adapted from a multi-CPU GUI debugger to
// a single-CPU terminal REPL over the ST7/ST8 register set A/X/Y/SP/PC/CC.
package monitor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/breakpoint"
	"github.com/tagsim/st7xiss/cpu"
	"github.com/tagsim/st7xiss/decode"
	"github.com/tagsim/st7xiss/runloop"
)

// ScriptRunner runs a Lua automation file against a Monitor. luascript.Engine
// implements it; Monitor only needs the interface to avoid an import cycle
// (luascript imports monitor, not the reverse).
type ScriptRunner interface {
	RunFile(path string) error
}

// Command is a parsed input line: a lowercased verb and its arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a verb and its arguments.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}
	}
	parts := strings.Fields(input)
	return Command{Name: strings.ToLower(parts[0]), Args: parts[1:]}
}

// ParseAddress parses a monitor address literal: $hex, 0xhex, bare hex,
// or #decimal.
func ParseAddress(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, false
	case strings.HasPrefix(s, "#"):
		v, err := strconv.ParseUint(s[1:], 10, 32)
		return uint32(v), err == nil
	case strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 32)
		return uint32(v), err == nil
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err == nil
	default:
		v, err := strconv.ParseUint(s, 16, 32)
		return uint32(v), err == nil
	}
}

// EvalAddress evaluates "<term> [+|- <term>]*", where a term is either a
// register name (A/X/Y/SP/PC/CC) or ParseAddress literal.
func EvalAddress(expr string, regs *cpu.Cpu) (uint32, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	type token struct {
		text string
		op   byte
	}
	var tokens []token
	var cur strings.Builder
	curOp := byte(0)
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if (ch == '+' || ch == '-') && i > 0 {
			if t := strings.TrimSpace(cur.String()); t != "" {
				tokens = append(tokens, token{text: t, op: curOp})
			}
			curOp = ch
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	if t := strings.TrimSpace(cur.String()); t != "" {
		tokens = append(tokens, token{text: t, op: curOp})
	}
	if len(tokens) == 0 {
		return 0, false
	}

	var result uint32
	for _, t := range tokens {
		var val uint64
		var ok bool
		if regs != nil {
			val, ok = regs.GetRegister(strings.ToUpper(t.text))
		}
		if !ok {
			var v uint32
			v, ok = ParseAddress(t.text)
			val = uint64(v)
		}
		if !ok {
			return 0, false
		}
		switch t.op {
		case 0, '+':
			result += uint32(val)
		case '-':
			result -= uint32(val)
		}
	}
	return result, true
}

// Monitor is the single-CPU REPL state: the live simulator components it
// drives, a scrollback buffer, command history, and the macro table.
type Monitor struct {
	Cpu    *cpu.Cpu
	Space  *addr.Space
	Access *addr.Access
	Exec   *decode.Executor
	RL     *runloop.RunLoop
	BP     *breakpoint.Engine

	Out       io.Writer
	BaseDir   string
	Interrupt func() bool // polled by g/u; nil means never interrupted

	Scripts ScriptRunner

	history    []string
	macros     map[string][]string
	macroDepth int
	traceOn    bool
	prevRegs   map[string]uint64

	tempBreak   bool
	tempBreakPC uint32
}

// New wires a Monitor over an already-constructed simulator instance.
func New(c *cpu.Cpu, space *addr.Space, ac *addr.Access, ex *decode.Executor, rl *runloop.RunLoop, bp *breakpoint.Engine, out io.Writer) *Monitor {
	m := &Monitor{
		Cpu: c, Space: space, Access: ac, Exec: ex, RL: rl, BP: bp,
		Out: out, macros: make(map[string][]string), prevRegs: make(map[string]uint64),
	}
	inner := ex.OnExecuted
	ex.OnExecuted = func(prefix decode.Prefix, opcode byte) {
		if inner != nil {
			inner(prefix, opcode)
		}
		if m.traceOn {
			m.printTrace(prefix, opcode)
		}
	}
	return m
}

func (m *Monitor) printf(format string, a ...any) {
	fmt.Fprintf(m.Out, format+"\n", a...)
}

// Dispatch executes one input line. It reports true when the monitor
// should exit its REPL loop, which only the "x" command does; "g" and
// "u" run the simulator inside Dispatch and report false.
func (m *Monitor) Dispatch(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}
	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
	}

	switch cmd.Name {
	case "r":
		return m.cmdRegisters(cmd)
	case "d":
		return m.cmdDisassemble(cmd)
	case "m":
		return m.cmdMemory(cmd)
	case "s":
		return m.cmdStep(cmd)
	case "g":
		return m.cmdGo(cmd)
	case "u":
		return m.cmdUntil(cmd)
	case "b":
		return m.cmdBreakSet(cmd)
	case "bc":
		return m.cmdBreakClear(cmd)
	case "bl":
		return m.cmdBreakList(cmd)
	case "ww":
		return m.cmdWatchSet(cmd)
	case "wc":
		return m.cmdWatchClear(cmd)
	case "wl":
		return m.cmdWatchList(cmd)
	case "ss":
		return m.cmdSnapshotSave(cmd)
	case "sl":
		return m.cmdSnapshotLoad(cmd)
	case "io":
		return m.cmdIO(cmd)
	case "e":
		return m.cmdEdit(cmd)
	case "trace":
		return m.cmdTrace(cmd)
	case "script":
		return m.cmdScript(cmd)
	case "macro":
		return m.cmdMacro(cmd)
	case "cpu":
		return m.cmdCPU(cmd)
	case "ph":
		return m.cmdProtocolAuth(cmd)
	case "x":
		return true
	case "?", "help":
		return m.cmdHelp(cmd)
	default:
		if cmds, ok := m.macros[cmd.Name]; ok {
			return m.runMacro(cmds)
		}
		m.printf("unknown command: %s", cmd.Name)
		return false
	}
}

func (m *Monitor) runMacro(cmds []string) bool {
	m.macroDepth++
	defer func() { m.macroDepth-- }()
	if m.macroDepth > 8 {
		m.printf("macro recursion limit reached")
		return false
	}
	for _, c := range cmds {
		if m.Dispatch(c) {
			return true
		}
	}
	return false
}

// saveCurrentRegs snapshots A/X/Y/SP/PC/CC for the next "r"/"s" diff
// highlight.
func (m *Monitor) saveCurrentRegs() {
	for _, name := range []string{"A", "X", "Y", "SP", "PC", "CC"} {
		if v, ok := m.Cpu.GetRegister(name); ok {
			m.prevRegs[name] = v
		}
	}
}
