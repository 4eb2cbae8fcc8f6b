// debug_console.go - the debug console MMIO sink, extended with a
// scripted register/memory inspector.

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░

(c) 2024 - 2026 the riscvm project

License: GPLv3 or later
*/

/*
debug_console.go is installed as the Bus's debug-console sink
(Bus.SetDebugSink). Every flushed line (flushed on a 0 byte or when
the 512-byte buffer fills, with CR stored as LF; see writeDebugConsole
in bus.go) is printed verbatim,
exactly as the reference's plain text sink does. Lines beginning with
':' are treated as a command instead and handed to an embedded Lua
state for read-only inspection of CPU/Bus state, using gopher-lua's
standard embedding shape (lua.NewState, L.SetGlobal, L.NewFunction,
L.DoString) - the one first-class home this pack's retrieved
dependency graph has for gopher-lua, which the teacher's go.mod lists
only as an indirect/tooling dependency without using it directly.
*/
package main

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// DebugConsole prints flushed debug-console lines and answers ':'
// prefixed inspector commands against cpu/bus.
type DebugConsole struct {
	cpu *CPU
	bus *Bus
}

// NewDebugConsole returns a sink bound to cpu and bus for introspection.
func NewDebugConsole(cpu *CPU, bus *Bus) *DebugConsole {
	return &DebugConsole{cpu: cpu, bus: bus}
}

// Sink is installed via Bus.SetDebugSink.
func (d *DebugConsole) Sink(line string) {
	if strings.HasPrefix(line, ":") {
		d.runCommand(strings.TrimPrefix(line, ":"))
		return
	}
	fmt.Print(line)
}

func (d *DebugConsole) runCommand(cmd string) {
	L := lua.NewState()
	defer L.Close()

	regs := L.NewTable()
	for i, v := range d.cpu.R {
		L.SetTable(regs, lua.LNumber(i), lua.LNumber(int64(int32(v))))
	}
	L.SetGlobal("R", regs)
	L.SetGlobal("PC", lua.LNumber(d.cpu.PC))
	L.SetGlobal("H", lua.LNumber(int64(int32(d.cpu.H))))

	flags := L.NewTable()
	L.SetField(flags, "Z", lua.LBool(d.cpu.Z))
	L.SetField(flags, "N", lua.LBool(d.cpu.N))
	L.SetField(flags, "C", lua.LBool(d.cpu.C))
	L.SetField(flags, "V", lua.LBool(d.cpu.V))
	L.SetGlobal("flags", flags)

	// The sink runs from inside Bus.StoreWord, which already holds the
	// bus mutex, so mem() reads through the unlocked path.
	L.SetGlobal("mem", L.NewFunction(func(L *lua.LState) int {
		word := L.CheckInt(1)
		L.Push(lua.LNumber(int64(int32(d.bus.loadWordLocked(uint32(word))))))
		return 1
	}))
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.Get(i).String()
		}
		fmt.Println(strings.Join(parts, "\t"))
		return 0
	}))

	if err := L.DoString(cmd); err != nil {
		fmt.Printf("debug console: %v\n", err)
	}
}
