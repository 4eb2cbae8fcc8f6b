// main.go - command-line entry point for the Oberon RISC emulator.

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
main.go wires every peripheral the core knows about onto a Bus and
hands the result to ebiten's game loop, generalizing the teacher's own
os.Args dispatch (main.go's "-ie32"/"-m68k" switch) into a small option
set matching original_source/src/sdl-main.c's getopt_long table
(-disk, -mem, -size, -hostfs, -fullscreen, -zoom, -leds, -serial-in,
-serial-out, -boot-from-serial), without introducing a CLI framework:
none appears anywhere in the teacher's or the retrieved pack's
dependency graphs, so plain os.Args parsing is what this project uses
too.
*/
package main

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
)

type options struct {
	diskPath    string
	hostfsDir   string
	megabytes   int
	width       int
	height      int
	depth       int
	fullscreen  bool
	zoom        int
	leds        bool
	serialIn    string
	serialOut   string
	rawSerial   bool
}

func defaultOptions() options {
	return options{
		megabytes: 1,
		width:     framebufferWidth,
		height:    framebufferHeight,
		depth:     1,
		zoom:      1,
	}
}

func parseArgs(args []string) (options, error) {
	opt := defaultOptions()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("missing value for %s", arg)
			}
			return args[i], nil
		}
		var err error
		switch arg {
		case "-disk":
			opt.diskPath, err = next()
		case "-hostfs":
			opt.hostfsDir, err = next()
		case "-mem":
			var v string
			if v, err = next(); err == nil {
				var n int
				if n, err = fmt.Sscanf(v, "%d", &opt.megabytes); err == nil && n != 1 {
					err = fmt.Errorf("invalid -mem value %q", v)
				}
			}
		case "-size":
			var v string
			if v, err = next(); err == nil {
				var n int
				if n, err = fmt.Sscanf(v, "%dx%dx%d", &opt.width, &opt.height, &opt.depth); err == nil && n != 3 {
					err = fmt.Errorf("invalid -size value %q, want WxHxD", v)
				}
			}
		case "-fullscreen":
			opt.fullscreen = true
		case "-zoom":
			var v string
			if v, err = next(); err == nil {
				var n int
				if n, err = fmt.Sscanf(v, "%d", &opt.zoom); err == nil && n != 1 {
					err = fmt.Errorf("invalid -zoom value %q", v)
				}
			}
		case "-leds":
			opt.leds = true
		case "-serial-in":
			opt.serialIn, err = next()
		case "-serial-out":
			opt.serialOut, err = next()
		case "-boot-from-serial":
			opt.rawSerial = true
		default:
			return opt, fmt.Errorf("unrecognized option %q", arg)
		}
		if err != nil {
			return opt, err
		}
	}
	return opt, nil
}

func main() {
	fmt.Println("riscvm - a software emulator for the Project Oberon RISC workstation")

	opt, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		fmt.Fprintln(os.Stderr, "usage: riscvm [-disk path] [-hostfs dir] [-mem MB] [-size WxHxD] [-fullscreen] [-zoom N] [-leds] [-serial-in path] [-serial-out path] [-boot-from-serial]")
		os.Exit(1)
	}

	bus := NewBus()
	modes := []DisplayMode{{Index: 0, Width: opt.width, Height: opt.height, Depth: opt.depth}}
	bus.ConfigureMemory(opt.megabytes, modes, false)

	if opt.diskPath != "" {
		f, err := os.OpenFile(opt.diskPath, os.O_RDWR, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "can't open disk image %q: %v\n", opt.diskPath, err)
			os.Exit(1)
		}
		defer f.Close()
		disk := NewDisk(f)
		bus.SetSPI(1, NewParavirtualDisk(disk))
	}

	// HostFS and HostTransfer share regHostFS (bus.go's storeIO dispatches
	// a single write to both whenever both are installed), and an empty
	// HostTransfer answers every Begin with "nothing queued" (sector 0),
	// which would overwrite the sector HostFS's own op 0 (Search) just
	// returned, so every lookup would read as "not found".
	// The reference never installs both at once (sdl-main.c has no call
	// site for risc_set_host_transfer), so only install HostTransfer when
	// HostFS isn't in play.
	var xfer *HostTransfer
	if opt.hostfsDir != "" {
		hostfs, err := NewHostFS(opt.hostfsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		bus.SetHostFS(hostfs)
	} else {
		xfer = NewHostTransfer()
		bus.SetHostTransfer(xfer)
	}
	bus.SetClipboard(NewHostClipboard())

	if opt.leds {
		bus.SetLEDs(NewConsoleLEDs())
	}

	var rawSerial *RawSerial
	switch {
	case opt.rawSerial:
		rawSerial = NewRawSerial()
		rawSerial.Start()
		defer rawSerial.Stop()
		bus.SetSerial(rawSerial)
	case opt.serialIn != "" || opt.serialOut != "":
		var in, out *os.File
		if opt.serialIn != "" {
			in, err = os.Open(opt.serialIn)
			if err != nil {
				fmt.Fprintf(os.Stderr, "can't open serial input %q: %v\n", opt.serialIn, err)
				os.Exit(1)
			}
			defer in.Close()
		}
		if opt.serialOut != "" {
			out, err = os.Create(opt.serialOut)
			if err != nil {
				fmt.Fprintf(os.Stderr, "can't open serial output %q: %v\n", opt.serialOut, err)
				os.Exit(1)
			}
			defer out.Close()
		}
		bus.SetSerial(NewFileSerial(in, out))
	}

	cpu := NewCPU()
	bus.SetDebugSink(NewDebugConsole(cpu, bus).Sink)

	driver := NewFrameDriver(cpu, bus, xfer)

	mode, _ := bus.CurrentMode()
	ebiten.SetWindowSize(mode.Width*opt.zoom, mode.Height*opt.zoom)
	ebiten.SetWindowTitle("riscvm")
	ebiten.SetWindowResizable(true)
	if opt.fullscreen {
		ebiten.SetFullscreen(true)
	}

	if err := ebiten.RunGame(driver); err != nil {
		fmt.Fprintf(os.Stderr, "riscvm: %v\n", err)
		os.Exit(1)
	}
}
