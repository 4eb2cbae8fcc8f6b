// serial_host.go - raw-terminal backend for the Serial peripheral.

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
serial_host.go puts the host's stdin/stdout in raw mode and shuttles
bytes between them and the RISC_Serial capability (regSerialData /
regSerialStatus), ported from the teacher's TerminalHost
(terminal_host.go): term.MakeRaw/term.Restore for the raw-mode
dance, syscall.SetNonblock plus an EAGAIN/EWOULDBLOCK poll loop for
non-blocking reads. The read loop's lifecycle (start, cancel, wait
for exit) is managed with golang.org/x/sync/errgroup the way a
goroutine with a single cancellable worker is commonly wired, rather
than a hand-rolled stop-channel/sync.Once pair.
*/
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// RawSerial is a Serial backend that bridges the host terminal (raw
// mode, non-blocking) to the guest's serial port.
type RawSerial struct {
	mu  sync.Mutex
	in  bytes.Buffer
	out *os.File

	fd          int
	oldState    *term.State
	nonblockSet bool

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewRawSerial returns a serial backend bound to stdin/stdout.
func NewRawSerial() *RawSerial {
	return &RawSerial{out: os.Stdout}
}

// Start puts stdin into raw, non-blocking mode and begins reading.
func (s *RawSerial) Start() {
	s.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(s.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial_host: failed to set raw mode: %v\n", err)
		return
	}
	s.oldState = oldState

	if err := syscall.SetNonblock(s.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "serial_host: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(s.fd, s.oldState)
		s.oldState = nil
		return
	}
	s.nonblockSet = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	group, ctx := errgroup.WithContext(ctx)
	s.group = group
	group.Go(func() error { return s.readLoop(ctx) })
}

func (s *RawSerial) readLoop(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := syscall.Read(s.fd, buf)
		if n > 0 {
			s.mu.Lock()
			s.in.WriteByte(buf[0])
			s.mu.Unlock()
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return nil
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Stop restores the terminal to its original mode and stops reading.
func (s *RawSerial) Stop() {
	if s.cancel != nil {
		s.cancel()
		_ = s.group.Wait()
	}
	if s.nonblockSet {
		_ = syscall.SetNonblock(s.fd, false)
		s.nonblockSet = false
	}
	if s.oldState != nil {
		_ = term.Restore(s.fd, s.oldState)
		s.oldState = nil
	}
}

// ReadStatus reports whether a byte is queued, matching the
// reference's RISC_Serial::read_status bit 0 ("read ready").
func (s *RawSerial) ReadStatus() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in.Len() > 0 {
		return 1
	}
	return 0
}

// ReadData dequeues one byte, or 0 if none is waiting.
func (s *RawSerial) ReadData() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.in.ReadByte()
	if err != nil {
		return 0
	}
	return uint32(b)
}

// WriteData writes one byte straight to the host terminal.
func (s *RawSerial) WriteData(value uint32) {
	s.out.Write([]byte{byte(value)})
}
