// clipboard_host.go - host clipboard backend for the Clipboard peripheral.

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
clipboard_host.go bridges the guest's clipboard control/data MMIO pair
(regClipboardControl/regClipboardData) to the host system clipboard via
golang.design/x/clipboard, ported from the teacher's
handleClipboardPaste (video_backend_ebiten.go): lazily clipboard.Init(),
then clipboard.Read/clipboard.Write on FmtText.

Protocol (this core's own design, since the reference's vClp tag in
original_source/src/risc.c only documents the two MMIO addresses, not a
wire protocol): writing 1 to control requests a paste — the next data
reads drain the host clipboard text one byte at a time, with control
bit 0 indicating more bytes remain. Writing 2 to control begins a copy
capture; each data write appends one byte; writing 0 to control flushes
the captured bytes to the host clipboard.
*/
package main

import (
	"sync"

	"golang.design/x/clipboard"
)

const (
	clipCtrlIdle  = 0
	clipCtrlPaste = 1
	clipCtrlCopy  = 2
)

// HostClipboard is a Clipboard backend over the host system clipboard.
type HostClipboard struct {
	mu sync.Mutex

	initOnce sync.Once
	ok       bool

	mode     uint32
	pasteBuf []byte
	pasteIdx int
	copyBuf  []byte
}

// NewHostClipboard returns a clipboard backend; the underlying
// clipboard.Init() call is deferred to first use since it requires a
// live display connection that may not exist yet at construction time.
func NewHostClipboard() *HostClipboard {
	return &HostClipboard{}
}

func (c *HostClipboard) ensureInit() bool {
	c.initOnce.Do(func() {
		c.ok = clipboard.Init() == nil
	})
	return c.ok
}

// WriteControl starts a paste or copy session, or (value==0) flushes
// a pending copy to the host clipboard.
func (c *HostClipboard) WriteControl(value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch value {
	case clipCtrlPaste:
		c.mode = clipCtrlPaste
		c.pasteBuf = nil
		c.pasteIdx = 0
		if c.ensureInit() {
			c.pasteBuf = clipboard.Read(clipboard.FmtText)
		}
	case clipCtrlCopy:
		c.mode = clipCtrlCopy
		c.copyBuf = c.copyBuf[:0]
	default:
		if c.mode == clipCtrlCopy && c.ensureInit() {
			clipboard.Write(clipboard.FmtText, c.copyBuf)
		}
		c.mode = clipCtrlIdle
	}
}

// ReadControl reports bit 0 set while a paste still has bytes queued.
func (c *HostClipboard) ReadControl() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == clipCtrlPaste && c.pasteIdx < len(c.pasteBuf) {
		return 1
	}
	return 0
}

// ReadData dequeues the next pasted byte, or 0 once exhausted.
func (c *HostClipboard) ReadData() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != clipCtrlPaste || c.pasteIdx >= len(c.pasteBuf) {
		return 0
	}
	b := c.pasteBuf[c.pasteIdx]
	c.pasteIdx++
	return uint32(b)
}

// WriteData appends one byte to the in-flight copy capture.
func (c *HostClipboard) WriteData(value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == clipCtrlCopy {
		c.copyBuf = append(c.copyBuf, byte(value))
	}
}
