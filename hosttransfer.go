// hosttransfer.go - the host drag-and-drop transfer bridge.

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
hosttransfer.go is HostFS's sibling at regHostFS (MMIO offset 32):
original_source/src/disk.h declares host_transfer_new() alongside
disk_new/host_fs_new, and risc.c's regHostFS write dispatches to both
whichever is installed. Where HostFS answers guest-driven directory
queries, HostTransfer answers host-driven drops: a video backend (the
ebiten window accepting an OS drag-and-drop) queues a host path, and
the guest later drains it through the same ram[offset]-selects-op
dispatch shape as HostFS, using the same ramReadCString/ramWriteBytes
helpers from ramio.go.
*/
package main

import (
	"os"
)

// HostTransfer answers guest requests to claim and read back a file
// the host has queued (typically via a drag-and-drop onto the video
// window). Only one transfer is ever in flight at a time; queued paths
// beyond the first wait in FIFO order.
type HostTransfer struct {
	pending []string

	open     *os.File
	openSize int64
}

// NewHostTransfer returns an empty bridge; paths are queued with Offer.
func NewHostTransfer() *HostTransfer {
	return &HostTransfer{}
}

// Offer queues a host file path for the guest to claim. Called from
// the video backend's drop handler, never from guest-triggered code.
func (h *HostTransfer) Offer(path string) {
	h.pending = append(h.pending, path)
}

// Write dispatches one host-transfer operation, reusing regHostFS's
// ram[offset]-selects-op convention.
func (h *HostTransfer) Write(value uint32, ram []uint32) {
	offset := value / 4
	switch ram[offset] {
	case 0: // Begin: claim the oldest queued path, if any.
		h.begin(ram, offset)
	case 1: // Read: copy a byte range of the open file into RAM.
		h.read(ram, offset)
	case 2: // End: close the open file and drop it.
		h.end()
	}
}

func (h *HostTransfer) begin(ram []uint32, offset uint32) {
	if h.open != nil {
		h.open.Close()
		h.open = nil
	}
	if len(h.pending) == 0 {
		ram[offset+1] = 0
		return
	}
	path := h.pending[0]
	h.pending = h.pending[1:]

	f, err := os.Open(path)
	if err != nil {
		ram[offset+1] = 0
		return
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		ram[offset+1] = 0
		return
	}
	h.open = f
	h.openSize = info.Size()
	ram[offset+1] = 1
	ram[offset+2] = uint32(h.openSize)
	nameAddr := ram[offset+3] / 4
	ramWriteCString(ram, nameAddr, fileBase(path))
}

func (h *HostTransfer) read(ram []uint32, offset uint32) {
	if h.open == nil {
		return
	}
	pos := ram[offset+1]
	length := ram[offset+2]
	dest := ram[offset+3] / 4
	buf := make([]byte, length)
	n, _ := h.open.ReadAt(buf, int64(pos))
	ramWriteBytes(ram, dest, buf[:n])
}

func (h *HostTransfer) end() {
	if h.open != nil {
		h.open.Close()
		h.open = nil
	}
}

func fileBase(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
