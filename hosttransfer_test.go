package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHostTransferBeginReadEndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dropped.txt")
	content := []byte("dropped file contents")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("seeding dropped file: %v", err)
	}

	xfer := NewHostTransfer()
	xfer.Offer(path)

	ram := make([]uint32, 64)
	ram[0] = 0 // begin
	ram[3] = 40 * 4
	xfer.Write(0, ram)

	if ram[1] != 1 {
		t.Fatalf("begin reported failure (ram[1]=%d), want success (1)", ram[1])
	}
	if ram[2] != uint32(len(content)) {
		t.Fatalf("reported size = %d, want %d", ram[2], len(content))
	}
	if got := ramReadCString(ram, 40); got != "dropped.txt" {
		t.Fatalf("reported base name = %q, want %q", got, "dropped.txt")
	}

	readRAM := make([]uint32, 64)
	readRAM[0] = 1 // read
	readRAM[1] = 0
	readRAM[2] = uint32(len(content))
	readRAM[3] = 50 * 4
	xfer.Write(0, readRAM)

	got := ramReadBytes(readRAM, 50, len(content))
	if string(got) != string(content) {
		t.Fatalf("read back %q, want %q", got, content)
	}

	endRAM := make([]uint32, 8)
	endRAM[0] = 2 // end
	xfer.Write(0, endRAM)
	if xfer.open != nil {
		t.Fatalf("end should close and clear the open file handle")
	}
}

func TestHostTransferBeginWithNothingQueuedReportsFailure(t *testing.T) {
	xfer := NewHostTransfer()
	ram := make([]uint32, 8)
	ram[0] = 0
	xfer.Write(0, ram)
	if ram[1] != 0 {
		t.Fatalf("begin with an empty queue should report 0, got %d", ram[1])
	}
}

func TestHostTransferDrainsQueueInFIFOOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	os.WriteFile(first, []byte("a"), 0o644)
	os.WriteFile(second, []byte("b"), 0o644)

	xfer := NewHostTransfer()
	xfer.Offer(first)
	xfer.Offer(second)

	ram := make([]uint32, 64)
	ram[0] = 0
	ram[3] = 40 * 4
	xfer.Write(0, ram)
	if name := ramReadCString(ram, 40); name != "a.txt" {
		t.Fatalf("first begin claimed %q, want a.txt", name)
	}

	ram2 := make([]uint32, 64)
	ram2[0] = 0
	ram2[3] = 40 * 4
	xfer.Write(0, ram2)
	if name := ramReadCString(ram2, 40); name != "b.txt" {
		t.Fatalf("second begin claimed %q, want b.txt", name)
	}
}

func TestFileBaseStripsDirectoryComponent(t *testing.T) {
	cases := map[string]string{
		"/tmp/foo/bar.txt":  "bar.txt",
		"bar.txt":           "bar.txt",
		"C:\\tmp\\bar.txt":  "bar.txt",
		"":                  "",
	}
	for in, want := range cases {
		if got := fileBase(in); got != want {
			t.Fatalf("fileBase(%q) = %q, want %q", in, got, want)
		}
	}
}
