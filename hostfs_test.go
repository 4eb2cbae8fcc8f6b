package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestHostFS(t *testing.T) (*HostFS, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("seeding test file: %v", err)
	}
	h, err := NewHostFS(dir)
	if err != nil {
		t.Fatalf("NewHostFS: %v", err)
	}
	return h, dir
}

func TestSearchFileAllocatesSectorForExistingFile(t *testing.T) {
	h, _ := newTestHostFS(t)
	ram := make([]uint32, 64)
	ramWriteCString(ram, 2, "hello.txt")

	ram[0] = 0 // FileDir.Search
	h.Write(0, ram)

	if ram[1] != hostfsSectorMagic+1 {
		t.Fatalf("sector = %d, want %d (first allocation; slot 0 is reserved)", ram[1], hostfsSectorMagic+1)
	}

	// Searching again must return the same sector, not allocate a new one.
	ram2 := make([]uint32, 64)
	ramWriteCString(ram2, 2, "hello.txt")
	ram2[0] = 0
	h.Write(0, ram2)
	if ram2[1] != ram[1] {
		t.Fatalf("repeated search returned a different sector: %d vs %d", ram2[1], ram[1])
	}
}

func TestSearchFileRejectsNonexistentFile(t *testing.T) {
	h, _ := newTestHostFS(t)
	ram := make([]uint32, 64)
	ramWriteCString(ram, 2, "does-not-exist.txt")
	ram[0] = 0
	h.Write(0, ram)
	if ram[1] != 0 {
		t.Fatalf("sector for a nonexistent file = %d, want 0", ram[1])
	}
}

func TestEnumerateListsFilesAndSkipsTombstonesAndDotfiles(t *testing.T) {
	h, dir := newTestHostFS(t)
	os.WriteFile(filepath.Join(dir, "second.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "~Del~old_ABC"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644)

	seen := map[string]bool{}
	ram := make([]uint32, 64)
	ram[0] = 1 // FileDir.Enumerate Start
	ramWriteCString(ram, 2, "")
	for {
		h.Write(0, ram)
		if ram[1] == 0 {
			break
		}
		name := ramReadCString(ram, 2)
		seen[name] = true
		ram[0] = 2 // FileDir.Enumerate Next
	}

	if !seen["hello.txt"] || !seen["second.txt"] {
		t.Fatalf("expected both real files enumerated, got %v", seen)
	}
	for name := range seen {
		if strings.HasPrefix(name, "~") || strings.HasPrefix(name, ".") {
			t.Fatalf("enumerate surfaced a tombstone/dotfile entry: %q", name)
		}
	}
}

func TestDeleteTombstonesFileAndAllocatesOffTheSameSector(t *testing.T) {
	h, dir := newTestHostFS(t)
	ram := make([]uint32, 64)
	ramWriteCString(ram, 2, "hello.txt")
	ram[0] = 0
	h.Write(0, ram) // allocate sector for hello.txt
	sector := ram[1]

	delRAM := make([]uint32, 64)
	ramWriteCString(delRAM, 2, "hello.txt")
	delRAM[0] = 5 // FileDir.Delete
	h.Write(0, delRAM)

	if delRAM[1] != sector {
		t.Fatalf("delete reported sector %d, want the original sector %d", delRAM[1], sector)
	}
	idx := sector - hostfsSectorMagic
	if h.allocatedNames[idx] != "~Del" {
		t.Fatalf("allocatedNames[%d] = %q, want tombstone marker ~Del", idx, h.allocatedNames[idx])
	}
	if _, err := os.Stat(filepath.Join(dir, "hello.txt")); err == nil {
		t.Fatalf("hello.txt should no longer exist under its original name after delete")
	}
	if _, err := os.Stat(h.allocatedFullNames[idx]); err != nil {
		t.Fatalf("tombstone file %q should exist on disk: %v", h.allocatedFullNames[idx], err)
	}
}

func TestCreateLeavesTheAllocatedFileOnDisk(t *testing.T) {
	h, _ := newTestHostFS(t)
	ram := make([]uint32, 64)
	ramWriteCString(ram, 2, "newfile")
	ram[0] = 6 // Files.New
	h.Write(0, ram)

	sector := ram[1]
	if sector == 0 {
		t.Fatalf("Files.New returned sector 0 (allocation failed)")
	}
	idx := sector - hostfsSectorMagic
	if _, err := os.Stat(h.allocatedFullNames[idx]); err != nil {
		t.Fatalf("Files.New's allocated file should exist on disk: %v", err)
	}
	if !strings.Contains(filepath.Base(h.allocatedFullNames[idx]), "newfile") {
		t.Fatalf("allocated file name %q doesn't reflect the requested base name", h.allocatedFullNames[idx])
	}
}

func TestWriteBufThenReadBufRoundTrip(t *testing.T) {
	h, _ := newTestHostFS(t)
	searchRAM := make([]uint32, 64)
	ramWriteCString(searchRAM, 2, "hello.txt")
	searchRAM[0] = 0
	h.Write(0, searchRAM)
	sector := searchRAM[1]

	payload := []byte("round trip payload")
	ram := make([]uint32, 64)
	ram[0] = 8 // Files.WriteBuf
	ram[1] = sector
	ram[2] = 0 // offset
	ram[3] = uint32(len(payload))
	ram[4] = 40 * 4 // byte address of the source buffer (word 40)
	ramWriteBytes(ram, 40, payload)
	h.Write(0, ram)

	readRAM := make([]uint32, 64)
	readRAM[0] = 7 // Files.ReadBuf
	readRAM[1] = sector
	readRAM[2] = 0
	readRAM[3] = uint32(len(payload))
	readRAM[4] = 50 * 4
	h.Write(0, readRAM)

	got := ramReadBytes(readRAM, 50, len(payload))
	if string(got) != string(payload) {
		t.Fatalf("read back %q, want %q", got, payload)
	}
}
