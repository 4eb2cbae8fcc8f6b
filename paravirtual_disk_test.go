package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParavirtualWriteRoundTripsAWholeSector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("opening test disk file: %v", err)
	}
	defer f.Close()

	disk := NewDisk(f)
	pv := NewParavirtualDisk(disk)

	ram := make([]uint32, 256)
	const block = 16
	ram[block] = 3     // sector number
	ram[block+1] = 1   // direction: write
	for i := 0; i < 128; i++ {
		ram[block+2+uint32(i)] = uint32(i)*7 + 1
	}
	pv.ParavirtualWrite(block, ram)

	readRAM := make([]uint32, 256)
	readRAM[block] = 3
	readRAM[block+1] = 0 // direction: read
	pv.ParavirtualWrite(block, readRAM)

	for i := 0; i < 128; i++ {
		want := uint32(i)*7 + 1
		if got := readRAM[block+2+uint32(i)]; got != want {
			t.Fatalf("word %d = %d, want %d", i, got, want)
		}
	}
}

func TestParavirtualWriteIgnoresOutOfRangeControlBlock(t *testing.T) {
	disk := NewDisk(nil)
	pv := NewParavirtualDisk(disk)
	ram := make([]uint32, 8) // too small to hold a 130-word control block

	// Must not panic even though the control block doesn't fit.
	pv.ParavirtualWrite(0, ram)
}
