package main

import "testing"

func TestBootloaderStubFitsInROM(t *testing.T) {
	if len(bootloader) != romWords {
		t.Fatalf("bootloader has %d words, want %d", len(bootloader), romWords)
	}
}

func TestBootloaderStubBranchesBackOnItself(t *testing.T) {
	// rom[4] must be an unconditional branch (p=1, q=1, condition 7
	// "always", not inverted) back to the load in rom[3], matching the
	// spin-loop shape described in rom.go's header comment.
	const branchOpMask = 0xCF000000
	const branchAlways = 0xC7000000
	if bootloader[4]&branchOpMask != branchAlways {
		t.Fatalf("rom[4] = 0x%08X, expected top bits to mark an unconditional branch", bootloader[4])
	}
	if off := bootloader[4] & 0x00FFFFFF; off != 0x00FFFFFE {
		t.Fatalf("rom[4] offset = 0x%06X, want 0xFFFFFE (-2, back to rom[3])", off)
	}
}
