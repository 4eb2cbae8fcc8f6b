package main

import "testing"

func TestRAMCStringRoundTrip(t *testing.T) {
	ram := make([]uint32, 16)
	ramWriteCString(ram, 2, "hello")
	if got := ramReadCString(ram, 2); got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestRAMCStringStopsAtNUL(t *testing.T) {
	ram := make([]uint32, 4)
	ramWriteCString(ram, 0, "ab")
	// word 1 onward is still zero, so reading should stop at the
	// terminator written by ramWriteCString rather than running past it.
	if got := ramReadCString(ram, 0); got != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}

func TestRAMCStringEmptyString(t *testing.T) {
	ram := make([]uint32, 4)
	ramWriteCString(ram, 1, "")
	if got := ramReadCString(ram, 1); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestRAMCStringWriteTruncatesAtBufferEnd(t *testing.T) {
	ram := make([]uint32, 2)
	// "hello world" needs more words than are available; writing must
	// not panic, it should just stop once it runs off the end of ram.
	ramWriteCString(ram, 0, "hello world")
	if got := ramReadCString(ram, 0); got != "hello wo" {
		t.Fatalf("got %q, want %q", got, "hello wo")
	}
}

func TestRAMBytesRoundTrip(t *testing.T) {
	ram := make([]uint32, 8)
	data := []byte{1, 2, 3, 4, 5, 6, 7}
	ramWriteBytes(ram, 0, data)
	got := ramReadBytes(ram, 0, len(data))
	if string(got) != string(data) {
		t.Fatalf("got %v, want %v", got, data)
	}
}

func TestRAMWriteBytesPreservesUntouchedBytesInLastWord(t *testing.T) {
	ram := make([]uint32, 2)
	ram[0] = 0xFFFFFFFF
	ramWriteBytes(ram, 0, []byte{0xAA, 0xBB})
	// bytes 2 and 3 of word 0 must survive untouched.
	if byte(ram[0]) != 0xAA || byte(ram[0]>>8) != 0xBB {
		t.Fatalf("low bytes clobbered: word = 0x%08X", ram[0])
	}
	if byte(ram[0]>>16) != 0xFF || byte(ram[0]>>24) != 0xFF {
		t.Fatalf("high bytes should be untouched: word = 0x%08X", ram[0])
	}
}

func TestRAMBytesAtWordOffset(t *testing.T) {
	ram := make([]uint32, 8)
	data := []byte{0x11, 0x22, 0x33}
	ramWriteBytes(ram, 3, data)
	got := ramReadBytes(ram, 3, len(data))
	if string(got) != string(data) {
		t.Fatalf("got %v, want %v", got, data)
	}
}
