package main

import "testing"

func TestStoreLoadWordRoundTrip(t *testing.T) {
	b := NewBus()
	b.StoreWord(0x100, 0xCAFEBABE)
	if got := b.LoadWord(0x100); got != 0xCAFEBABE {
		t.Fatalf("LoadWord(0x100) = 0x%08X, want 0xCAFEBABE", got)
	}
}

func TestStoreLoadByteRoundTrip(t *testing.T) {
	b := NewBus()
	b.StoreWord(0x200, 0)
	b.StoreByte(0x200, 0xAB)
	b.StoreByte(0x201, 0xCD)
	b.StoreByte(0x203, 0xEF)

	if got := b.LoadByte(0x200); got != 0xAB {
		t.Fatalf("byte 0 = 0x%02X, want 0xAB", got)
	}
	if got := b.LoadByte(0x201); got != 0xCD {
		t.Fatalf("byte 1 = 0x%02X, want 0xCD", got)
	}
	if got := b.LoadByte(0x202); got != 0 {
		t.Fatalf("byte 2 = 0x%02X, want 0 (untouched)", got)
	}
	if got := b.LoadByte(0x203); got != 0xEF {
		t.Fatalf("byte 3 = 0x%02X, want 0xEF", got)
	}
}

func TestDamageRectangleStartsFullScreen(t *testing.T) {
	b := NewBus()
	mode, _ := b.CurrentMode()
	want := Damage{X1: 0, Y1: 0, X2: mode.span() - 1, Y2: mode.Height - 1}
	if got := b.Damage(); got != want {
		t.Fatalf("fresh bus should have a full-screen damage rectangle %+v, got %+v", want, got)
	}
}

func TestDamageRectangleGrowsAndIsIdempotent(t *testing.T) {
	b := NewBus()
	mode, _ := b.CurrentMode()
	span := mode.span()
	base := b.DisplayStart()
	// A fresh bus reports the whole screen as damaged; start from the
	// empty rectangle the frame driver leaves after a read-out.
	b.ClearDamage()

	// Word 0 of row 0: single-pixel-word damage.
	b.StoreWord(base, 1)
	d := b.Damage()
	if d.Empty() {
		t.Fatalf("damage should be non-empty after a framebuffer write")
	}
	if d.X1 != 0 || d.X2 != 0 || d.Y1 != 0 || d.Y2 != 0 {
		t.Fatalf("damage = %+v, want a single-word rectangle at (0,0)", d)
	}

	// Word 3 of row 2 should expand the rectangle to cover both writes.
	b.StoreWord(base+uint32((2*span+3)*4), 1)
	d = b.Damage()
	if d.X1 != 0 || d.X2 != 3 || d.Y1 != 0 || d.Y2 != 2 {
		t.Fatalf("damage = %+v, want X1=0 X2=3 Y1=0 Y2=2", d)
	}

	// Re-writing the same word again must not shrink or otherwise
	// perturb the already-expanded rectangle.
	b.StoreWord(base, 1)
	d2 := b.Damage()
	if d2 != d {
		t.Fatalf("re-writing an already-damaged word changed the rectangle: %+v -> %+v", d, d2)
	}
}

func TestClearDamageResetsToEmpty(t *testing.T) {
	b := NewBus()
	b.StoreWord(b.DisplayStart(), 1)
	if b.Damage().Empty() {
		t.Fatalf("expected non-empty damage before clearing")
	}
	b.ClearDamage()
	if !b.Damage().Empty() {
		t.Fatalf("expected empty damage after ClearDamage, got %+v", b.Damage())
	}
}

func TestConfigureMemorySizesRAMToRequestedMegabytes(t *testing.T) {
	b := NewBus()
	b.ConfigureMemory(2, []DisplayMode{{Index: 0, Width: 1024, Height: 768, Depth: 1}}, false)
	if b.DisplayStart() != 2<<20 {
		t.Fatalf("DisplayStart() = %d, want %d", b.DisplayStart(), 2<<20)
	}
	if b.MemSize() <= b.DisplayStart() {
		t.Fatalf("MemSize() = %d, want more than DisplayStart() (%d) to leave room for the framebuffer", b.MemSize(), b.DisplayStart())
	}
	if len(b.RAM()) != int(b.MemSize()/4) {
		t.Fatalf("len(RAM()) = %d, want %d", len(b.RAM()), b.MemSize()/4)
	}
}

func TestConfigureMemoryClampsToSupportedRange(t *testing.T) {
	modes := []DisplayMode{{Index: 0, Width: 1024, Height: 768, Depth: 1}}

	b := NewBus()
	b.ConfigureMemory(0, modes, false)
	if b.DisplayStart() != 1<<20 {
		t.Fatalf("DisplayStart() with 0 requested MB = %d, want the 1 MiB floor", b.DisplayStart())
	}

	b2 := NewBus()
	b2.ConfigureMemory(1000, modes, false)
	if b2.DisplayStart() != 64<<20 {
		t.Fatalf("DisplayStart() with 1000 requested MB = %d, want the 64 MiB ceiling", b2.DisplayStart())
	}
}
