// bus.go - address decoder and MMIO dispatcher for the Oberon RISC
// workstation.

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
bus.go provides the Bus type, which owns RAM, ROM and the palette and
decodes every load/store the CPU issues into one of:

  - a plain RAM word or byte access,
  - a framebuffer write, which also grows the current damage rectangle,
  - a ROM fetch (instruction fetches only; see risc-boot.inc's absence
    noted in rom.go),
  - a palette register access,
  - one of the fixed MMIO ports at ioStart, dispatched to whichever
    peripheral capability has been plugged in via the Set* methods.

Unlike the teacher's SystemBus, there is no generic page-masked region
table: Oberon's I/O space is a short, fixed list of ports, so the
decode is a plain switch, matching the reference emulator's own
risc_load_io/risc_store_io shape. A sync.Mutex still guards the whole
bus, since the frame driver, the debug console and the CPU goroutine
can all touch it.
*/
package main

import (
	"sync"
	"time"
)

// LED is the single-bit-per-channel LED peripheral.
type LED interface {
	Write(value uint32)
}

// Serial is the RS-232 peripheral.
type Serial interface {
	ReadStatus() uint32
	ReadData() uint32
	WriteData(value uint32)
}

// SPI is a chip-select-addressed SPI peripheral (SD-card-like block
// device on slave 1, network controller stub on slave 2).
type SPI interface {
	ReadData() uint32
	WriteData(value uint32)
}

// ParavirtualSPI is implemented by an SPI peripheral that also accepts
// whole-sector transfers via regParavirtualDisk, bypassing the byte
// oriented SPI protocol entirely.
type ParavirtualSPI interface {
	SPI
	ParavirtualWrite(value uint32, ram []uint32)
}

// Clipboard is the host clipboard bridge.
type Clipboard interface {
	WriteControl(value uint32)
	ReadControl() uint32
	WriteData(value uint32)
	ReadData() uint32
}

// RAMWriter is implemented by peripherals dispatched through regHostFS
// that need direct RAM access to move whole buffers (the HostFS and
// Host-transfer bridges).
type RAMWriter interface {
	Write(value uint32, ram []uint32)
}

// Bus owns all addressable state: RAM, ROM, the palette, the current
// display mode and damage rectangle, and the plugged-in peripherals.
type Bus struct {
	mu sync.Mutex

	ram          []uint32
	rom          [romWords]uint32
	palette      [paletteWords]uint32
	memSize      uint32
	displayStart uint32

	modes           []DisplayMode
	dynModeSlots    [2]DisplayMode
	currentMode     *DisplayMode
	currentModeSpan int
	modesByDepth    [3]int
	screenDynsize   bool
	screenSeamless  bool

	damage Damage

	hwenumBuf [24]int32
	hwenumIdx int
	hwenumCnt int

	progress     uint32
	currentTick  uint32
	initialClock uint32
	mouse        uint32
	keyBuf      [16]byte
	keyCnt      int
	switches    uint32

	spiSelected int
	spi         [4]SPI

	leds         LED
	serial       Serial
	clipboard    Clipboard
	hostfs       RAMWriter
	hosttransfer RAMWriter

	debugBuffer      [512]byte
	debugBufferIndex int
	debugSink        func(string)
}

// NewBus returns a Bus configured with the default 1 MiB memory map and
// single 1024x768x1 display mode, matching risc_new's defaults.
func NewBus() *Bus {
	b := &Bus{
		memSize:      defaultMemSize,
		displayStart: defaultDisplayStart,
	}
	b.dynModeSlots[0] = DisplayMode{Index: 0, Width: framebufferWidth, Height: framebufferHeight, Depth: 1}
	b.dynModeSlots[1] = DisplayMode{Index: -1}
	b.modes = b.dynModeSlots[:]
	b.currentMode = &b.modes[0]
	b.currentModeSpan = framebufferWidth / 32
	copy(b.rom[:], bootloader[:])
	b.ram = make([]uint32, b.memSize/4)
	b.resetDamage()
	b.initialClock = packOberonClock(time.Now())
	return b
}

// packOberonClock reproduces the BCD-like timestamp the reference boot
// ROM expects from vRTC: ((year%100)*16+month)*32+day, then folded
// through hour/minute/second at bases 32/64/64.
func packOberonClock(t time.Time) uint32 {
	clock := (uint32(t.Year()%100)*16 + uint32(t.Month())) * 32 + uint32(t.Day())
	clock = ((clock*32+uint32(t.Hour()))*64+uint32(t.Minute()))*64 + uint32(t.Second())
	return clock
}

func (b *Bus) resetDamage() {
	b.damage = Damage{
		X1: 0,
		Y1: 0,
		X2: b.currentModeSpan - 1,
		Y2: b.currentMode.Height - 1,
	}
}

// ConfigureMemory resizes RAM to fit megabytesRAM of heap plus the
// largest framebuffer any of modes can require, rebuilds the palette
// for indexed modes, and patches the memory-limit and stack-origin
// constants baked into the boot ROM. screenDynsize additionally
// reserves at least 2048*2048 bytes (2048x2048 at 8bpp) of framebuffer
// space for runtime-resizable windows.
func (b *Bus) ConfigureMemory(megabytesRAM int, modes []DisplayMode, screenDynsize bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if megabytesRAM < 1 {
		megabytesRAM = 1
	}
	if megabytesRAM > 64 {
		megabytesRAM = 64
	}

	b.displayStart = uint32(megabytesRAM) << 20
	framebufferSize := 0
	maxDepth := 1
	if screenDynsize {
		framebufferSize = 2048 * 2048
	}
	b.modesByDepth = [3]int{}
	for i := range modes {
		m := &modes[i]
		switch m.Depth {
		case 1:
			b.modesByDepth[0]++
		case 4:
			b.modesByDepth[1]++
		case 8:
			b.modesByDepth[2]++
		}
		size := m.Width * m.Height / (8 / m.Depth)
		if size > framebufferSize {
			framebufferSize = size
		}
		if m.Depth > maxDepth {
			maxDepth = m.Depth
		}
	}
	b.memSize = b.displayStart + uint32(framebufferSize)

	if maxDepth > 1 {
		for i, c := range defaultPalette {
			b.palette[i] = c
		}
		if maxDepth == 8 {
			for i := 16; i < 40; i++ {
				b.palette[i] = uint32(i-15) * 10 * 0x010101
			}
			pos := 40
			for i := 0; i < 6; i++ {
				for j := 0; j < 6; j++ {
					for k := 0; k < 6; k++ {
						b.palette[pos] = uint32(i*0x330000 + j*0x3300 + k*0x33)
						pos++
					}
				}
			}
		}
	}

	b.modes = modes
	b.currentMode = &modes[0]
	b.currentModeSpan = b.currentMode.span()
	b.resetDamage()
	b.screenDynsize = screenDynsize
	b.ram = make([]uint32, b.memSize/4)

	memLim := b.displayStart - 16
	b.rom[372] = 0x61000000 + (memLim >> 16)
	b.rom[373] = 0x41160000 + (memLim & 0x0000FFFF)
	stackOrg := b.displayStart / 2
	b.rom[376] = 0x61000000 + (stackOrg >> 16)
}

func (b *Bus) SetLEDs(l LED)               { b.leds = l }
func (b *Bus) SetSerial(s Serial)          { b.serial = s }
func (b *Bus) SetClipboard(c Clipboard)    { b.clipboard = c }
func (b *Bus) SetHostFS(h RAMWriter)       { b.hostfs = h }
func (b *Bus) SetHostTransfer(h RAMWriter) { b.hosttransfer = h }
func (b *Bus) SetSwitches(v uint32)        { b.switches = v }

// SetSPI plugs a peripheral into slave 1 (disk) or slave 2 (network);
// any other index is ignored, matching risc_set_spi.
func (b *Bus) SetSPI(index int, spi SPI) {
	if index == 1 || index == 2 {
		b.spi[index] = spi
	}
}

// SetDebugSink installs the callback invoked with each flushed debug
// console line (see regDebugConsole).
func (b *Bus) SetDebugSink(sink func(string)) { b.debugSink = sink }

// MemSize returns the current RAM size in bytes.
func (b *Bus) MemSize() uint32 { return b.memSize }

// DisplayStart returns the byte address where the framebuffer begins.
func (b *Bus) DisplayStart() uint32 { return b.displayStart }

// ROMWord returns instruction word i (0-based) from the boot ROM; used
// by the CPU's instruction fetch path.
func (b *Bus) ROMWord(i uint32) uint32 { return b.rom[i] }

// RAMWord returns word i (0-based) of RAM without bounds checks beyond
// what the caller already performed; used by the CPU's instruction
// fetch path.
func (b *Bus) RAMWord(i uint32) uint32 { return b.ram[i] }

// RAM exposes the backing array for peripherals (HostFS, host
// transfer, paravirtual disk) that move whole buffers directly.
func (b *Bus) RAM() []uint32 { return b.ram }

// SetTime updates the free-running millisecond counter read back at
// regMillisecondCounter.
func (b *Bus) SetTime(tick uint32) { b.currentTick = tick }

// Progress reports the cooperative-yield budget remaining since the
// last call to ResetProgress, used by the CPU's run loop to detect
// that the guest is idle-polling the clock or keyboard.
func (b *Bus) Progress() uint32 { return b.progress }

// ResetProgress reinitialises the per-run-call progress budget.
func (b *Bus) ResetProgress() { b.progress = 20 }

// MouseMoved packs an absolute pointer position into the 24-bit mouse
// word read back through regMouseKeyboard. x and y are clamped to
// [0, 4096).
func (b *Bus) MouseMoved(x, y int) {
	if x < 0 {
		x = 0
	}
	if x > 4095 {
		x = 4095
	}
	if y < 0 {
		y = 0
	}
	if y > 4095 {
		y = 4095
	}
	b.mu.Lock()
	b.mouse = b.mouse&^0xFFF | uint32(x)
	b.mouse = b.mouse&^0xFFF000 | uint32(y)<<12
	b.mu.Unlock()
}

// MouseButton sets or clears the bit for buttons 1 (right), 2 (middle)
// or 3 (left), matching risc_mouse_button's bit layout (26, 25, 24).
func (b *Bus) MouseButton(button int, down bool) {
	if button < 1 || button > 3 {
		return
	}
	bit := uint32(1) << (27 - uint(button))
	b.mu.Lock()
	if down {
		b.mouse |= bit
	} else {
		b.mouse &^= bit
	}
	b.mu.Unlock()
}

// KeyboardInput appends a batch of PS/2 scancode bytes to the keyboard
// FIFO. A batch that does not fit in the free space of the 16-byte
// buffer is silently dropped as a whole.
func (b *Bus) KeyboardInput(scancodes []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.keyBuf)-b.keyCnt < len(scancodes) {
		return
	}
	copy(b.keyBuf[b.keyCnt:], scancodes)
	b.keyCnt += len(scancodes)
}

// Damage returns the current accumulated dirty rectangle in
// (word-column, row) coordinates.
func (b *Bus) Damage() Damage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.damage
}

// ClearDamage resets the damage rectangle to empty, called once the
// frame driver has consumed it.
func (b *Bus) ClearDamage() {
	b.mu.Lock()
	b.damage = Damage{X1: b.currentModeSpan, Y1: b.currentMode.Height, X2: -1, Y2: -1}
	b.mu.Unlock()
}

func (b *Bus) updateDamage(word uint32) {
	row := int(word) / b.currentModeSpan
	col := int(word) % b.currentModeSpan
	if row >= b.currentMode.Height {
		return
	}
	if col < b.damage.X1 {
		b.damage.X1 = col
	}
	if col > b.damage.X2 {
		b.damage.X2 = col
	}
	if row < b.damage.Y1 {
		b.damage.Y1 = row
	}
	if row > b.damage.Y2 {
		b.damage.Y2 = row
	}
}

// CurrentMode returns the active display mode and whether it is a
// seamless (borderless dynamic) window.
func (b *Bus) CurrentMode() (DisplayMode, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.currentMode, b.screenSeamless
}

// Palette returns a copy of the current 256-entry colour table.
func (b *Bus) Palette() [paletteWords]uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.palette
}

// LoadWord reads a 32-bit word at a byte address, routing to RAM or
// the I/O decoder depending on where address falls.
func (b *Bus) LoadWord(address uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadWordLocked(address)
}

func (b *Bus) loadWordLocked(address uint32) uint32 {
	if address < b.memSize {
		return b.ram[address/4]
	}
	return b.loadIO(address)
}

// LoadByte reads one byte at a byte address.
func (b *Bus) LoadByte(address uint32) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.loadWordLocked(address)
	return uint8(w >> ((address % 4) * 8))
}

// StoreWord writes a 32-bit word at a byte address, growing the damage
// rectangle if the address falls within the framebuffer.
func (b *Bus) StoreWord(address, value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.storeWordLocked(address, value)
}

func (b *Bus) storeWordLocked(address, value uint32) {
	switch {
	case address < b.displayStart:
		b.ram[address/4] = value
	case address < b.memSize:
		b.ram[address/4] = value
		b.updateDamage(address/4 - b.displayStart/4)
	default:
		b.storeIO(address, value)
	}
}

// StoreByte writes one byte at a byte address via read-modify-write of
// the containing word.
func (b *Bus) StoreByte(address uint32, value uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if address < b.memSize {
		w := b.loadWordLocked(address)
		shift := (address & 3) * 8
		w &^= 0xFF << shift
		w |= uint32(value) << shift
		b.storeWordLocked(address, w)
		return
	}
	b.storeIO(address, uint32(value))
}

func (b *Bus) loadIO(address uint32) uint32 {
	if address >= paletteStart && address < paletteStart+0x400 {
		return b.palette[(address-paletteStart)/4]
	}
	switch address - ioStart {
	case regMillisecondCounter:
		b.progress--
		return b.currentTick
	case regSwitches:
		return b.switches
	case regSerialData:
		if b.serial != nil {
			return b.serial.ReadData()
		}
		return 0
	case regSerialStatus:
		if b.serial != nil {
			return b.serial.ReadStatus()
		}
		return 0
	case regSPIData:
		if spi := b.spi[b.spiSelected]; spi != nil {
			return spi.ReadData()
		}
		return 255
	case regSPIControl:
		// bit 0: rx ready; always set since reads are synchronous here.
		return 1
	case regMouseKeyboard:
		mouse := b.mouse
		if b.keyCnt > 0 {
			mouse |= 0x10000000
		} else {
			b.progress--
		}
		return mouse
	case regKeyboardData:
		if b.keyCnt > 0 {
			scancode := b.keyBuf[0]
			b.keyCnt--
			copy(b.keyBuf[:b.keyCnt], b.keyBuf[1:b.keyCnt+1])
			return uint32(scancode)
		}
		return 0
	case regClipboardControl:
		if b.clipboard != nil {
			return b.clipboard.ReadControl()
		}
		return 0
	case regClipboardData:
		if b.clipboard != nil {
			return b.clipboard.ReadData()
		}
		return 0
	case regScreenMode:
		return uint32(b.currentMode.Index)
	case regHWEnumerator:
		if b.hwenumIdx < b.hwenumCnt {
			v := b.hwenumBuf[b.hwenumIdx]
			b.hwenumIdx++
			return uint32(v)
		}
		return 0
	default:
		return 0
	}
}

func (b *Bus) storeIO(address, value uint32) {
	if address >= paletteStart && address < paletteStart+0x400 {
		b.palette[(address-paletteStart)/4] = value
		b.resetDamage()
		return
	}
	switch address - ioStart {
	case regLEDs:
		if b.leds != nil {
			b.leds.Write(value)
		}
	case regSerialData:
		if b.serial != nil {
			b.serial.WriteData(value)
		}
	case regSPIData:
		if spi := b.spi[b.spiSelected]; spi != nil {
			spi.WriteData(value)
		}
	case regSPIControl:
		b.spiSelected = int(value & 3)
	case regHostFS:
		if b.hostfs != nil {
			b.hostfs.Write(value, b.ram)
		}
		if b.hosttransfer != nil {
			b.hosttransfer.Write(value, b.ram)
		}
	case regParavirtualDisk:
		if spi, ok := b.spi[1].(ParavirtualSPI); ok {
			spi.ParavirtualWrite(value, b.ram)
		}
	case regClipboardControl:
		if b.clipboard != nil {
			b.clipboard.WriteControl(value)
		}
	case regClipboardData:
		if b.clipboard != nil {
			b.clipboard.WriteData(value)
		}
	case regScreenMode:
		b.switchMode(value)
	case regDebugConsole:
		b.writeDebugConsole(value)
	case regHWEnumerator:
		b.buildHWEnumerator(value)
	}
}

func (b *Bus) switchMode(value uint32) {
	found := false
	for i := range b.modes {
		if b.modes[i].Index == int32(value) {
			b.currentMode = &b.modes[i]
			b.currentModeSpan = b.currentMode.span()
			found = true
			break
		}
	}
	b.screenSeamless = false
	if !found && b.screenDynsize {
		mode := value >> 30
		width := int((value >> 15) & ((1 << 15) - 1))
		height := int(value & ((1 << 15) - 1))
		if width == 0 && height == 0 {
			b.screenSeamless = true
			width = b.dynModeSlots[1].Width
			height = b.dynModeSlots[1].Height
			width = width / 32 * 32
			if width < 64 {
				width = 64
			}
			if height < 64 {
				height = 64
			}
			if width > 2048 {
				width = 2048
			}
			if height > 2048 {
				height = 2048
			}
			value = (mode << 30) | (uint32(width) << 15) | uint32(height)
		}
		if width <= 2048 && width%32 == 0 && height <= 2048 && mode >= 1 && mode <= 3 {
			b.dynModeSlots[0].Index = int32(value)
			b.dynModeSlots[0].Width = width
			b.dynModeSlots[0].Height = height
			switch mode {
			case 1:
				b.dynModeSlots[0].Depth = 1
			case 2:
				b.dynModeSlots[0].Depth = 8
			default:
				b.dynModeSlots[0].Depth = 4
			}
			b.currentMode = &b.dynModeSlots[0]
			b.currentModeSpan = b.currentMode.span()
		}
	}
}

func (b *Bus) writeDebugConsole(value uint32) {
	if value == 0 || b.debugBufferIndex == len(b.debugBuffer)-1 {
		line := string(b.debugBuffer[:b.debugBufferIndex])
		if b.debugSink != nil {
			b.debugSink(line)
		}
		b.debugBufferIndex = 0
	}
	if value != 0 {
		if value == '\r' {
			value = '\n'
		}
		b.debugBuffer[b.debugBufferIndex] = byte(value)
		b.debugBufferIndex++
	}
}
