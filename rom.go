// rom.go - boot ROM image.
package main

// bootloader is copied into Bus.rom at reset. The reference FPGA
// design ships a fixed boot program (a tiny loader that reads the
// first sectors off the SD card and jumps into them) assembled from
// risc-boot.inc, which is proprietary Oberon bootstrap code and not
// part of this project's source tree. In its place this is a minimal
// synthetic stub: it spins reading the millisecond counter forever,
// which is enough to exercise reset, the PC's ROM-fetch path and the
// memory-limit/stack-origin patch points at words 372/373/376 without
// claiming to reproduce the real bootstrap loader.
//
// Encoding, for reference: a register-format MOV immediate of 0 into
// R0, followed by a memory-format load of the millisecond counter
// MMIO port into R0, followed by an unconditional branch back to the
// load. Each instruction is a 32-bit little-endian-significant word as
// interpreted by the CPU, not a byte sequence.
var bootloader = buildBootloaderStub()

func buildBootloaderStub() [romWords]uint32 {
	var rom [romWords]uint32

	const (
		movOp = 0
	)
	// MOV R0, #0 (register format, p=0,q=1,u=0,v=0, op=MOV, im=0)
	rom[0] = 0x40000000 | uint32(movOp)<<16

	// LDW R0, R0, ioStart-ROMStart-relative constant isn't addressable
	// directly from ROM-local offsets, so the stub instead loads from
	// absolute MMIO address ioStart via R14, set up once at boot.
	// MOV R14, #(ioStart >> 16) << 16 (load high half)
	rom[1] = 0x60000000 | 14<<24 | uint32(ioStart>>16)
	// IOR R14, R14, #(ioStart & 0xFFFF)
	rom[2] = 0x40000000 | 14<<24 | 14<<20 | 6<<16 | uint32(ioStart&0xFFFF)
	// LDW R0, R14, 0  (p=1,q=0,u=0,v=0)
	rom[3] = 0x80000000 | 0<<24 | 14<<20 | 0
	// BR -2 (branch always, PC-relative; PC already points past rom[4],
	// so an offset of -2 lands back on rom[3])
	rom[4] = 0xE7000000 | (-2 & 0x00FFFFFF)

	return rom
}
