// paravirtual_disk.go - the whole-sector paravirtual disk side channel.
package main

// ParavirtualDisk wraps a Disk with the regParavirtualDisk fast path:
// a guest writes the RAM word-offset of a small control block instead
// of shifting sector data through the byte-wide SPI port. The control
// block layout (word 0: sector number, word 1: 0=read/1=write, words
// 2-129: the 512-byte sector itself) is this project's own design,
// since the reference enumerator advertises a vDsk capability and a
// paravirtual_write(value, ram) hook without the transfer protocol
// itself being part of the retrieved source; it deliberately mirrors
// the control-block-in-RAM shape HostFS and host-transfer already use
// at MMIO offset 32.
type ParavirtualDisk struct {
	*Disk
}

// NewParavirtualDisk adapts an existing Disk to also serve paravirtual
// whole-sector transfers, so the same backing file answers both the
// SPI protocol and the fast path.
func NewParavirtualDisk(d *Disk) *ParavirtualDisk {
	return &ParavirtualDisk{Disk: d}
}

const (
	pvDiskRead  = 0
	pvDiskWrite = 1
)

// ParavirtualWrite services one control block at word offset value in
// ram, transferring exactly one 512-byte sector.
func (p *ParavirtualDisk) ParavirtualWrite(value uint32, ram []uint32) {
	if int(value)+130 > len(ram) {
		return
	}
	sector := ram[value]
	direction := ram[value+1]
	block := ram[value+2 : value+2+128]

	seekSector(p.file, sector-p.offset)
	switch direction {
	case pvDiskRead:
		var buf [128]uint32
		readSector(p.file, &buf)
		copy(block, buf[:])
	case pvDiskWrite:
		var buf [128]uint32
		copy(buf[:], block)
		writeSector(p.file, &buf)
	}
}
