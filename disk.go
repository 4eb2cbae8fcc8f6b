// disk.go - the SPI-attached block device (SD-card emulation).

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
disk.go implements the byte-at-a-time SPI protocol a guest uses to
talk to an SD-card-like block device: a 6-byte command is shifted in
one byte per write_data call, then the reply (status byte plus, for a
read, a 0xFE token and 128 words of sector data) is shifted out one
byte per read_data call. Only command 81 (read) and 88 (write) do
anything; any other command is acknowledged with a bare zero status
byte, matching the reference's disk_run_command default case.
*/
package main

import (
	"io"
)

type diskState int

const (
	diskCommand diskState = iota
	diskRead
	diskWrite
	diskWriting
)

// Disk is an SPI block device backed by a sector-addressable
// ReadWriteSeeker (typically an *os.File opened on a disk image).
type Disk struct {
	file io.ReadWriteSeeker

	state  diskState
	offset uint32

	rxBuf [128]uint32
	rxIdx int

	txBuf [130]uint32
	txCnt int
	txIdx int
}

// NewDisk returns a Disk reading/writing through file. If the first
// sector's first word is the filesystem-image magic 0x9B1EA38D, every
// subsequent sector address is lowered by 0x80002 so that the guest's
// sector 0x80002 (DiskAdr 29) lands on sector 0 of the image file: a
// disk image containing only a filesystem, without the
// preceding boot/kernel sectors, still boots.
func NewDisk(file io.ReadWriteSeeker) *Disk {
	d := &Disk{file: file, state: diskCommand}
	if file != nil {
		var probe [128]uint32
		readSector(file, &probe)
		if probe[0] == 0x9B1EA38D {
			d.offset = 0x80002
		}
	}
	return d
}

// ReadData shifts out the next reply byte queued by the last command.
func (d *Disk) ReadData() uint32 {
	if d.txIdx >= 0 && d.txIdx < d.txCnt {
		return d.txBuf[d.txIdx]
	}
	return 255
}

// WriteData shifts in one command/data byte.
func (d *Disk) WriteData(value uint32) {
	d.txIdx++
	switch d.state {
	case diskCommand:
		if uint8(value) != 0xFF || d.rxIdx != 0 {
			d.rxBuf[d.rxIdx] = value
			d.rxIdx++
			if d.rxIdx == 6 {
				d.runCommand()
				d.rxIdx = 0
			}
		}
	case diskRead:
		if d.txIdx == d.txCnt {
			d.state = diskCommand
			d.txCnt = 0
			d.txIdx = 0
		}
	case diskWrite:
		if value == 254 {
			d.state = diskWriting
		}
	case diskWriting:
		if d.rxIdx < 128 {
			d.rxBuf[d.rxIdx] = value
		}
		d.rxIdx++
		if d.rxIdx == 128 {
			writeSector(d.file, &d.rxBuf)
		}
		if d.rxIdx == 130 {
			d.txBuf[0] = 5
			d.txCnt = 1
			d.txIdx = -1
			d.rxIdx = 0
			d.state = diskCommand
		}
	}
}

func (d *Disk) runCommand() {
	cmd := d.rxBuf[0]
	arg := d.rxBuf[1]<<24 | d.rxBuf[2]<<16 | d.rxBuf[3]<<8 | d.rxBuf[4]

	switch cmd {
	case 81:
		d.state = diskRead
		d.txBuf[0] = 0
		d.txBuf[1] = 254
		seekSector(d.file, arg-d.offset)
		var sector [128]uint32
		readSector(d.file, &sector)
		copy(d.txBuf[2:], sector[:])
		d.txCnt = 2 + 128
	case 88:
		d.state = diskWrite
		seekSector(d.file, arg-d.offset)
		d.txBuf[0] = 0
		d.txCnt = 1
	default:
		d.txBuf[0] = 0
		d.txCnt = 1
	}
	d.txIdx = -1
}

func seekSector(f io.Seeker, secnum uint32) {
	if f == nil {
		return
	}
	f.Seek(int64(secnum)*512, io.SeekStart)
}

func readSector(f io.Reader, buf *[128]uint32) {
	var bytes [512]byte
	if f != nil {
		io.ReadFull(f, bytes[:])
	}
	for i := 0; i < 128; i++ {
		buf[i] = uint32(bytes[i*4]) |
			uint32(bytes[i*4+1])<<8 |
			uint32(bytes[i*4+2])<<16 |
			uint32(bytes[i*4+3])<<24
	}
}

func writeSector(f io.Writer, buf *[128]uint32) {
	if f == nil {
		return
	}
	var bytes [512]byte
	for i := 0; i < 128; i++ {
		v := buf[i]
		bytes[i*4] = byte(v)
		bytes[i*4+1] = byte(v >> 8)
		bytes[i*4+2] = byte(v >> 16)
		bytes[i*4+3] = byte(v >> 24)
	}
	f.Write(bytes[:])
}
