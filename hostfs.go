// hostfs.go - the paravirtual host filesystem bridge.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	hostfsSectorMagic = 290000000
	maxHostFSFiles    = 4096
)

// HostFS exposes a host directory to the guest as a flat, sector-
// numbered file table. A guest opens a file by first resolving its
// name to a sector number (Search, or Enumerate), then addressing
// every later operation by that number. The table only ever grows:
// rather than reuse freed slots, Delete/Insert rename the underlying
// host file to a tombstone and leave the slot's name pointing at it,
// matching the reference implementation, which never reclaims
// allocated_names_size either.
type HostFS struct {
	dirname string

	allocatedNames     []string
	allocatedFullNames []string

	enumEntries []os.DirEntry
	enumIdx     int
	currentPrefix string
}

// NewHostFS exposes directory dirname through the host filesystem
// bridge.
func NewHostFS(dirname string) (*HostFS, error) {
	if _, err := os.ReadDir(dirname); err != nil {
		return nil, fmt.Errorf("hostfs: can't open directory %q: %w", dirname, err)
	}
	return &HostFS{dirname: dirname}, nil
}

// Write dispatches one host filesystem operation. The opcode and its
// arguments are read out of ram starting at value/4, matching the
// reference hostfs_write's reuse of the MMIO value as a RAM word
// offset rather than an inline payload.
func (h *HostFS) Write(value uint32, ram []uint32) {
	offset := value / 4
	switch ram[offset] {
	case 0: // FileDir.Search
		ram[offset+1] = h.searchFile(ramReadCString(ram, offset+2))

	case 1: // FileDir.Enumerate Start
		h.currentPrefix = ramReadCString(ram, offset+2)
		entries, _ := os.ReadDir(h.dirname)
		h.enumEntries = entries
		h.enumIdx = 0
		fallthrough

	case 2: // FileDir.Enumerate Next
		name, ok := h.enumerateNext()
		if !ok {
			ram[offset+1] = 0
		} else {
			ram[offset+1] = h.searchFile(name)
			ramWriteCString(ram, offset+2, name)
		}

	case 3: // FileDir.GetAttributes / System.List
		sector := ram[offset+1] - hostfsSectorMagic
		if int(sector) < len(h.allocatedNames) && h.allocatedNames[sector] != "" {
			if info, err := os.Stat(h.allocatedFullNames[sector]); err == nil {
				ram[offset+2] = packHostTime(info.ModTime())
				ram[offset+3] = uint32(info.Size())
			}
		}

	case 4: // FileDir.Insert
		h.insert(ram, offset)

	case 5: // FileDir.Delete
		h.delete(ram, offset)

	case 6: // Files.New
		h.create(ram, offset)

	case 7: // Files.ReadBuf
		h.readBuf(ram, offset)

	case 8: // Files.WriteBuf
		h.writeBuf(ram, offset)
	}
}

func (h *HostFS) enumerateNext() (string, bool) {
	for h.enumIdx < len(h.enumEntries) {
		entry := h.enumEntries[h.enumIdx]
		h.enumIdx++
		name := entry.Name()
		if strings.HasPrefix(name, h.currentPrefix) && !strings.HasPrefix(name, "~") && !strings.HasPrefix(name, ".") {
			return name, true
		}
	}
	return "", false
}

// packHostTime packs a modification time into the attribute word the
// guest's FileDir.GetAttributes expects: seconds + minutes*0x40 +
// hours*0x1000 + day*0x20000 + month*0x400000 + (year%100)*0x4000000.
func packHostTime(t time.Time) uint32 {
	return uint32(t.Second()) + uint32(t.Minute())*0x40 + uint32(t.Hour())*0x1000 +
		uint32(t.Day())*0x20000 + uint32(t.Month())*0x400000 + uint32(t.Year()%100)*0x4000000
}

// searchFile resolves filename to its sector number, allocating a new
// slot on first lookup if the file actually exists on the host.
//
// The "if allocated_names_size % 29 == 0, skip a slot" step below is
// carried over bit-for-bit from the reference hostfs_search_file. It
// reads as a latent off-by-one in the original allocation logic, not
// a deliberate reservation, but guest-visible sector numbers must
// match it exactly to stay compatible with images built against the
// real emulator.
func (h *HostFS) searchFile(filename string) uint32 {
	for i, name := range h.allocatedNames {
		if name == filename {
			return hostfsSectorMagic + uint32(i)
		}
	}
	if len(h.allocatedNames) >= maxHostFSFiles-1 {
		return 0
	}
	fullname := filepath.Join(h.dirname, filename)
	if _, err := os.Stat(fullname); err != nil {
		return 0
	}
	if len(h.allocatedNames)%29 == 0 {
		h.allocatedNames = append(h.allocatedNames, "")
		h.allocatedFullNames = append(h.allocatedFullNames, "")
	}
	h.allocatedNames = append(h.allocatedNames, filename)
	h.allocatedFullNames = append(h.allocatedFullNames, fullname)
	return hostfsSectorMagic + uint32(len(h.allocatedNames)-1)
}

func (h *HostFS) insert(ram []uint32, offset uint32) {
	fileName := ramReadCString(ram, offset+2)
	sector := ram[offset+1] - hostfsSectorMagic
	if int(sector) >= len(h.allocatedNames) || h.allocatedNames[sector] == "" || !strings.HasPrefix(h.allocatedNames[sector], "~") {
		return
	}
	newFullName := filepath.Join(h.dirname, fileName)
	if _, err := os.Stat(newFullName); err == nil {
		pos := -1
		for i, name := range h.allocatedNames {
			if name == fileName {
				pos = i
				break
			}
		}
		if pos == -1 {
			os.Remove(newFullName)
		} else {
			tombstone, err := uniqueTombstone(h.dirname, "~OvW~")
			if err == nil {
				os.Rename(newFullName, tombstone)
				h.allocatedNames[pos] = "~OvW"
				h.allocatedFullNames[pos] = tombstone
			}
		}
	}
	os.Rename(h.allocatedFullNames[sector], newFullName)
	h.allocatedNames[sector] = fileName
	h.allocatedFullNames[sector] = newFullName
}

func (h *HostFS) delete(ram []uint32, offset uint32) {
	name := ramReadCString(ram, offset+2)
	sector := h.searchFile(name)
	ram[offset+1] = sector
	if sector == 0 {
		return
	}
	idx := sector - hostfsSectorMagic
	tombstone, err := uniqueTombstone(h.dirname, "~Del~"+name+"_")
	if err != nil {
		return
	}
	os.Rename(h.allocatedFullNames[idx], tombstone)
	h.allocatedNames[idx] = "~Del"
	h.allocatedFullNames[idx] = tombstone
}

// create implements Files.New. Unlike Delete/Insert's tombstone
// reservations, the created file is left in place (not unlinked): the
// slot it allocates must already exist on disk for searchFile to find
// it, matching the reference's mkstemp-without-unlink case 6.
func (h *HostFS) create(ram []uint32, offset uint32) {
	name := ramReadCString(ram, offset+2)
	f, err := os.CreateTemp(h.dirname, "~New~"+name+"_*")
	if err != nil {
		ram[offset+1] = 0
		return
	}
	f.Close()
	ram[offset+1] = h.searchFile(filepath.Base(f.Name()))
}

func (h *HostFS) readBuf(ram []uint32, offset uint32) {
	sector := ram[offset+1] - hostfsSectorMagic
	if int(sector) >= len(h.allocatedFullNames) {
		return
	}
	f, err := os.Open(h.allocatedFullNames[sector])
	if err != nil {
		return
	}
	defer f.Close()
	pos := ram[offset+2]
	length := ram[offset+3]
	dest := ram[offset+4] / 4
	buf := make([]byte, length)
	f.Seek(int64(pos), 0)
	n, _ := f.Read(buf)
	ramWriteBytes(ram, dest, buf[:n])
}

func (h *HostFS) writeBuf(ram []uint32, offset uint32) {
	sector := ram[offset+1] - hostfsSectorMagic
	if int(sector) >= len(h.allocatedFullNames) {
		return
	}
	f, err := os.OpenFile(h.allocatedFullNames[sector], os.O_RDWR, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	pos := ram[offset+2]
	length := ram[offset+3]
	src := ram[offset+4] / 4
	buf := ramReadBytes(ram, src, int(length))
	f.Seek(int64(pos), 0)
	f.Write(buf)
}

// uniqueTombstone reserves a fresh path under dir named prefix plus a
// random suffix, stands in for the reference's mkstemp-then-unlink
// dance (create to claim uniqueness, then remove so the caller can
// rename a different file onto that exact path).
func uniqueTombstone(dir, prefix string) (string, error) {
	f, err := os.CreateTemp(dir, prefix+"*")
	if err != nil {
		return "", err
	}
	path := f.Name()
	f.Close()
	os.Remove(path)
	return path, nil
}
