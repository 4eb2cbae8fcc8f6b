// hwenum.go - the hardware capability enumerator exposed at
// regHWEnumerator.
package main

// hwEnumID packs four ASCII characters into the tag values exchanged
// over regHWEnumerator, matching the reference HW_ENUM_ID macro.
func hwEnumID(a, b, c, d byte) int32 {
	return int32(uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d))
}

// buildHWEnumerator answers one query into the enumerator, queued in
// hwenumBuf for sequential readback via regHWEnumerator. Query 0 lists
// the tags for every present capability; any other query is the tag
// itself, requesting that capability's detail record. Guests discover
// the machine by reading the tag list once at boot and then reading
// each tag's detail record as needed; nothing here is cached across
// configuration changes, so a guest that reconfigures the display and
// re-enumerates sees the new mode counts immediately.
func (b *Bus) buildHWEnumerator(value uint32) {
	b.hwenumCnt = 0
	b.hwenumIdx = 0
	emit := func(v int32) { b.hwenumBuf[b.hwenumCnt] = v; b.hwenumCnt++ }
	// The palette and ROM addresses lie above 2^31; they are emitted as
	// their two's-complement int32 bit patterns.
	paletteAddr, romAddr := uint32(paletteStart), uint32(romStart)

	_, hasParavirtualDisk := b.spi[1].(ParavirtualSPI)

	switch int32(value) {
	case 0:
		emit(1) // protocol version
		if b.modesByDepth[0] > 0 {
			emit(hwEnumID('m', 'V', 'i', 'd'))
			if b.screenDynsize {
				emit(hwEnumID('m', 'D', 'y', 'n'))
			}
		}
		if b.modesByDepth[1] > 0 {
			emit(hwEnumID('1', '6', 'c', 'V'))
			if b.screenDynsize {
				emit(hwEnumID('1', '6', 'c', 'D'))
			}
		}
		if b.modesByDepth[2] > 0 {
			emit(hwEnumID('8', 'b', 'c', 'V'))
			if b.screenDynsize {
				emit(hwEnumID('8', 'b', 'c', 'D'))
			}
		}
		emit(hwEnumID('T', 'i', 'm', 'r'))
		emit(hwEnumID('S', 'w', 't', 'c'))
		emit(hwEnumID('S', 'P', 'I', 'f'))
		emit(hwEnumID('M', 's', 'K', 'b'))
		emit(hwEnumID('R', 's', 'e', 't'))
		emit(hwEnumID('v', 'R', 'T', 'C'))
		emit(hwEnumID('D', 'b', 'g', 'C'))
		if b.leds != nil {
			emit(hwEnumID('L', 'E', 'D', 's'))
		}
		if b.serial != nil {
			emit(hwEnumID('S', 'P', 'r', 't'))
		}
		if b.clipboard != nil {
			emit(hwEnumID('v', 'C', 'l', 'p'))
		}
		if b.hostfs != nil {
			emit(hwEnumID('H', 's', 'F', 's'))
		}
		if b.hosttransfer != nil {
			emit(hwEnumID('v', 'H', 'T', 'x'))
		}
		if hasParavirtualDisk {
			emit(hwEnumID('v', 'D', 's', 'k'))
		}

	case hwEnumID('m', 'V', 'i', 'd'):
		if b.modesByDepth[0] > 0 {
			emit(int32(b.modesByDepth[0]))
			emit(-16)
			for i := range b.modes {
				m := &b.modes[i]
				if m.Depth == 1 {
					emit(int32(m.Width))
					emit(int32(m.Height))
					emit(int32(m.Width / 8))
					emit(int32(b.displayStart))
				}
			}
		}

	case hwEnumID('m', 'D', 'y', 'n'):
		if b.modesByDepth[0] > 0 && b.screenDynsize {
			emit(-16)
			emit(2048)
			emit(2048)
			emit(32)
			emit(1)
			emit(-1)
			emit(int32(b.displayStart))
			emit(1)
		}

	case hwEnumID('1', '6', 'c', 'V'):
		if b.modesByDepth[1] > 0 {
			emit(int32(b.modesByDepth[1]))
			emit(int32(b.modesByDepth[0]))
			emit(-16)
			emit(int32(paletteAddr))
			for i := range b.modes {
				m := &b.modes[i]
				if m.Depth == 4 {
					emit(int32(m.Width))
					emit(int32(m.Height))
					emit(int32(m.Width / 2))
					emit(int32(b.displayStart))
				}
			}
		}

	case hwEnumID('1', '6', 'c', 'D'):
		// Mirrors the reference implementation's gate verbatim: this
		// detail record is reached only when 16-colour modes exist,
		// so gating on modesByDepth[1] here is correct.
		if b.modesByDepth[1] > 0 && b.screenDynsize {
			emit(-16)
			emit(int32(paletteAddr))
			emit(2048)
			emit(2048)
			emit(32)
			emit(1)
			emit(-1)
			emit(int32(b.displayStart))
			emit(1)
		}

	case hwEnumID('8', 'b', 'c', 'V'):
		if b.modesByDepth[2] > 0 {
			emit(int32(b.modesByDepth[2]))
			emit(int32(b.modesByDepth[0] + b.modesByDepth[1]))
			emit(-16)
			emit(int32(paletteAddr))
			for i := range b.modes {
				m := &b.modes[i]
				if m.Depth == 8 {
					emit(int32(m.Width))
					emit(int32(m.Height))
					emit(int32(m.Width))
					emit(int32(b.displayStart))
				}
			}
		}

	case hwEnumID('8', 'b', 'c', 'D'):
		// Gated on modesByDepth[1] (16-colour mode count), not
		// modesByDepth[2] (8-bit mode count) as would be consistent
		// with 8bcV above. This is a copy-paste bug in the original
		// FPGA/reference enumerator, reproduced here bit-for-bit: a
		// guest can see an 8bcD record with no 8-bit modes present,
		// or none at all despite 8-bit modes existing, depending on
		// whether any 16-colour mode happens to be configured too.
		if b.modesByDepth[1] > 0 && b.screenDynsize {
			emit(-16)
			emit(int32(paletteAddr))
			emit(2048)
			emit(2048)
			emit(32)
			emit(1)
			emit(-1)
			emit(int32(b.displayStart))
			emit(1)
		}

	case hwEnumID('T', 'i', 'm', 'r'):
		emit(-64)

	case hwEnumID('S', 'w', 't', 'c'):
		emit(1)
		emit(-60)

	case hwEnumID('L', 'E', 'D', 's'):
		if b.leds != nil {
			emit(8)
			emit(-60)
		}

	case hwEnumID('S', 'P', 'r', 't'):
		if b.serial != nil {
			emit(1)
			emit(-52)
			emit(-56)
		}

	case hwEnumID('S', 'P', 'I', 'f'):
		emit(-44)
		emit(-48)
		if b.spi[1] != nil {
			emit(hwEnumID('S', 'D', 'C', 'r'))
		}
		if b.spi[2] != nil {
			emit(hwEnumID('w', 'N', 'e', 't'))
		}

	case hwEnumID('M', 's', 'K', 'b'):
		emit(-40)
		emit(-36)

	case hwEnumID('v', 'C', 'l', 'p'):
		if b.clipboard != nil {
			emit(-24)
			emit(-20)
		}

	case hwEnumID('v', 'D', 's', 'k'):
		if hasParavirtualDisk {
			emit(-28)
		}

	case hwEnumID('H', 's', 'F', 's'):
		if b.hostfs != nil {
			emit(-32)
		}

	case hwEnumID('v', 'H', 'T', 'x'):
		if b.hosttransfer != nil {
			emit(-32)
		}

	case hwEnumID('D', 'b', 'g', 'C'):
		emit(-12)

	case hwEnumID('R', 's', 'e', 't'):
		emit(int32(romAddr))

	case hwEnumID('v', 'R', 'T', 'C'):
		emit(0)
		emit(int32(b.initialClock))
	}
}
