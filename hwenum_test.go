package main

import "testing"

func hwEnumQuery(b *Bus, query int32) []int32 {
	b.StoreWord(ioStart+regHWEnumerator, uint32(query))
	var out []int32
	for {
		v := int32(b.LoadWord(ioStart + regHWEnumerator))
		if v == 0 && len(out) > 0 {
			// Trailing zero reads past hwenumCnt are the documented
			// exhausted-queue value; stop once we've seen one.
			break
		}
		out = append(out, v)
		if len(out) > 64 {
			break
		}
	}
	return out
}

func hwEnumContains(tags []int32, tag int32) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestHWEnumeratorRootListingReflectsConfiguredPeripherals(t *testing.T) {
	b := NewBus()
	modes := []DisplayMode{{Index: 0, Width: 1024, Height: 768, Depth: 1}}
	b.ConfigureMemory(1, modes, false)
	b.SetLEDs(NewConsoleLEDs())

	tags := hwEnumQuery(b, 0)
	if tags[0] != 1 {
		t.Fatalf("first emitted word = %d, want protocol version 1", tags[0])
	}
	if !hwEnumContains(tags, hwEnumID('m', 'V', 'i', 'd')) {
		t.Fatalf("root listing missing mVid with a depth-1 mode configured: %v", tags)
	}
	if !hwEnumContains(tags, hwEnumID('L', 'E', 'D', 's')) {
		t.Fatalf("root listing missing LEDs after SetLEDs: %v", tags)
	}
	if hwEnumContains(tags, hwEnumID('v', 'C', 'l', 'p')) {
		t.Fatalf("root listing advertises vClp with no clipboard set: %v", tags)
	}
	if hwEnumContains(tags, hwEnumID('1', '6', 'c', 'V')) {
		t.Fatalf("root listing advertises 16cV with no 4bpp mode configured: %v", tags)
	}
}

func TestHWEnumeratorParavirtualDiskTagGatedOnSPISlotOne(t *testing.T) {
	b := NewBus()
	modes := []DisplayMode{{Index: 0, Width: 1024, Height: 768, Depth: 1}}
	b.ConfigureMemory(1, modes, false)

	if hwEnumContains(hwEnumQuery(b, 0), hwEnumID('v', 'D', 's', 'k')) {
		t.Fatalf("vDsk advertised with no SPI slot 1 attached")
	}

	disk := NewDisk(nil)
	b.SetSPI(1, NewParavirtualDisk(disk))
	if !hwEnumContains(hwEnumQuery(b, 0), hwEnumID('v', 'D', 's', 'k')) {
		t.Fatalf("vDsk not advertised after attaching a ParavirtualSPI disk to slot 1")
	}
}

func Test8bcDGatingCopyPasteBugIsPreservedVerbatim(t *testing.T) {
	// Only a 16-colour (depth 4) mode is configured; no 8-bit (depth 8)
	// mode exists. The reference enumerator's 8bcD detail record is
	// (incorrectly) gated on modesByDepth[1] (the 16-colour count), the
	// same field 16cD uses, rather than modesByDepth[2]. That bug must
	// survive the port bit-for-bit: 8bcD should still appear here even
	// though no 8bpp mode is configured, as long as screenDynsize and a
	// 16-colour mode are both present.
	b := NewBus()
	modes := []DisplayMode{{Index: 0, Width: 1024, Height: 768, Depth: 4}}
	b.ConfigureMemory(1, modes, true)

	detail := hwEnumQuery(b, hwEnumID('8', 'b', 'c', 'D'))
	if len(detail) == 0 || detail[0] != -16 {
		t.Fatalf("8bcD absent despite the preserved copy-paste gate on modesByDepth[1] (16-colour count)")
	}
}

func TestHWEnumeratorUnknownTagYieldsNoDetailRecord(t *testing.T) {
	b := NewBus()
	modes := []DisplayMode{{Index: 0, Width: 1024, Height: 768, Depth: 1}}
	b.ConfigureMemory(1, modes, false)

	b.StoreWord(ioStart+regHWEnumerator, uint32(hwEnumID('z', 'z', 'z', 'z')))
	if got := b.LoadWord(ioStart + regHWEnumerator); got != 0 {
		t.Fatalf("LoadWord after an unrecognized tag query = %d, want 0 (empty detail record)", got)
	}
}
