package page

import "encoding/binary"

// Slot mirrors one 9-byte slot directory entry.
type Slot struct {
	Offset   uint16
	Length   uint16
	Flags    uint8
	RecordID uint32
}

// slotByteOffset returns where slot i's 9 bytes begin. Slot 0 sits
// immediately before the bitmap; each higher index moves further toward
// the front of the page.
func slotByteOffset(i uint16) uint16 {
	return PageSize - BitmapSize - (i+1)*SlotSize
}

func (pg *Page) readSlot(i uint16) Slot {
	base := slotByteOffset(i)
	return Slot{
		Offset:   binary.LittleEndian.Uint16(pg.Data[base:]),
		Length:   binary.LittleEndian.Uint16(pg.Data[base+2:]),
		Flags:    pg.Data[base+4],
		RecordID: binary.LittleEndian.Uint32(pg.Data[base+5:]),
	}
}

func (pg *Page) writeSlot(i uint16, s Slot) {
	base := slotByteOffset(i)
	binary.LittleEndian.PutUint16(pg.Data[base:], s.Offset)
	binary.LittleEndian.PutUint16(pg.Data[base+2:], s.Length)
	pg.Data[base+4] = s.Flags
	binary.LittleEndian.PutUint32(pg.Data[base+5:], s.RecordID)
}

// findOccupiedSlot returns the index of the first OCCUPIED slot carrying
// recordID, and whether one was found. A tombstoned (DELETED) slot never
// matches, even if a later re-insert gave a fresh slot the same id — the
// directory is scanned front-to-back so the live slot, which is always
// appended after its predecessor was tombstoned, wins.
func (pg *Page) findOccupiedSlot(recordID uint32) (uint16, Slot, bool) {
	n := pg.SlotCount()
	for i := uint16(0); i < n; i++ {
		s := pg.readSlot(i)
		if s.RecordID == recordID && s.Flags&SlotOccupied != 0 {
			return i, s, true
		}
	}
	return 0, Slot{}, false
}

// ─────────────────────────────────────────────────────────────────────────
// Free-id bitmap
// ─────────────────────────────────────────────────────────────────────────

// BitSet reports whether identifier bit i (0..IDRangeSize) is set, meaning
// id_range_start+i is currently live.
func (pg *Page) BitSet(i uint32) bool {
	base := bitmapBase()
	byteIdx := base + uint16(i/8)
	return pg.Data[byteIdx]&(1<<(i%8)) != 0
}

// SetBit marks identifier bit i as live. The heap manager calls this
// when a record is assigned to bit i's corresponding record id.
func (pg *Page) SetBit(i uint32) {
	base := bitmapBase()
	byteIdx := base + uint16(i/8)
	pg.Data[byteIdx] |= 1 << (i % 8)
	pg.Dirty = true
}

// ClearBit marks identifier bit i as free. Delete always clears the bit
// for the id it removes, regardless of whether the slot is tombstoned
// or physically reclaimed.
func (pg *Page) ClearBit(i uint32) {
	base := bitmapBase()
	byteIdx := base + uint16(i/8)
	pg.Data[byteIdx] &^= 1 << (i % 8)
	pg.Dirty = true
}

// LowestClearBit returns the lowest bit index in [0, IDRangeSize) that is
// clear, and whether one exists. The heap manager uses this to assign
// the next record id on this page.
func (pg *Page) LowestClearBit() (uint32, bool) {
	base := bitmapBase()
	for byteIdx := uint16(0); byteIdx < BitmapSize; byteIdx++ {
		b := pg.Data[base+byteIdx]
		if b == 0xFF {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) == 0 {
				return uint32(byteIdx)*8 + uint32(bit), true
			}
		}
	}
	return 0, false
}
