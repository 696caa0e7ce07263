package page

import (
	"fmt"

	"minidb/pkg/storeerr"
)

// Insert places payload under a brand-new slot carrying recordID and
// returns that slot's directory index. Unlike a page design that
// recycles tombstoned slots, this one never reuses a directory entry —
// a record id that is re-inserted after a delete gets a fresh slot whose
// record_id happens to match the old one (see findOccupiedSlot, which
// scans front-to-back and so always prefers the live entry).
func (pg *Page) Insert(recordID uint32, payload []byte) (uint16, error) {
	need := SlotSize + len(payload)

	if pg.contiguousFree() < need {
		pg.Compact()
	}
	if pg.contiguousFree() < need {
		return 0, fmt.Errorf("page %d: need %d bytes, only %d free: %w",
			pg.PageID(), need, pg.contiguousFree(), storeerr.ErrNoSpace)
	}

	offset := pg.FreeSpaceOffset()
	copy(pg.Data[offset:], payload)

	slotIdx := pg.SlotCount()
	pg.writeSlot(slotIdx, Slot{
		Offset:   offset,
		Length:   uint16(len(payload)),
		Flags:    SlotOccupied,
		RecordID: recordID,
	})

	pg.setFreeSpaceOffset(offset + uint16(len(payload)))
	pg.SetSlotCount(slotIdx + 1)
	pg.setFreeSpace(pg.FreeSpace() - uint16(need))
	pg.SetLSN(pg.LSN() + 1)
	pg.Dirty = true

	return slotIdx, nil
}

// Get returns a copy of the payload stored under recordID, scanning the
// directory for the first OCCUPIED slot with a matching id.
func (pg *Page) Get(recordID uint32) ([]byte, bool) {
	_, s, ok := pg.findOccupiedSlot(recordID)
	if !ok {
		return nil, false
	}
	out := make([]byte, s.Length)
	copy(out, pg.Data[s.Offset:s.Offset+s.Length])
	return out, true
}

// Update rewrites the payload stored under recordID. Three cases:
//
//	new <= old:                  overwrite in place, reclaim the slack.
//	new >  old, new <= old+free: compact (excluding this slot's current
//	                              footprint), then append the bigger
//	                              payload at the tail.
//	otherwise:                   fail — there is no overflow page.
func (pg *Page) Update(recordID uint32, newPayload []byte) (bool, error) {
	idx, s, ok := pg.findOccupiedSlot(recordID)
	if !ok {
		return false, fmt.Errorf("record %d: %w", recordID, storeerr.ErrNotFound)
	}

	newLen := uint16(len(newPayload))

	if newLen <= s.Length {
		delta := s.Length - newLen
		copy(pg.Data[s.Offset:], newPayload)
		pg.writeSlot(idx, Slot{Offset: s.Offset, Length: newLen, Flags: SlotOccupied, RecordID: recordID})
		pg.setFreeSpace(pg.FreeSpace() + delta)
		pg.SetLSN(pg.LSN() + 1)
		pg.Dirty = true
		return true, nil
	}

	grow := newLen - s.Length
	if grow > pg.FreeSpace() {
		return false, fmt.Errorf("record %d: need %d more bytes, only %d free: %w",
			recordID, grow, pg.FreeSpace(), storeerr.ErrNoSpace)
	}

	pg.compactExcluding(idx)

	offset := pg.FreeSpaceOffset()
	copy(pg.Data[offset:], newPayload)
	pg.writeSlot(idx, Slot{Offset: offset, Length: newLen, Flags: SlotOccupied, RecordID: recordID})
	pg.setFreeSpaceOffset(offset + newLen)
	pg.setFreeSpace(pg.FreeSpace() - newLen)
	pg.SetLSN(pg.LSN() + 1)
	pg.Dirty = true

	return true, nil
}

// Delete tombstones the slot holding recordID. The slot's length field
// is preserved (not zeroed) — compaction skips tombstones by flag, not
// by length — and physical space is reclaimed only by a later Compact.
// The id's bitmap bit is always cleared, whether or not the slot is
// ever physically reclaimed.
func (pg *Page) Delete(recordID uint32) bool {
	idx, s, ok := pg.findOccupiedSlot(recordID)
	if !ok {
		return false
	}
	s.Flags = SlotDeleted
	pg.writeSlot(idx, s)
	pg.ClearBit(recordID - pg.IDRangeStart())
	pg.SetLSN(pg.LSN() + 1)
	pg.Dirty = true
	return true
}

// OccupiedRecord is one live slot's record id and payload, as returned
// by Occupied.
type OccupiedRecord struct {
	RecordID uint32
	Payload  []byte
}

// Occupied returns every live record on the page, in directory order —
// the materialize stage of the scan pipeline walks a table's pages
// calling this rather than probing by id.
func (pg *Page) Occupied() []OccupiedRecord {
	n := pg.SlotCount()
	out := make([]OccupiedRecord, 0, n)
	for i := uint16(0); i < n; i++ {
		s := pg.readSlot(i)
		if s.Flags&SlotOccupied == 0 {
			continue
		}
		payload := make([]byte, s.Length)
		copy(payload, pg.Data[s.Offset:s.Offset+s.Length])
		out = append(out, OccupiedRecord{RecordID: s.RecordID, Payload: payload})
	}
	return out
}

// contiguousFree is the free byte count between the live payload
// high-water mark and the top of the slot directory — the space an
// Insert can use without first compacting.
func (pg *Page) contiguousFree() int {
	top := int(pg.slotRegionTop())
	off := int(pg.FreeSpaceOffset())
	if top < off {
		return 0
	}
	return top - off
}

// Compact rebuilds the payload region by copying every OCCUPIED slot's
// bytes tightly after the header, in directory order, and rewriting
// each slot's offset. Tombstoned slots keep their directory entry (with
// its old length) but are skipped here and are never revisited for
// reuse.
func (pg *Page) Compact() {
	pg.compactExcluding(pg.SlotCount())
}

// compactExcluding behaves like Compact but additionally skips slot
// skipIdx, whose current footprint becomes orphaned waste (exactly as
// a tombstone's would). Update's grow path uses this to free the slot's
// old bytes before appending the slot's bigger replacement at the tail.
func (pg *Page) compactExcluding(skipIdx uint16) {
	n := pg.SlotCount()
	cursor := uint16(HeaderSize)
	occupied := uint16(0)

	// Payloads are gathered into a scratch copy first: after a grow-update
	// the directory order no longer matches payload order, so moving bytes
	// in place could overwrite a payload that has not been moved yet.
	var packed [PageSize]byte
	for i := uint16(0); i < n; i++ {
		if i == skipIdx {
			continue
		}
		s := pg.readSlot(i)
		if s.Flags&SlotOccupied == 0 {
			continue
		}
		copy(packed[cursor:cursor+s.Length], pg.Data[s.Offset:s.Offset+s.Length])
		if s.Offset != cursor {
			s.Offset = cursor
			pg.writeSlot(i, s)
		}
		cursor += s.Length
		occupied += s.Length
	}
	copy(pg.Data[HeaderSize:cursor], packed[HeaderSize:cursor])

	pg.setFreeSpaceOffset(cursor)
	pg.setFreeSpace(PageSize - BitmapSize - HeaderSize - n*SlotSize - occupied)
	pg.Dirty = true
}
