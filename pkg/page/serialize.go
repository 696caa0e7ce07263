package page

import (
	"fmt"

	"minidb/pkg/storeerr"
)

// Marshal compacts pg — so no tombstone or shrink-gap ever reaches
// disk — and returns the resulting on-disk bytes. The in-memory DIRTY
// bit is never part of the encoding — only PageHeader.Flags, which
// callers manage explicitly, is persisted.
func (pg *Page) Marshal() []byte {
	pg.Compact()
	out := make([]byte, PageSize)
	copy(out, pg.Data[:])
	return out
}

// Unmarshal validates and loads buf (which must be exactly PageSize
// bytes) into a fresh Page. Every field that bounds a later slice
// operation is range-checked up front so a corrupt page fails here,
// not as a panic three calls deep into Get or Compact.
func Unmarshal(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, fmt.Errorf("page: buffer is %d bytes, want %d: %w",
			len(buf), PageSize, storeerr.ErrCorruption)
	}

	pg := &Page{}
	copy(pg.Data[:], buf)

	slotCount := pg.SlotCount()
	if slotCount > IDRangeSize {
		return nil, fmt.Errorf("page %d: slot_count %d exceeds %d: %w",
			pg.PageID(), slotCount, IDRangeSize, storeerr.ErrCorruption)
	}

	top := pg.slotRegionTop()
	if top > PageSize-BitmapSize {
		return nil, fmt.Errorf("page %d: slot directory overruns bitmap: %w",
			pg.PageID(), storeerr.ErrCorruption)
	}

	fso := pg.FreeSpaceOffset()
	if fso < HeaderSize || fso > top {
		return nil, fmt.Errorf("page %d: free_space_offset %d out of [%d,%d]: %w",
			pg.PageID(), fso, HeaderSize, top, storeerr.ErrCorruption)
	}

	for i := uint16(0); i < slotCount; i++ {
		s := pg.readSlot(i)
		if s.Flags&SlotOccupied == 0 {
			continue
		}
		end := int(s.Offset) + int(s.Length)
		if int(s.Offset) < HeaderSize || end > int(fso) {
			return nil, fmt.Errorf("page %d: slot %d payload [%d,%d) outside live region [%d,%d): %w",
				pg.PageID(), i, s.Offset, end, HeaderSize, fso, storeerr.ErrCorruption)
		}
	}

	idStart := pg.IDRangeStart()
	idEnd := pg.IDRangeEnd()
	if idEnd != idStart+IDRangeSize {
		return nil, fmt.Errorf("page %d: id range [%d,%d) is not width %d: %w",
			pg.PageID(), idStart, idEnd, IDRangeSize, storeerr.ErrCorruption)
	}

	return pg, nil
}
