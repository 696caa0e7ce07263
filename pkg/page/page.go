// Package page implements the fixed-size slotted page: the on-disk unit
// that both the catalog and the heap manager read and write.
//
// Layout (all values little-endian, packed):
//
//	[0 .. HeaderSize)                     PageHeader
//	[HeaderSize .. SlotRegionTop)         live payload bytes, growing forward
//	[SlotRegionTop .. PageSize-BitmapSize) slot directory, growing backward
//	[PageSize-BitmapSize .. PageSize)      1024-bit free-id bitmap
//
// SlotRegionTop is not stored explicitly; it is PageSize - BitmapSize -
// SlotCount*SlotSize, derived from the header's SlotCount field. This is
// the classic slotted-page arrangement (payload grows toward the middle
// from the front, the slot directory grows toward the middle from the
// back) which is what avoids the directory and the payload colliding as
// both grow — the header-first + forward-directory sketch in a page
// layout diagram only works if the two regions grow from opposite ends.
package page

import "encoding/binary"

const (
	// PageSize is the fixed size of every page file on disk.
	PageSize = 8192

	// NoPage is the sentinel page id meaning "no page" (next_page_id,
	// free_page_id, etc).
	NoPage = ^uint32(0)

	// CatalogPageID is the reserved page id for the catalog page.
	CatalogPageID = 0

	// IDRangeSize is the number of record identifiers a single page may
	// host: id_range_end - id_range_start is always exactly this.
	IDRangeSize = 1024

	// BitmapSize is the byte size of the trailing free-id bitmap
	// (1024 bits).
	BitmapSize = IDRangeSize / 8

	// SlotSize is the byte size of one slot directory entry:
	// offset(2) + length(2) + flags(1) + record_id(4).
	SlotSize = 9

	// HeaderSize is the byte size of the fixed PageHeader.
	HeaderSize = 27
)

// Page-level flag bits (PageHeader.Flags).
const (
	FlagDirty    uint8 = 1 << 0
	FlagOverflow uint8 = 1 << 1
)

// Slot flag bits (Slot.Flags). A slot is OCCUPIED xor DELETED, never both.
const (
	SlotOccupied uint8 = 1 << 0
	SlotDeleted  uint8 = 1 << 1
)

const (
	offPageID          = 0
	offSlotCount       = 4
	offFreeSpace       = 6
	offFreeSpaceOffset = 8
	offNextPageID      = 10
	offFlags           = 14
	offLSN             = 15
	offIDRangeStart    = 19
	offIDRangeEnd      = 23
)

// Page is the in-memory representation of one 8192-byte page. Data is
// always exactly PageSize bytes; callers never see a partial buffer.
type Page struct {
	Data  [PageSize]byte
	Dirty bool
}

// NewPage zeroes a fresh page and stamps the fields every page needs
// regardless of what will be stored in it (id, links, id range).
func NewPage(pageID, nextPageID uint32, idRangeStart uint32) *Page {
	pg := &Page{}
	pg.SetPageID(pageID)
	pg.SetSlotCount(0)
	pg.setFreeSpace(PageSize - BitmapSize - HeaderSize)
	pg.setFreeSpaceOffset(HeaderSize)
	pg.SetNextPageID(nextPageID)
	pg.SetFlags(0)
	pg.SetLSN(0)
	pg.SetIDRange(idRangeStart, idRangeStart+IDRangeSize)
	pg.Dirty = true
	return pg
}

func (pg *Page) PageID() uint32        { return binary.LittleEndian.Uint32(pg.Data[offPageID:]) }
func (pg *Page) SetPageID(id uint32)   { binary.LittleEndian.PutUint32(pg.Data[offPageID:], id) }
func (pg *Page) SlotCount() uint16     { return binary.LittleEndian.Uint16(pg.Data[offSlotCount:]) }
func (pg *Page) SetSlotCount(n uint16) { binary.LittleEndian.PutUint16(pg.Data[offSlotCount:], n) }
func (pg *Page) FreeSpace() uint16     { return binary.LittleEndian.Uint16(pg.Data[offFreeSpace:]) }
func (pg *Page) setFreeSpace(n uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offFreeSpace:], n)
}
func (pg *Page) FreeSpaceOffset() uint16 {
	return binary.LittleEndian.Uint16(pg.Data[offFreeSpaceOffset:])
}
func (pg *Page) setFreeSpaceOffset(n uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offFreeSpaceOffset:], n)
}
func (pg *Page) NextPageID() uint32 { return binary.LittleEndian.Uint32(pg.Data[offNextPageID:]) }
func (pg *Page) SetNextPageID(id uint32) {
	binary.LittleEndian.PutUint32(pg.Data[offNextPageID:], id)
	pg.Dirty = true
}
func (pg *Page) Flags() uint8 { return pg.Data[offFlags] }
func (pg *Page) SetFlags(f uint8) {
	pg.Data[offFlags] = f
	pg.Dirty = true
}
func (pg *Page) LSN() uint32 { return binary.LittleEndian.Uint32(pg.Data[offLSN:]) }
func (pg *Page) SetLSN(lsn uint32) {
	binary.LittleEndian.PutUint32(pg.Data[offLSN:], lsn)
}
func (pg *Page) IDRangeStart() uint32 {
	return binary.LittleEndian.Uint32(pg.Data[offIDRangeStart:])
}
func (pg *Page) IDRangeEnd() uint32 {
	return binary.LittleEndian.Uint32(pg.Data[offIDRangeEnd:])
}
func (pg *Page) SetIDRange(start, end uint32) {
	binary.LittleEndian.PutUint32(pg.Data[offIDRangeStart:], start)
	binary.LittleEndian.PutUint32(pg.Data[offIDRangeEnd:], end)
}

// slotRegionTop is the first byte (from the front) occupied by the slot
// directory — the directory occupies [slotRegionTop, PageSize-BitmapSize).
func (pg *Page) slotRegionTop() uint16 {
	return PageSize - BitmapSize - pg.SlotCount()*SlotSize
}

// bitmapBase is the first byte of the trailing free-id bitmap.
func bitmapBase() uint16 { return PageSize - BitmapSize }
