// Package catalog implements the page-0 resident registry of tables and
// their schemas, and the free-page list used by the heap manager.
//
// Unlike the teacher's catalog (a map persisted as a pair of JSON files
// under a per-database metadata directory), this catalog is a single
// packed binary page — page 0 — following exactly the same
// binary.LittleEndian field-at-a-time style as pkg/page. The map-backed
// in-memory shape survives (TableExists, GetTable, etc. all still hit a
// map first) but the persisted form is page.Page-compatible.
package catalog

import (
	"bytes"
	"fmt"

	"minidb/pkg/page"
	"minidb/pkg/storeerr"
)

const (
	// HeaderSize is the byte size of CatalogHeader: table_count(4) +
	// free_page_id(4) + system_page_count(4) + flags(1) + lsn(4).
	HeaderSize = 17

	maxColumns     = 16
	columnName     = 32
	tableName      = 64
	columnSize     = columnName + 1 + 2 // name + type + size
	tableEntrySize = tableName + 4 + 4 + 4 + 4 + 1 + maxColumns*columnSize + 4
)

// MaxTables is the spec's stated ceiling (256), clamped to however many
// TableMetadata entries actually fit after the header on one 8192-byte
// page. With the field widths §3 specifies, that works out below 256 —
// the spec's "at most 256" is the type's ceiling, not a promise that
// 256 entries fit in a single page.
var MaxTables = func() int {
	n := (page.PageSize - HeaderSize) / tableEntrySize
	if n > 256 {
		n = 256
	}
	return n
}()

// ColumnType is one of the two scalar types this engine supports.
type ColumnType uint8

const (
	ColumnInt  ColumnType = 0
	ColumnText ColumnType = 1
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInt:
		return "INT"
	case ColumnText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// ParseColumnType maps a SQL type keyword to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "INT":
		return ColumnInt, nil
	case "TEXT":
		return ColumnText, nil
	default:
		return 0, fmt.Errorf("unknown column type %q: %w", s, storeerr.ErrInvalidArgument)
	}
}

// Column describes one field of a table's schema.
type Column struct {
	Name string
	Type ColumnType
	Size uint16
}

// TableMetadata is one catalog entry: a table's page-chain anchors,
// record count, and schema.
type TableMetadata struct {
	Name          string
	FirstDataPage uint32
	LastDataPage  uint32
	RecordCount   uint32
	FreeSpaceHead uint32 // reserved, unused by any operation
	Columns       []Column
	NextIDBlock   uint32
}

// Catalog is the in-memory, page-0-backed registry. tables is keyed by
// name; order preserves insertion order so Marshal and AllTables emit
// tables in the order AddTable registered them.
type Catalog struct {
	FreePageID        uint32
	SystemPageCount   uint32
	LSN               uint32
	Dirty             bool
	order             []string
	tables            map[string]*TableMetadata
}

// New returns an empty catalog: no tables, no free pages, and the
// system page watermark past page 0 (the catalog itself).
func New() *Catalog {
	return &Catalog{
		FreePageID:      page.NoPage,
		SystemPageCount: 1,
		tables:          make(map[string]*TableMetadata),
	}
}

// AddTable registers a new, empty table. Rejects a duplicate name or a
// catalog already at capacity.
func (c *Catalog) AddTable(name string, columns []Column) error {
	if _, exists := c.tables[name]; exists {
		return fmt.Errorf("table %q: %w", name, storeerr.ErrAlreadyExists)
	}
	if len(c.tables) >= MaxTables {
		return fmt.Errorf("catalog full at %d tables: %w", MaxTables, storeerr.ErrNoSpace)
	}
	if len(columns) > maxColumns {
		return fmt.Errorf("table %q: %d columns exceeds limit %d: %w",
			name, len(columns), maxColumns, storeerr.ErrInvalidArgument)
	}

	c.tables[name] = &TableMetadata{
		Name:          name,
		FirstDataPage: page.NoPage,
		LastDataPage:  page.NoPage,
		Columns:       columns,
	}
	c.order = append(c.order, name)
	c.LSN++
	c.Dirty = true
	return nil
}

// GetTable returns the named table's metadata.
func (c *Catalog) GetTable(name string) (*TableMetadata, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, storeerr.ErrNotFound)
	}
	return t, nil
}

// TableExists reports whether name is registered.
func (c *Catalog) TableExists(name string) bool {
	_, ok := c.tables[name]
	return ok
}

// UpdateTable overwrites the stored metadata for meta.Name.
func (c *Catalog) UpdateTable(meta *TableMetadata) error {
	if _, ok := c.tables[meta.Name]; !ok {
		return fmt.Errorf("table %q: %w", meta.Name, storeerr.ErrNotFound)
	}
	c.tables[meta.Name] = meta
	c.LSN++
	c.Dirty = true
	return nil
}

// RemoveTable deletes a table's catalog entry only — it knows nothing
// about data pages, since the catalog has no notion of the heap
// manager's page chains. Storage.DropTable calls this after it has
// already threaded the table's pages onto the free list itself.
func (c *Catalog) RemoveTable(name string) error {
	if _, ok := c.tables[name]; !ok {
		return fmt.Errorf("table %q: %w", name, storeerr.ErrNotFound)
	}
	delete(c.tables, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.LSN++
	c.Dirty = true
	return nil
}

// AllTables returns every table's metadata in registration order.
func (c *Catalog) AllTables() []*TableMetadata {
	out := make([]*TableMetadata, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.tables[n])
	}
	return out
}

// AllocatePage hands out a page id. A real free-list, threaded through
// each freed page's own next_page_id field, is consulted first —
// resolving the spec's noted inconsistency (a free_page_id that is
// merely incremented is not a free list at all) in favor of option (a)
// from the design notes: thread a genuine list through next_page_id.
// freedPageNext is the next_page_id currently stored on the page at
// FreePageID, supplied by the caller (the heap manager, which already
// has that page loaded) so this package never has to load a page
// itself.
func (c *Catalog) AllocatePage(freedPageNext uint32) uint32 {
	if c.FreePageID != page.NoPage {
		id := c.FreePageID
		c.FreePageID = freedPageNext
		c.Dirty = true
		return id
	}
	id := c.SystemPageCount
	c.SystemPageCount++
	c.Dirty = true
	return id
}

// FreePage pushes pageID onto the head of the free list. The caller is
// responsible for having already set pageID's on-disk next_page_id to
// the catalog's FreePageID *before* calling this (so the chain link is
// persisted), matching the order AllocatePage expects to unwind it in.
func (c *Catalog) FreePage(pageID uint32) {
	c.FreePageID = pageID
	c.Dirty = true
}

// Marshal serializes the catalog into an 8192-byte page-0 buffer. The
// on-disk flags byte is always written CLEAN, even when the in-memory
// catalog is dirty — the same rule the spec states for page 0's flags.
func (c *Catalog) Marshal() []byte {
	buf := make([]byte, page.PageSize)

	putU32(buf[0:], uint32(len(c.order)))
	putU32(buf[4:], c.FreePageID)
	putU32(buf[8:], c.SystemPageCount)
	buf[12] = 0 // CLEAN, regardless of c.Dirty
	putU32(buf[13:], c.LSN)

	off := HeaderSize
	for _, name := range c.order {
		t := c.tables[name]
		marshalTable(buf[off:off+tableEntrySize], t)
		off += tableEntrySize
	}
	return buf
}

// Unmarshal loads a catalog from a page-0 buffer previously produced by
// Marshal. buf must be exactly page.PageSize bytes.
func Unmarshal(buf []byte) (*Catalog, error) {
	if len(buf) != page.PageSize {
		return nil, fmt.Errorf("catalog: buffer is %d bytes, want %d: %w",
			len(buf), page.PageSize, storeerr.ErrCorruption)
	}

	tableCount := getU32(buf[0:])
	if tableCount > uint32(MaxTables) {
		return nil, fmt.Errorf("catalog: table_count %d exceeds capacity %d: %w",
			tableCount, MaxTables, storeerr.ErrCorruption)
	}

	c := New()
	c.FreePageID = getU32(buf[4:])
	c.SystemPageCount = getU32(buf[8:])
	c.LSN = getU32(buf[13:])

	off := HeaderSize
	needed := off + int(tableCount)*tableEntrySize
	if needed > page.PageSize {
		return nil, fmt.Errorf("catalog: %d tables overruns page: %w",
			tableCount, storeerr.ErrCorruption)
	}

	for i := uint32(0); i < tableCount; i++ {
		t, err := unmarshalTable(buf[off : off+tableEntrySize])
		if err != nil {
			return nil, err
		}
		c.tables[t.Name] = t
		c.order = append(c.order, t.Name)
		off += tableEntrySize
	}
	return c, nil
}

func marshalTable(buf []byte, t *TableMetadata) {
	putCString(buf[0:tableName], t.Name)
	o := tableName
	putU32(buf[o:], t.FirstDataPage)
	o += 4
	putU32(buf[o:], t.LastDataPage)
	o += 4
	putU32(buf[o:], t.RecordCount)
	o += 4
	putU32(buf[o:], t.FreeSpaceHead)
	o += 4
	buf[o] = uint8(len(t.Columns))
	o++

	colBase := o
	for i := 0; i < maxColumns; i++ {
		entry := buf[colBase+i*columnSize : colBase+(i+1)*columnSize]
		if i < len(t.Columns) {
			col := t.Columns[i]
			putCString(entry[0:columnName], col.Name)
			entry[columnName] = uint8(col.Type)
			putU16(entry[columnName+1:], col.Size)
		}
	}
	o = colBase + maxColumns*columnSize
	putU32(buf[o:], t.NextIDBlock)
}

func unmarshalTable(buf []byte) (*TableMetadata, error) {
	t := &TableMetadata{}
	t.Name = getCString(buf[0:tableName])
	if len(t.Name) > tableName-1 {
		return nil, fmt.Errorf("catalog: table name exceeds %d bytes: %w", tableName-1, storeerr.ErrCorruption)
	}

	o := tableName
	t.FirstDataPage = getU32(buf[o:])
	o += 4
	t.LastDataPage = getU32(buf[o:])
	o += 4
	t.RecordCount = getU32(buf[o:])
	o += 4
	t.FreeSpaceHead = getU32(buf[o:])
	o += 4
	colCount := int(buf[o])
	o++
	if colCount > maxColumns {
		return nil, fmt.Errorf("catalog: table %q column_count %d exceeds %d: %w",
			t.Name, colCount, maxColumns, storeerr.ErrCorruption)
	}

	colBase := o
	for i := 0; i < colCount; i++ {
		entry := buf[colBase+i*columnSize : colBase+(i+1)*columnSize]
		name := getCString(entry[0:columnName])
		typ := ColumnType(entry[columnName])
		if typ != ColumnInt && typ != ColumnText {
			return nil, fmt.Errorf("catalog: table %q column %q has unknown type %d: %w",
				t.Name, name, typ, storeerr.ErrCorruption)
		}
		t.Columns = append(t.Columns, Column{
			Name: name,
			Type: typ,
			Size: getU16(entry[columnName+1:]),
		})
	}
	o = colBase + maxColumns*columnSize
	t.NextIDBlock = getU32(buf[o:])

	return t, nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func getU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func putCString(b []byte, s string) {
	n := copy(b, s)
	for i := n; i < len(b); i++ {
		b[i] = 0
	}
}

func getCString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
