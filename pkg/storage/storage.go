// Package storage wires the page codec, catalog, heap manager, row
// codec, and scan pipeline into the single Row interface the SQL
// executor (and any other caller) drives: create, insert, get,
// update, delete, scan, get_column_names, open, close, flush.
//
// DaemonDB's equivalent seam is storage_engine.StorageEngine, which
// owns a CatalogManager, a HeapFileManager, a BufferPool, and (for
// this teacher, unlike this engine) a B+Tree index manager per table.
// Storage plays the same owning-root role without the index: it is
// the one type a front-end constructs and holds for the lifetime of a
// session.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"minidb/pkg/catalog"
	"minidb/pkg/catalog/metacache"
	"minidb/pkg/heap"
	"minidb/pkg/row"
	"minidb/pkg/scan"
	"minidb/pkg/storeerr"
)

// Options configures a Storage instance. Kept as a plain struct, in
// DaemonDB's style of passing a handful of constructor arguments
// rather than a builder or functional options — there is exactly one
// knob here, but the shape leaves room to add more without breaking
// callers.
type Options struct {
	// Dir is the storage directory: one page_<id>.dat file per page,
	// page 0 reserved for the catalog.
	Dir string
}

// Storage is the engine's single owning root: the catalog, the
// metadata cache in front of it, and the heap manager's page cache all
// live exactly as long as a Storage does.
type Storage struct {
	opts  Options
	meta  *metacache.Cache
	cache *heap.Cache
	heapM *heap.Manager
	isOpen bool
}

const catalogPagePath = "page_0.dat"

// Open creates dir if it does not exist, loads page 0 if present (else
// initializes a fresh catalog), and marks the store open.
func Open(opts Options) (*Storage, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", opts.Dir, err)
	}

	cat, err := loadOrInitCatalog(opts.Dir)
	if err != nil {
		return nil, err
	}

	meta, err := metacache.New(cat)
	if err != nil {
		return nil, fmt.Errorf("storage: metacache: %w", err)
	}

	cacheDir := opts.Dir
	cache := heap.NewCache(cacheDir)

	return &Storage{
		opts:   opts,
		meta:   meta,
		cache:  cache,
		heapM:  heap.New(cache, meta),
		isOpen: true,
	}, nil
}

func loadOrInitCatalog(dir string) (*catalog.Catalog, error) {
	buf, err := os.ReadFile(filepath.Join(dir, catalogPagePath))
	if os.IsNotExist(err) {
		return catalog.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read catalog: %w", err)
	}
	cat, err := catalog.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("storage: load catalog: %w", err)
	}
	return cat, nil
}

func (s *Storage) requireOpen() error {
	if !s.isOpen {
		return storeerr.ErrNotOpen
	}
	return nil
}

// Create registers a new table with the given columns.
func (s *Storage) Create(table string, columns []catalog.Column) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return s.meta.AddTable(table, columns)
}

// DropTable removes table's catalog entry and threads its entire data
// page chain onto the catalog free list, so a later Insert on any
// table reclaims the pages instead of growing the file set further.
// remove_table itself (spec.md §4.2) is defined on the catalog but
// never called by any CORE write path; this is the supplemented
// operation that gives it a real caller.
func (s *Storage) DropTable(table string) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	meta, err := s.meta.GetTable(table)
	if err != nil {
		return err
	}
	if err := s.heapM.FreeTablePages(meta.FirstDataPage); err != nil {
		return err
	}
	return s.meta.RemoveTable(table)
}

// Insert encodes values against table's schema and assigns it a fresh
// record id.
func (s *Storage) Insert(table string, values []string) (uint32, error) {
	if err := s.requireOpen(); err != nil {
		return 0, err
	}
	meta, err := s.meta.GetTable(table)
	if err != nil {
		return 0, err
	}
	payload, err := row.Encode(meta.Columns, values)
	if err != nil {
		return 0, err
	}
	return s.heapM.Insert(table, payload)
}

// Get decodes the row stored under recordID.
func (s *Storage) Get(table string, recordID uint32) ([]string, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	meta, err := s.meta.GetTable(table)
	if err != nil {
		return nil, err
	}
	payload, err := s.heapM.Get(table, recordID)
	if err != nil {
		return nil, err
	}
	return row.Decode(meta.Columns, payload)
}

// Update re-encodes values and rewrites recordID's payload in place.
func (s *Storage) Update(table string, recordID uint32, values []string) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	meta, err := s.meta.GetTable(table)
	if err != nil {
		return err
	}
	payload, err := row.Encode(meta.Columns, values)
	if err != nil {
		return err
	}
	return s.heapM.Update(table, recordID, payload)
}

// Delete tombstones recordID.
func (s *Storage) Delete(table string, recordID uint32) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return s.heapM.Delete(table, recordID)
}

// GetColumnNames returns table's schema column names in order.
func (s *Storage) GetColumnNames(table string) ([]string, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	meta, err := s.meta.GetTable(table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		names[i] = c.Name
	}
	return names, nil
}

// Scan materializes table's rows and runs plan's filter/projection/
// sort/limit/aggregate stages over them.
func (s *Storage) Scan(table string, plan scan.Plan) ([][]string, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	meta, err := s.meta.GetTable(table)
	if err != nil {
		return nil, err
	}

	pages, err := s.heapM.AllPages(table)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, pg := range pages {
		for _, rec := range pg.Occupied() {
			decoded, err := row.Decode(meta.Columns, rec.Payload)
			if err != nil {
				continue
			}
			rows = append(rows, decoded)
		}
	}

	return scan.Run(rows, plan)
}

// RowsWithIDs returns every live row in table alongside the record id
// it is stored under, in page-chain order. Unlike Scan, nothing is
// filtered, projected, or reordered — the SQL executor's DELETE...WHERE
// and JOIN paths need the id a matching row came from, which the pure
// filter/project/sort/limit/aggregate pipeline in pkg/scan has no
// reason to carry.
func (s *Storage) RowsWithIDs(table string) ([]uint32, [][]string, error) {
	if err := s.requireOpen(); err != nil {
		return nil, nil, err
	}
	meta, err := s.meta.GetTable(table)
	if err != nil {
		return nil, nil, err
	}

	pages, err := s.heapM.AllPages(table)
	if err != nil {
		return nil, nil, err
	}

	var ids []uint32
	var rows [][]string
	for _, pg := range pages {
		for _, rec := range pg.Occupied() {
			decoded, err := row.Decode(meta.Columns, rec.Payload)
			if err != nil {
				continue
			}
			ids = append(ids, rec.RecordID)
			rows = append(rows, decoded)
		}
	}
	return ids, rows, nil
}

// Flush writes every dirty cached page and, if dirty, the catalog.
func (s *Storage) Flush() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if err := s.heapM.Flush(); err != nil {
		return err
	}

	cat := s.meta.Catalog()
	if !cat.Dirty {
		return nil
	}
	if err := os.WriteFile(filepath.Join(s.opts.Dir, catalogPagePath), cat.Marshal(), 0644); err != nil {
		return fmt.Errorf("storage: flush catalog: %w", err)
	}
	cat.Dirty = false
	return nil
}

// Close flushes and marks the store closed. Idempotent.
func (s *Storage) Close() error {
	if !s.isOpen {
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	s.meta.Close()
	s.isOpen = false
	return nil
}
