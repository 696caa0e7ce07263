package heap

import (
	"fmt"

	"minidb/pkg/catalog"
	"minidb/pkg/catalog/metacache"
	"minidb/pkg/page"
	"minidb/pkg/storeerr"
)

// Manager is the heap half of the storage engine: it threads pages
// into per-table chains over a shared Cache, and turns catalog
// metadata plus per-page bitmaps into stable record identifiers.
type Manager struct {
	cache *Cache
	meta  *metacache.Cache
}

// New builds a heap manager over an already-open cache and metacache.
func New(cache *Cache, meta *metacache.Cache) *Manager {
	return &Manager{cache: cache, meta: meta}
}

// Insert walks table's page chain looking for a page with a free
// identifier slot; if none accepts the row, a new page is allocated
// and appended to the chain. Returns the assigned record id.
func (m *Manager) Insert(table string, payload []byte) (uint32, error) {
	meta, err := m.meta.GetTable(table)
	if err != nil {
		return 0, err
	}

	pageID := meta.FirstDataPage
	for pageID != page.NoPage {
		pg, err := m.cache.Fetch(pageID)
		if err != nil {
			return 0, err
		}
		bit, ok := pg.LowestClearBit()
		if !ok {
			pageID = pg.NextPageID()
			continue
		}
		recordID := pg.IDRangeStart() + bit
		if _, err := pg.Insert(recordID, payload); err != nil {
			pageID = pg.NextPageID()
			continue
		}
		pg.SetBit(bit)
		meta.RecordCount++
		if err := m.meta.UpdateTable(meta); err != nil {
			return 0, err
		}
		fmt.Printf("[Heap] INSERT table=%s id=%d page=%d\n", table, recordID, pg.PageID())
		return recordID, nil
	}

	return m.insertIntoNewPage(table, meta, payload)
}

// allocatePage pops the catalog's free list when it has a page to
// offer, else grows the system page watermark. Popping requires
// reading the freed page's own next_page_id off disk first: that value
// becomes the list's new head, per Catalog.AllocatePage's contract.
func (m *Manager) allocatePage() (uint32, error) {
	cat := m.meta.Catalog()
	if cat.FreePageID == page.NoPage {
		return m.meta.AllocatePage(page.NoPage), nil
	}
	freed, err := m.cache.Fetch(cat.FreePageID)
	if err != nil {
		return 0, err
	}
	return m.meta.AllocatePage(freed.NextPageID()), nil
}

// FreeTablePages walks table's full data-page chain and threads every
// page onto the catalog free list, in chain order. Used by
// Storage.DropTable to reclaim a dropped table's pages rather than
// leaking them.
func (m *Manager) FreeTablePages(firstDataPage uint32) error {
	pageID := firstDataPage
	for pageID != page.NoPage {
		pg, err := m.cache.Fetch(pageID)
		if err != nil {
			return err
		}
		next := pg.NextPageID()
		cat := m.meta.Catalog()
		pg.SetNextPageID(cat.FreePageID)
		cat.FreePage(pageID)
		pageID = next
	}
	return nil
}

func (m *Manager) insertIntoNewPage(table string, meta *catalog.TableMetadata, payload []byte) (uint32, error) {
	var idRangeStart uint32
	if meta.NextIDBlock == 0 {
		idRangeStart = 1
	} else {
		idRangeStart = meta.NextIDBlock*page.IDRangeSize + 1
	}

	newID, err := m.allocatePage()
	if err != nil {
		return 0, err
	}
	pg := m.cache.NewPage(newID, page.NoPage, idRangeStart)

	if _, err := pg.Insert(idRangeStart, payload); err != nil {
		return 0, err
	}
	pg.SetBit(0)

	if meta.LastDataPage != page.NoPage {
		prev, err := m.cache.Fetch(meta.LastDataPage)
		if err != nil {
			return 0, err
		}
		prev.SetNextPageID(newID)
	}
	if meta.FirstDataPage == page.NoPage {
		meta.FirstDataPage = newID
	}
	meta.LastDataPage = newID
	meta.RecordCount++
	meta.NextIDBlock++

	if err := m.meta.UpdateTable(meta); err != nil {
		return 0, err
	}
	fmt.Printf("[Heap] allocated page %d for table %s, id range starts at %d\n", newID, table, idRangeStart)
	return idRangeStart, nil
}

// Get walks table's page chain and returns the first occupied payload
// carrying recordID.
func (m *Manager) Get(table string, recordID uint32) ([]byte, error) {
	meta, err := m.meta.GetTable(table)
	if err != nil {
		return nil, err
	}

	pageID := meta.FirstDataPage
	for pageID != page.NoPage {
		pg, err := m.cache.Fetch(pageID)
		if err != nil {
			return nil, err
		}
		if payload, ok := pg.Get(recordID); ok {
			return payload, nil
		}
		pageID = pg.NextPageID()
	}
	return nil, fmt.Errorf("record %d in table %q: %w", recordID, table, storeerr.ErrNotFound)
}

// Update locates the page whose id range hosts recordID and rewrites
// its payload there. Updates never relocate a row across pages: a
// payload too big even after compaction fails outright rather than
// being retried on a different page.
func (m *Manager) Update(table string, recordID uint32, payload []byte) error {
	meta, err := m.meta.GetTable(table)
	if err != nil {
		return err
	}

	pageID := meta.FirstDataPage
	for pageID != page.NoPage {
		pg, err := m.cache.Fetch(pageID)
		if err != nil {
			return err
		}
		if recordID >= pg.IDRangeStart() && recordID < pg.IDRangeEnd() {
			if _, err := pg.Update(recordID, payload); err != nil {
				return fmt.Errorf("table %q: %w", table, err)
			}
			return nil
		}
		pageID = pg.NextPageID()
	}
	return fmt.Errorf("record %d in table %q not found for update: %w", recordID, table, storeerr.ErrNotFound)
}

// Delete locates the page whose id range contains recordID, tombstones
// it there, and decrements the table's record count. Page.Delete
// clears the bitmap bit as part of the same call.
func (m *Manager) Delete(table string, recordID uint32) error {
	meta, err := m.meta.GetTable(table)
	if err != nil {
		return err
	}

	pageID := meta.FirstDataPage
	for pageID != page.NoPage {
		pg, err := m.cache.Fetch(pageID)
		if err != nil {
			return err
		}
		if recordID >= pg.IDRangeStart() && recordID < pg.IDRangeEnd() {
			if !pg.Delete(recordID) {
				return fmt.Errorf("record %d in table %q: %w", recordID, table, storeerr.ErrNotFound)
			}
			meta.RecordCount--
			fmt.Printf("[Heap] DELETE table=%s id=%d page=%d\n", table, recordID, pg.PageID())
			return m.meta.UpdateTable(meta)
		}
		pageID = pg.NextPageID()
	}
	return fmt.Errorf("record %d in table %q: %w", recordID, table, storeerr.ErrNotFound)
}

// AllPages returns, in chain order, every page currently backing
// table. Used by the scan pipeline's materialize stage.
func (m *Manager) AllPages(table string) ([]*page.Page, error) {
	meta, err := m.meta.GetTable(table)
	if err != nil {
		return nil, err
	}

	var pages []*page.Page
	pageID := meta.FirstDataPage
	for pageID != page.NoPage {
		pg, err := m.cache.Fetch(pageID)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pg)
		pageID = pg.NextPageID()
	}
	return pages, nil
}

// Flush writes back every dirty page.
func (m *Manager) Flush() error {
	return m.cache.Flush()
}
