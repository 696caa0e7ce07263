// Package heap threads pages into per-table chains, assigns record
// identifiers out of per-page id ranges, and maintains the write-back
// page cache both read through.
package heap

import (
	"fmt"
	"os"
	"path/filepath"

	"minidb/pkg/page"
)

// Cache is the process-wide page cache: a map from page id to cached
// page, load-on-miss, unbounded. This is DaemonDB's BufferPool with
// the LRU machinery (accessOrder, pin counts, eviction, WAL gating)
// removed — the spec is explicit that this cache never evicts, so the
// parts of the teacher's bufferpool whose entire job is deciding what
// to evict have no job left to do here.
type Cache struct {
	dir   string
	pages map[uint32]*page.Page
}

// NewCache opens a cache rooted at dir. dir must already exist.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir, pages: make(map[uint32]*page.Page)}
}

func (c *Cache) pagePath(id uint32) string {
	return filepath.Join(c.dir, fmt.Sprintf("page_%d.dat", id))
}

// Fetch returns the cached page for id, loading it from disk on a
// cache miss. The returned page is owned by the cache; callers mutate
// it in place and the cache's next Flush persists the result.
func (c *Cache) Fetch(id uint32) (*page.Page, error) {
	if pg, ok := c.pages[id]; ok {
		return pg, nil
	}

	fmt.Printf("[PageCache] MISS page=%d, loading from disk\n", id)
	buf, err := os.ReadFile(c.pagePath(id))
	if err != nil {
		return nil, fmt.Errorf("heap: read page %d: %w", id, err)
	}
	pg, err := page.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("heap: page %d: %w", id, err)
	}
	pg.Dirty = false
	c.pages[id] = pg
	return pg, nil
}

// NewPage allocates a brand-new page in memory and adds it to the
// cache, dirty, without touching disk. The next Flush writes it out.
func (c *Cache) NewPage(id, nextPageID, idRangeStart uint32) *page.Page {
	pg := page.NewPage(id, nextPageID, idRangeStart)
	c.pages[id] = pg
	return pg
}

// Put inserts an already-constructed page into the cache, replacing any
// cached page with the same id.
func (c *Cache) Put(id uint32, pg *page.Page) {
	c.pages[id] = pg
}

// Flush writes every dirty cached page to disk and clears each page's
// dirty bit on success.
func (c *Cache) Flush() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("heap: flush: %w", err)
	}
	for id, pg := range c.pages {
		if !pg.Dirty {
			continue
		}
		if err := os.WriteFile(c.pagePath(id), pg.Marshal(), 0644); err != nil {
			return fmt.Errorf("heap: flush page %d: %w", id, err)
		}
		pg.Dirty = false
	}
	return nil
}
