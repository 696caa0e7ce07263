package heap

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"minidb/pkg/catalog"
	"minidb/pkg/catalog/metacache"
	"minidb/pkg/page"
)

func newTestManager(t *testing.T) (*Manager, string) {
	dir, err := os.MkdirTemp("", "minidb-heap-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}

	cat := catalog.New()
	if err := cat.AddTable("widgets", []catalog.Column{{Name: "v", Type: catalog.ColumnText, Size: 64}}); err != nil {
		t.Fatalf("add table: %v", err)
	}
	mc, err := metacache.New(cat)
	if err != nil {
		t.Fatalf("new metacache: %v", err)
	}

	return New(NewCache(dir), mc), dir
}

func TestInsertAssignsSequentialUniqueIDs(t *testing.T) {
	mgr, dir := newTestManager(t)
	defer os.RemoveAll(dir)

	seen := make(map[uint32]bool)
	for i := 0; i < 5; i++ {
		id, err := mgr.Insert("widgets", []byte(fmt.Sprintf("row-%d", i)))
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate record id %d", id)
		}
		if id != uint32(i)+1 {
			t.Fatalf("insert %d: id = %d, want %d", i, id, i+1)
		}
		seen[id] = true
		fmt.Printf("inserted row %d -> id %d\n", i, id)
	}
}

func TestInsertGetUpdateDeleteLifecycle(t *testing.T) {
	mgr, dir := newTestManager(t)
	defer os.RemoveAll(dir)

	id, err := mgr.Insert("widgets", []byte("hello"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := mgr.Get("widgets", id)
	if err != nil || !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("get after insert: %q err=%v", got, err)
	}

	if err := mgr.Update("widgets", id, []byte("bye")); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = mgr.Get("widgets", id)
	if err != nil || !bytes.Equal(got, []byte("bye")) {
		t.Fatalf("get after update: %q err=%v", got, err)
	}

	if err := mgr.Delete("widgets", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := mgr.Get("widgets", id); err == nil {
		t.Fatalf("expected NotFound after delete")
	}
}

func TestInsertSpillsToNewPageWhenFull(t *testing.T) {
	mgr, dir := newTestManager(t)
	defer os.RemoveAll(dir)

	// Each payload plus its slot entry is large enough that well under
	// 1024 inserts exhausts one page's contiguous free space, forcing a
	// second page onto the chain well before the per-page id range
	// (1024 ids) would itself run out.
	payload := bytes.Repeat([]byte{'x'}, 200)
	var lastID uint32
	for i := 0; i < 60; i++ {
		id, err := mgr.Insert("widgets", payload)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		lastID = id
	}

	pages, err := mgr.AllPages("widgets")
	if err != nil {
		t.Fatalf("all pages: %v", err)
	}
	if len(pages) < 2 {
		t.Fatalf("expected the chain to have spilled onto a second page, got %d pages", len(pages))
	}
	fmt.Printf("chain grew to %d pages, last id %d\n", len(pages), lastID)
}

func TestFreeTablePagesThenInsertReusesFreedPage(t *testing.T) {
	mgr, dir := newTestManager(t)
	defer os.RemoveAll(dir)

	if _, err := mgr.Insert("widgets", []byte("orphan")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	meta, err := mgr.meta.GetTable("widgets")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	freedFirst := meta.FirstDataPage

	if err := mgr.FreeTablePages(meta.FirstDataPage); err != nil {
		t.Fatalf("free table pages: %v", err)
	}

	cat := mgr.meta.Catalog()
	if cat.FreePageID != freedFirst {
		t.Fatalf("FreePageID = %d, want %d", cat.FreePageID, freedFirst)
	}

	if err := mgr.meta.AddTable("gadgets", []catalog.Column{{Name: "v", Type: catalog.ColumnText, Size: 64}}); err != nil {
		t.Fatalf("add table: %v", err)
	}
	newID, err := mgr.Insert("gadgets", []byte("reused"))
	if err != nil {
		t.Fatalf("insert into gadgets: %v", err)
	}
	fmt.Printf("reused page %d for gadgets's first insert (id %d)\n", freedFirst, newID)

	if cat.FreePageID != page.NoPage {
		t.Fatalf("FreePageID after reuse = %d, want NoPage (only one page was on the list)", cat.FreePageID)
	}

	got, err := mgr.Get("gadgets", newID)
	if err != nil || !bytes.Equal(got, []byte("reused")) {
		t.Fatalf("get after reuse: %q err=%v", got, err)
	}
}

func TestFlushPersistsAcrossReopen(t *testing.T) {
	dir, err := os.MkdirTemp("", "minidb-heap-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	defer os.RemoveAll(dir)

	cat := catalog.New()
	cat.AddTable("widgets", []catalog.Column{{Name: "v", Type: catalog.ColumnText, Size: 64}})
	mc, _ := metacache.New(cat)
	mgr := New(NewCache(dir), mc)

	id, err := mgr.Insert("widgets", []byte("persisted"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mgr.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	mgr2 := New(NewCache(dir), mc)
	got, err := mgr2.Get("widgets", id)
	if err != nil || !bytes.Equal(got, []byte("persisted")) {
		t.Fatalf("get after reopen: %q err=%v", got, err)
	}
}
