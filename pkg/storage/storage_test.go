package storage

import (
	"fmt"
	"os"
	"reflect"
	"testing"

	"minidb/pkg/catalog"
	"minidb/pkg/scan"
)

func openTestStorage(t *testing.T) (*Storage, string) {
	dir, err := os.MkdirTemp("", "minidb-storage-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, dir
}

func TestCreateInsertGet(t *testing.T) {
	s, dir := openTestStorage(t)
	defer os.RemoveAll(dir)

	if err := s.Create("users", []catalog.Column{
		{Name: "id", Type: catalog.ColumnInt, Size: 4},
		{Name: "age", Type: catalog.ColumnInt, Size: 4},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	id, err := s.Insert("users", []string{"1", "42"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 1 {
		t.Fatalf("first insert id = %d, want 1", id)
	}

	got, err := s.Get("users", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := []string{"1", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestUpdateThenDeleteRaisesNotFound(t *testing.T) {
	s, dir := openTestStorage(t)
	defer os.RemoveAll(dir)

	s.Create("people", []catalog.Column{
		{Name: "id", Type: catalog.ColumnInt, Size: 4},
		{Name: "name", Type: catalog.ColumnText, Size: 32},
	})
	r, err := s.Insert("people", []string{"7", "Bob"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.Update("people", r, []string{"7", "Alice"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get("people", r)
	if err != nil || !reflect.DeepEqual(got, []string{"7", "Alice"}) {
		t.Fatalf("get after update: %v err=%v", got, err)
	}

	if err := s.Delete("people", r); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("people", r); err == nil {
		t.Fatalf("expected NotFound after delete")
	}
}

func TestScanReturnsInsertionOrder(t *testing.T) {
	s, dir := openTestStorage(t)
	defer os.RemoveAll(dir)

	s.Create("scan_test", []catalog.Column{
		{Name: "id", Type: catalog.ColumnInt, Size: 4},
		{Name: "name", Type: catalog.ColumnText, Size: 16},
	})
	for _, row := range [][]string{{"1", "A"}, {"2", "B"}, {"3", "C"}} {
		if _, err := s.Insert("scan_test", row); err != nil {
			t.Fatalf("insert %v: %v", row, err)
		}
	}

	got, err := s.Scan("scan_test", scan.Plan{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := [][]string{{"1", "A"}, {"2", "B"}, {"3", "C"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanWithSumAggregate(t *testing.T) {
	s, dir := openTestStorage(t)
	defer os.RemoveAll(dir)

	s.Create("sumagg", []catalog.Column{
		{Name: "id", Type: catalog.ColumnInt, Size: 4},
		{Name: "val", Type: catalog.ColumnInt, Size: 4},
	})
	for _, row := range [][]string{{"1", "10"}, {"2", "20"}, {"3", "-5"}} {
		s.Insert("sumagg", row)
	}

	got, err := s.Scan("sumagg", scan.Plan{Aggregate: &scan.Aggregate{Op: scan.AggSum, Column: 1}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := [][]string{{"25"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPersistenceAcrossCloseAndReopen(t *testing.T) {
	s, dir := openTestStorage(t)
	defer os.RemoveAll(dir)

	s.Create("persist", []catalog.Column{
		{Name: "id", Type: catalog.ColumnInt, Size: 4},
		{Name: "name", Type: catalog.ColumnText, Size: 16},
	})
	r, err := s.Insert("persist", []string{"99", "Zed"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	fmt.Printf("closed store at %s, reopening\n", dir)

	s2, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := s2.Get("persist", r)
	if err != nil || !reflect.DeepEqual(got, []string{"99", "Zed"}) {
		t.Fatalf("get after reopen: %v err=%v", got, err)
	}
}

func TestDropTableReclaimsPagesOntoFreeList(t *testing.T) {
	s, dir := openTestStorage(t)
	defer os.RemoveAll(dir)

	s.Create("gone", []catalog.Column{{Name: "id", Type: catalog.ColumnInt, Size: 4}})
	if _, err := s.Insert("gone", []string{"1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cat := s.meta.Catalog()
	before := cat.FreePageID

	if err := s.DropTable("gone"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if cat.FreePageID == before {
		t.Fatalf("expected FreePageID to change after dropping a table with data pages")
	}

	s.Create("reuse", []catalog.Column{{Name: "id", Type: catalog.ColumnInt, Size: 4}})
	id, err := s.Insert("reuse", []string{"1"})
	if err != nil {
		t.Fatalf("insert into reuse: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}

	if _, err := s.Get("gone", id); err == nil {
		t.Fatalf("expected gone table to be unreachable after drop")
	}
}

func TestOperationsBeforeOpenOrAfterCloseRaiseNotOpen(t *testing.T) {
	var unopened Storage
	if _, err := unopened.Insert("t", []string{"1"}); err == nil {
		t.Fatalf("expected NotOpen before open")
	}

	s, dir := openTestStorage(t)
	defer os.RemoveAll(dir)

	s.Create("t", []catalog.Column{{Name: "id", Type: catalog.ColumnInt, Size: 4}})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Insert("t", []string{"1"}); err == nil {
		t.Fatalf("expected NotOpen after close")
	}
}
