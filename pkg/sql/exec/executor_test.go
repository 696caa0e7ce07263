package exec

import (
	"fmt"
	"os"
	"testing"

	"minidb/pkg/storage"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
	dir, err := os.MkdirTemp("", "minidb-exec-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	s, err := storage.Open(storage.Options{Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return New(s), dir
}

func TestCreateInsertSelectRoundTrip(t *testing.T) {
	e, dir := newTestExecutor(t)
	defer os.RemoveAll(dir)

	if _, err := e.Run("CREATE TABLE users (id INT, age INT)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.Run("INSERT INTO users VALUES (1, 42)"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	res, err := e.Run("SELECT id, age FROM users")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	fmt.Printf("rows: %v\n", res.Rows)
	if len(res.Rows) != 1 || res.Rows[0][0] != "1" || res.Rows[0][1] != "42" {
		t.Fatalf("got %v", res.Rows)
	}
}

func TestSumAggregateOverColumnList(t *testing.T) {
	e, dir := newTestExecutor(t)
	defer os.RemoveAll(dir)

	if _, err := e.Run("CREATE TABLE sumagg (id INT, val INT)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, v := range []string{"(1, 10)", "(2, 20)", "(3, -5)"} {
		if _, err := e.Run("INSERT INTO sumagg VALUES " + v); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	res, err := e.Run("SELECT SUM(val) FROM sumagg")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0] != "25" {
		t.Fatalf("got %v", res.Rows)
	}
}

func TestDeleteWhereRemovesMatchingRows(t *testing.T) {
	e, dir := newTestExecutor(t)
	defer os.RemoveAll(dir)

	if _, err := e.Run("CREATE TABLE people (id INT, name TEXT)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.Run(`INSERT INTO people VALUES (7, 'Bob')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := e.Run(`INSERT INTO people VALUES (8, 'Carol')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	res, err := e.Run("DELETE FROM people WHERE id = 7")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.RowsAffected != 1 {
		t.Fatalf("rows affected = %d, want 1", res.RowsAffected)
	}

	sel, err := e.Run("SELECT id FROM people")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(sel.Rows) != 1 || sel.Rows[0][0] != "8" {
		t.Fatalf("got %v", sel.Rows)
	}
}

func TestJoinEquatesRowsAcrossTables(t *testing.T) {
	e, dir := newTestExecutor(t)
	defer os.RemoveAll(dir)

	if _, err := e.Run("CREATE TABLE orders (id INT, cid INT)"); err != nil {
		t.Fatalf("create orders: %v", err)
	}
	if _, err := e.Run("CREATE TABLE customers (id INT, name TEXT)"); err != nil {
		t.Fatalf("create customers: %v", err)
	}
	if _, err := e.Run("INSERT INTO customers VALUES (1, 'Alice')"); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	if _, err := e.Run("INSERT INTO orders VALUES (100, 1)"); err != nil {
		t.Fatalf("insert order: %v", err)
	}

	res, err := e.Run("SELECT orders.id, customers.name FROM orders JOIN customers ON orders.cid = customers.id")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0] != "100" || res.Rows[0][1] != "Alice" {
		t.Fatalf("got %v", res.Rows)
	}
}

func TestSchemaMismatchErrorIsSurfaced(t *testing.T) {
	e, dir := newTestExecutor(t)
	defer os.RemoveAll(dir)

	if _, err := e.Run("CREATE TABLE users (id INT, age INT)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.Run("INSERT INTO users VALUES (1)"); err == nil {
		t.Fatal("expected a schema mismatch error")
	}
}
