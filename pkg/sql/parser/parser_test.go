package parser

import (
	"fmt"
	"testing"
)

func TestParseSimpleSelect(t *testing.T) {
	stmt, err := Parse("SELECT id, name FROM users WHERE age >= 18 ORDER BY id DESC LIMIT 10")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		t.Fatalf("got %T, want *SelectStmt", stmt)
	}
	fmt.Printf("parsed: %+v\n", sel)

	if sel.Table != "users" {
		t.Errorf("table = %q", sel.Table)
	}
	if len(sel.Columns) != 2 || sel.Columns[0].Column != "id" || sel.Columns[1].Column != "name" {
		t.Errorf("columns = %+v", sel.Columns)
	}
	if len(sel.Where) != 1 || sel.Where[0].Column != "age" || sel.Where[0].Op != ">=" {
		t.Errorf("where = %+v", sel.Where)
	}
	if len(sel.OrderBy) != 1 || sel.OrderBy[0].Column != "id" || !sel.OrderBy[0].Desc {
		t.Errorf("orderBy = %+v", sel.OrderBy)
	}
	if sel.Limit != 10 {
		t.Errorf("limit = %d", sel.Limit)
	}
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM things")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if !sel.Columns[0].Star {
		t.Fatalf("expected Star column, got %+v", sel.Columns)
	}
}

func TestParseAggregateColumn(t *testing.T) {
	stmt, err := Parse("SELECT SUM(val) FROM sumagg")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if sel.Columns[0].Agg != "SUM" || sel.Columns[0].Column != "val" {
		t.Fatalf("got %+v", sel.Columns[0])
	}
}

func TestParseJoin(t *testing.T) {
	stmt, err := Parse("SELECT * FROM orders JOIN customers ON orders.cid = customers.id")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if sel.Join == nil {
		t.Fatal("expected a join clause")
	}
	if sel.Join.Table != "customers" || sel.Join.LeftCol != "orders.cid" || sel.Join.RightCol != "customers.id" {
		t.Fatalf("got %+v", sel.Join)
	}
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INT, name TEXT)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ct := stmt.(*CreateTableStmt)
	if ct.Table != "users" {
		t.Errorf("table = %q", ct.Table)
	}
	want := []ColumnDef{{Name: "id", Type: "INT"}, {Name: "name", Type: "TEXT"}}
	for i, c := range want {
		if ct.Columns[i] != c {
			t.Errorf("column %d = %+v, want %+v", i, ct.Columns[i], c)
		}
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse(`INSERT INTO things VALUES ('apple', 'fruit')`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ins := stmt.(*InsertStmt)
	if ins.Table != "things" {
		t.Errorf("table = %q", ins.Table)
	}
	if len(ins.Values) != 2 || ins.Values[0] != "apple" || ins.Values[1] != "fruit" {
		t.Errorf("values = %+v", ins.Values)
	}
}

func TestParseDeleteWithWhere(t *testing.T) {
	stmt, err := Parse("DELETE FROM people WHERE id = 7 AND name = 'Bob'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	del := stmt.(*DeleteStmt)
	if del.Table != "people" {
		t.Errorf("table = %q", del.Table)
	}
	if len(del.Where) != 2 {
		t.Fatalf("where = %+v", del.Where)
	}
}

func TestParseRejectsUnrecognizedStatement(t *testing.T) {
	_, err := Parse("DROP TABLE users")
	if err == nil {
		t.Fatal("expected an error for an unsupported statement")
	}
}
