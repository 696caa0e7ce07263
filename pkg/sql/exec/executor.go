// Package exec turns a parsed statement into calls against the Row
// interface (pkg/storage.Storage). Grounded on DaemonDB's
// query_executor.VM, which walks a bytecode program calling into the
// same HeapManager/CatalogManager/BufferPool triad — this executor
// skips the bytecode indirection (the grammar is small enough that a
// statement-shaped switch reaches the same calls more directly) but
// keeps the same "one case per statement kind, dispatch straight into
// storage" structure.
package exec

import (
	"fmt"
	"strings"

	"minidb/pkg/catalog"
	"minidb/pkg/scan"
	"minidb/pkg/sql/parser"
	"minidb/pkg/storage"
)

// Result is what Execute returns for any statement: column headers and
// the rows produced (empty for CREATE/INSERT/DELETE, which report via
// RowsAffected/InsertedID instead).
type Result struct {
	Columns     []string
	Rows        [][]string
	InsertedID  uint32
	RowsAffected int
}

// Executor runs parsed statements against a single Storage.
type Executor struct {
	store *storage.Storage
}

func New(store *storage.Storage) *Executor {
	return &Executor{store: store}
}

// Run lexes, parses, and executes one SQL statement.
func (e *Executor) Run(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	return e.Execute(stmt)
}

// Execute dispatches an already-parsed statement.
func (e *Executor) Execute(stmt parser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return e.execCreateTable(s)
	case *parser.InsertStmt:
		return e.execInsert(s)
	case *parser.DeleteStmt:
		return e.execDelete(s)
	case *parser.SelectStmt:
		return e.execSelect(s)
	default:
		return nil, fmt.Errorf("sql: unsupported statement type %T", stmt)
	}
}

func (e *Executor) execCreateTable(s *parser.CreateTableStmt) (*Result, error) {
	cols := make([]catalog.Column, len(s.Columns))
	for i, c := range s.Columns {
		typ, err := catalog.ParseColumnType(c.Type)
		if err != nil {
			return nil, err
		}
		cols[i] = catalog.Column{Name: c.Name, Type: typ}
	}
	if err := e.store.Create(s.Table, cols); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execInsert(s *parser.InsertStmt) (*Result, error) {
	id, err := e.store.Insert(s.Table, s.Values)
	if err != nil {
		return nil, err
	}
	return &Result{InsertedID: id}, nil
}

func (e *Executor) execDelete(s *parser.DeleteStmt) (*Result, error) {
	names, err := e.store.GetColumnNames(s.Table)
	if err != nil {
		return nil, err
	}
	conds, err := resolveConditions(s.Where, names, s.Table)
	if err != nil {
		return nil, err
	}

	ids, rows, err := e.store.RowsWithIDs(s.Table)
	if err != nil {
		return nil, err
	}

	affected := 0
	for i, row := range rows {
		if len(conds) > 0 && !scan.MatchesAll(row, conds) {
			continue
		}
		if err := e.store.Delete(s.Table, ids[i]); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{RowsAffected: affected}, nil
}

func (e *Executor) execSelect(s *parser.SelectStmt) (*Result, error) {
	if s.Join != nil {
		return e.execJoinSelect(s)
	}

	names, err := e.store.GetColumnNames(s.Table)
	if err != nil {
		return nil, err
	}

	plan := scan.Plan{}
	var resultCols []string

	if len(s.Where) > 0 {
		conds, err := resolveConditions(s.Where, names, s.Table)
		if err != nil {
			return nil, err
		}
		plan.Filter = conds
	}

	if len(s.OrderBy) > 0 {
		orders := make([]scan.Order, len(s.OrderBy))
		for i, o := range s.OrderBy {
			idx, err := resolveColumn(o.Column, names, s.Table)
			if err != nil {
				return nil, err
			}
			orders[i] = scan.Order{Column: idx, Ascending: !o.Desc}
		}
		plan.Order = orders
	}
	plan.Limit = s.Limit

	if len(s.Columns) == 1 && s.Columns[0].Agg != "" {
		idx, err := resolveColumn(s.Columns[0].Column, names, s.Table)
		if err != nil {
			return nil, err
		}
		plan.Aggregate = &scan.Aggregate{Op: scan.AggOp(s.Columns[0].Agg), Column: idx}
		resultCols = []string{s.Columns[0].Agg + "(" + s.Columns[0].Column + ")"}
	} else if s.Columns[0].Star {
		resultCols = names
	} else {
		idxs := make([]int, len(s.Columns))
		resultCols = make([]string, len(s.Columns))
		for i, c := range s.Columns {
			idx, err := resolveColumn(c.Column, names, s.Table)
			if err != nil {
				return nil, err
			}
			idxs[i] = idx
			resultCols[i] = c.Column
		}
		plan.Projection = idxs
	}

	rows, err := e.store.Scan(s.Table, plan)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: resultCols, Rows: rows}, nil
}

// execJoinSelect implements the grammar's single `JOIN t2 ON a = b`
// form as a nested-loop equi-join, entirely outside pkg/scan: the core
// pipeline is defined over one table's materialization (§4.4), so a
// join's cross-table combination happens here, and only the already
// materialized, combined rows are handed to the filter/order/limit
// stages below.
func (e *Executor) execJoinSelect(s *parser.SelectStmt) (*Result, error) {
	leftNames, err := e.store.GetColumnNames(s.Table)
	if err != nil {
		return nil, err
	}
	rightNames, err := e.store.GetColumnNames(s.Join.Table)
	if err != nil {
		return nil, err
	}

	_, leftRows, err := e.store.RowsWithIDs(s.Table)
	if err != nil {
		return nil, err
	}
	_, rightRows, err := e.store.RowsWithIDs(s.Join.Table)
	if err != nil {
		return nil, err
	}

	leftIdx, err := resolveColumn(s.Join.LeftCol, leftNames, s.Table)
	if err != nil {
		return nil, err
	}
	rightIdx, err := resolveColumn(s.Join.RightCol, rightNames, s.Join.Table)
	if err != nil {
		return nil, err
	}

	combinedNames := make([]string, 0, len(leftNames)+len(rightNames))
	for _, n := range leftNames {
		combinedNames = append(combinedNames, s.Table+"."+n)
	}
	for _, n := range rightNames {
		combinedNames = append(combinedNames, s.Join.Table+"."+n)
	}

	var combined [][]string
	for _, l := range leftRows {
		if leftIdx >= len(l) {
			continue
		}
		for _, r := range rightRows {
			if rightIdx >= len(r) {
				continue
			}
			if l[leftIdx] != r[rightIdx] {
				continue
			}
			row := append(append([]string{}, l...), r...)
			combined = append(combined, row)
		}
	}

	var conds []scan.Condition
	if len(s.Where) > 0 {
		conds, err = resolveConditions(s.Where, combinedNames, "")
		if err != nil {
			return nil, err
		}
	}

	var orders []scan.Order
	for _, o := range s.OrderBy {
		idx, err := resolveColumn(o.Column, combinedNames, "")
		if err != nil {
			return nil, err
		}
		orders = append(orders, scan.Order{Column: idx, Ascending: !o.Desc})
	}

	var resultCols []string
	var projection []int
	if s.Columns[0].Star {
		resultCols = combinedNames
	} else {
		for _, c := range s.Columns {
			idx, err := resolveColumn(c.Column, combinedNames, "")
			if err != nil {
				return nil, err
			}
			projection = append(projection, idx)
			resultCols = append(resultCols, c.Column)
		}
	}

	plan := scan.Plan{Filter: conds, Order: orders, Limit: s.Limit, Projection: projection}
	rows, err := scan.Run(combined, plan)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: resultCols, Rows: rows}, nil
}

func resolveConditions(where []parser.WhereCond, names []string, defaultTable string) ([]scan.Condition, error) {
	conds := make([]scan.Condition, len(where))
	for i, w := range where {
		idx, err := resolveColumn(w.Column, names, defaultTable)
		if err != nil {
			return nil, err
		}
		conds[i] = scan.Condition{Column: idx, Op: scan.Op(w.Op), Value: w.Value}
	}
	return conds, nil
}

// resolveColumn maps a column reference to an index into names, which
// may themselves be bare ("cid") or table-qualified ("orders.cid")
// depending on the caller: a plain SELECT's names are bare, a post-join
// row's combinedNames are qualified. Three shapes have to match: the
// reference as given, a bare reference against defaultTable-qualified
// names, and a qualified reference (from a JoinClause, which is always
// written "table.col") against a single table's bare names.
func resolveColumn(name string, names []string, defaultTable string) (int, error) {
	if idx := indexOf(names, name); idx >= 0 {
		return idx, nil
	}
	if defaultTable != "" {
		if idx := indexOf(names, defaultTable+"."+name); idx >= 0 {
			return idx, nil
		}
	}
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		if idx := indexOf(names, name[dot+1:]); idx >= 0 {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("sql: unknown column %q", name)
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}

// FormatRows renders a Result the way the REPL prints it: bracketed,
// comma-separated rows, or a one-line status for statements that
// produce no rows.
func FormatRows(r *Result) string {
	if len(r.Rows) == 0 {
		if r.InsertedID != 0 {
			return fmt.Sprintf("inserted id %d", r.InsertedID)
		}
		return fmt.Sprintf("%d row(s) affected", r.RowsAffected)
	}
	out := ""
	for _, row := range r.Rows {
		out += "[" + joinStrings(row) + "]\n"
	}
	return out
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
