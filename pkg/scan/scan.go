// Package scan implements the filter/project/sort/limit/aggregate
// pipeline that turns a table's materialized rows into a query result.
//
// DaemonDB's own exec_select.go interleaves schema lookup, an optional
// B+Tree point lookup, row decoding, and ad-hoc filtering all in one
// function per query shape (selectFullScan, selectFullScanWithFilter,
// selectWithPKLookup, …). This engine has no index to special-case, so
// the pipeline collapses to the five ordered stages below — but it
// keeps the teacher's habit of a dedicated stage function per concern
// and plain [][]string row shapes rather than a generic row type.
package scan

import (
	"sort"
	"strconv"

	"minidb/pkg/storeerr"
)

// Op is one of the six comparison operators the filter grammar accepts.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Condition is one WHERE clause term: column <op> value. A Filter is a
// conjunction (AND) of Conditions, matching the grammar in §6.
type Condition struct {
	Column int
	Op     Op
	Value  string
}

// Order is one ORDER BY key.
type Order struct {
	Column    int
	Ascending bool
}

// AggOp selects the single aggregate the pipeline supports.
type AggOp string

const (
	AggSum AggOp = "SUM"
	AggAbs AggOp = "ABS"
)

// Aggregate is the optional final pipeline stage.
type Aggregate struct {
	Op     AggOp
	Column int
}

// Plan bundles every optional stage a scan may request, applied in the
// fixed order filter -> project -> sort -> limit -> aggregate.
type Plan struct {
	Filter     []Condition
	Projection []int
	Order      []Order
	Limit      int // 0 means "no limit"
	Aggregate  *Aggregate
}

// Run executes plan over rows, which must already be the full
// materialization of a table's decoded rows (the heap manager's job,
// not this package's).
func Run(rows [][]string, plan Plan) ([][]string, error) {
	rows = filterRows(rows, plan.Filter)
	rows = projectRows(rows, plan.Projection)
	sortRows(rows, plan.Order)
	rows = limitRows(rows, plan.Limit)
	return aggregateRows(rows, plan.Aggregate)
}

func filterRows(rows [][]string, conds []Condition) [][]string {
	if len(conds) == 0 {
		return rows
	}
	out := rows[:0:0]
	for _, row := range rows {
		if matchesAll(row, conds) {
			out = append(out, row)
		}
	}
	return out
}

// MatchesAll reports whether row satisfies every condition in conds
// (conjunction). Exported so the SQL executor's DELETE...WHERE path —
// which needs to know *which* row matched, not just the filtered set —
// can reuse the same predicate the Filter stage applies.
func MatchesAll(row []string, conds []Condition) bool {
	return matchesAll(row, conds)
}

func matchesAll(row []string, conds []Condition) bool {
	for _, c := range conds {
		if c.Column < 0 || c.Column >= len(row) {
			return false
		}
		if !matches(row[c.Column], c.Op, c.Value) {
			return false
		}
	}
	return true
}

func matches(field string, op Op, value string) bool {
	lhs, lerr := strconv.ParseInt(field, 10, 64)
	rhs, rerr := strconv.ParseInt(value, 10, 64)
	numeric := lerr == nil && rerr == nil

	switch op {
	case OpEq:
		if numeric {
			return lhs == rhs
		}
		return field == value
	case OpNe:
		if numeric {
			return lhs != rhs
		}
		return field != value
	case OpLt:
		if numeric {
			return lhs < rhs
		}
		return field < value
	case OpLe:
		if numeric {
			return lhs <= rhs
		}
		return field <= value
	case OpGt:
		if numeric {
			return lhs > rhs
		}
		return field > value
	case OpGe:
		if numeric {
			return lhs >= rhs
		}
		return field >= value
	default:
		return false
	}
}

func projectRows(rows [][]string, cols []int) [][]string {
	if cols == nil {
		return rows
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		projected := make([]string, 0, len(cols))
		for _, c := range cols {
			if c >= 0 && c < len(row) {
				projected = append(projected, row[c])
			}
		}
		out[i] = projected
	}
	return out
}

func sortRows(rows [][]string, keys []Order) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, b := fieldAt(rows[i], k.Column), fieldAt(rows[j], k.Column)
			if a == b {
				continue
			}
			less := compareFields(a, b)
			if !k.Ascending {
				less = -less
			}
			if less != 0 {
				return less < 0
			}
		}
		return false
	})
}

func fieldAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// compareFields returns -1, 0, or 1. Both operands are compared as
// integers when both parse as integers, otherwise lexicographically —
// the same two-tier rule §4.4 specifies for sort keys.
func compareFields(a, b string) int {
	an, aerr := strconv.ParseInt(a, 10, 64)
	bn, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func limitRows(rows [][]string, n int) [][]string {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

func aggregateRows(rows [][]string, agg *Aggregate) ([][]string, error) {
	if agg == nil {
		return rows, nil
	}

	if len(rows) > 0 && (agg.Column < 0 || !anyRowHasColumn(rows, agg.Column)) {
		return nil, storeerr.ErrInvalidArgument
	}

	switch agg.Op {
	case AggSum:
		var sum int64
		for _, row := range rows {
			if agg.Column >= len(row) {
				continue
			}
			n, err := strconv.ParseInt(row[agg.Column], 10, 64)
			if err != nil {
				continue
			}
			sum += n
		}
		if len(rows) == 0 {
			return [][]string{{"0"}}, nil
		}
		return [][]string{{strconv.FormatInt(sum, 10)}}, nil

	case AggAbs:
		out := make([][]string, len(rows))
		for i, row := range rows {
			copied := append([]string(nil), row...)
			if agg.Column < len(copied) {
				if n, err := strconv.ParseInt(copied[agg.Column], 10, 64); err == nil {
					if n < 0 {
						n = -n
					}
					copied[agg.Column] = strconv.FormatInt(n, 10)
				}
			}
			out[i] = copied
		}
		return out, nil

	default:
		return nil, storeerr.ErrInvalidArgument
	}
}

func anyRowHasColumn(rows [][]string, col int) bool {
	for _, row := range rows {
		if col < len(row) {
			return true
		}
	}
	return false
}
