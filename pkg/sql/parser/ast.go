// Package parser turns a token stream from pkg/sql/lexer into one of
// the four statement shapes §6 recognizes.
package parser

// Statement is the sum type every Parse call returns one member of.
type Statement interface{}

// SelectColumn is one entry in a SELECT column list: either a plain
// column reference or a SUM/ABS aggregate wrapping one.
type SelectColumn struct {
	Star   bool
	Column string // qualified as "table.col" when a join is present
	Agg    string // "" | "SUM" | "ABS"
}

// WhereCond is one AND-joined WHERE term.
type WhereCond struct {
	Column string
	Op     string
	Value  string
}

// OrderTerm is one ORDER BY key.
type OrderTerm struct {
	Column string
	Desc   bool
}

// JoinClause is the single supported `JOIN t2 ON a = b` form: a
// nested-loop equi-join, handled entirely in the SQL executor rather
// than the core scan pipeline (the pipeline operates on one table at a
// time, by design — see §4.4).
type JoinClause struct {
	Table    string
	LeftCol  string // qualified "table.col"
	RightCol string
}

type SelectStmt struct {
	Columns []SelectColumn
	Table   string
	Join    *JoinClause
	Where   []WhereCond
	OrderBy []OrderTerm
	Limit   int // 0 means "no limit"
}

type ColumnDef struct {
	Name string
	Type string
}

type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

type InsertStmt struct {
	Table  string
	Values []string
}

type DeleteStmt struct {
	Table string
	Where []WhereCond
}
