package parser

import (
	"fmt"
	"strconv"

	"minidb/pkg/sql/lexer"
)

// Parser is a recursive-descent parser over the four top-level
// statement shapes: SELECT, CREATE TABLE, INSERT, DELETE. DaemonDB's
// own parser (query_parser/parser) is a Pratt parser built for
// expression-heavy SQL; this grammar has no expressions to speak of
// (just a flat WHERE/AND chain) so a plain recursive descent, one
// method per clause, follows the grammar's own shape more directly.
type Parser struct {
	l       *lexer.Lexer
	cur     lexer.Token
	peek    lexer.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, fmt.Errorf("sql: expected %s, got %s %q", k, p.cur.Kind, p.cur.Value)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

// Parse tokenizes and parses a single statement from input.
func Parse(input string) (Statement, error) {
	l := lexer.New(input)
	p := New(l)
	return p.parseStatement()
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.cur.Kind {
	case lexer.SELECT:
		return p.parseSelect()
	case lexer.CREATE:
		return p.parseCreateTable()
	case lexer.INSERT:
		return p.parseInsert()
	case lexer.DELETE:
		return p.parseDelete()
	default:
		return nil, fmt.Errorf("sql: unrecognized statement starting with %s %q", p.cur.Kind, p.cur.Value)
	}
}

func (p *Parser) parseSelect() (Statement, error) {
	if _, err := p.expect(lexer.SELECT); err != nil {
		return nil, err
	}

	cols, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.FROM); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	stmt := &SelectStmt{Columns: cols, Table: table.Value}

	if p.cur.Kind == lexer.JOIN {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	if p.cur.Kind == lexer.WHERE {
		p.advance()
		where, err := p.parseWhereChain()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.cur.Kind == lexer.ORDER {
		p.advance()
		if _, err := p.expect(lexer.BY); err != nil {
			return nil, err
		}
		order, err := p.parseOrderByChain()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = order
	}

	if p.cur.Kind == lexer.LIMIT {
		p.advance()
		n, err := p.expect(lexer.INT)
		if err != nil {
			return nil, err
		}
		stmt.Limit, _ = strconv.Atoi(n.Value)
	}

	return stmt, nil
}

func (p *Parser) parseColumnList() ([]SelectColumn, error) {
	if p.cur.Kind == lexer.ASTERISK {
		p.advance()
		return []SelectColumn{{Star: true}}, nil
	}

	var cols []SelectColumn
	for {
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.cur.Kind != lexer.COMMA {
			break
		}
		p.advance()
	}
	return cols, nil
}

func (p *Parser) parseSelectColumn() (SelectColumn, error) {
	if p.cur.Kind == lexer.SUM || p.cur.Kind == lexer.ABS {
		agg := string(p.cur.Kind)
		p.advance()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return SelectColumn{}, err
		}
		name, err := p.parseQualifiedName()
		if err != nil {
			return SelectColumn{}, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return SelectColumn{}, err
		}
		return SelectColumn{Column: name, Agg: agg}, nil
	}

	name, err := p.parseQualifiedName()
	if err != nil {
		return SelectColumn{}, err
	}
	return SelectColumn{Column: name}, nil
}

// parseQualifiedName accepts either `col` or `table.col`.
func (p *Parser) parseQualifiedName() (string, error) {
	first, err := p.expect(lexer.IDENT)
	if err != nil {
		return "", err
	}
	if p.cur.Kind != lexer.DOT {
		return first.Value, nil
	}
	p.advance()
	second, err := p.expect(lexer.IDENT)
	if err != nil {
		return "", err
	}
	return first.Value + "." + second.Value, nil
}

func (p *Parser) parseJoin() (*JoinClause, error) {
	if _, err := p.expect(lexer.JOIN); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ON); err != nil {
		return nil, err
	}
	left, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EQ); err != nil {
		return nil, err
	}
	right, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	return &JoinClause{Table: table.Value, LeftCol: left, RightCol: right}, nil
}

func (p *Parser) parseWhereChain() ([]WhereCond, error) {
	var conds []WhereCond
	for {
		c, err := p.parseWhereCond()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
		if p.cur.Kind != lexer.AND {
			break
		}
		p.advance()
	}
	return conds, nil
}

func (p *Parser) parseWhereCond() (WhereCond, error) {
	col, err := p.parseQualifiedName()
	if err != nil {
		return WhereCond{}, err
	}
	op, err := p.parseOperator()
	if err != nil {
		return WhereCond{}, err
	}
	val, err := p.parseValue()
	if err != nil {
		return WhereCond{}, err
	}
	return WhereCond{Column: col, Op: op, Value: val}, nil
}

func (p *Parser) parseOperator() (string, error) {
	switch p.cur.Kind {
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		op := string(p.cur.Kind)
		p.advance()
		return op, nil
	default:
		return "", fmt.Errorf("sql: expected comparison operator, got %s %q", p.cur.Kind, p.cur.Value)
	}
}

func (p *Parser) parseValue() (string, error) {
	switch p.cur.Kind {
	case lexer.INT, lexer.STRING, lexer.IDENT:
		v := p.cur.Value
		p.advance()
		return v, nil
	default:
		return "", fmt.Errorf("sql: expected a value, got %s %q", p.cur.Kind, p.cur.Value)
	}
}

func (p *Parser) parseOrderByChain() ([]OrderTerm, error) {
	var terms []OrderTerm
	for {
		col, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		desc := false
		if p.cur.Kind == lexer.ASC {
			p.advance()
		} else if p.cur.Kind == lexer.DESC {
			desc = true
			p.advance()
		}
		terms = append(terms, OrderTerm{Column: col, Desc: desc})
		if p.cur.Kind != lexer.COMMA {
			break
		}
		p.advance()
	}
	return terms, nil
}

func (p *Parser) parseCreateTable() (Statement, error) {
	if _, err := p.expect(lexer.CREATE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TABLE); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}

	var cols []ColumnDef
	for {
		name, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		typ, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		cols = append(cols, ColumnDef{Name: name.Value, Type: typ})
		if p.cur.Kind != lexer.COMMA {
			break
		}
		p.advance()
	}

	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &CreateTableStmt{Table: table.Value, Columns: cols}, nil
}

func (p *Parser) parseTypeName() (string, error) {
	switch p.cur.Kind {
	case lexer.INT_T, lexer.TEXT_T:
		t := p.cur.Value
		p.advance()
		return t, nil
	default:
		return "", fmt.Errorf("sql: expected a column type, got %s %q", p.cur.Kind, p.cur.Value)
	}
}

func (p *Parser) parseInsert() (Statement, error) {
	if _, err := p.expect(lexer.INSERT); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INTO); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.VALUES); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}

	var values []string
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.cur.Kind != lexer.COMMA {
			break
		}
		p.advance()
	}

	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &InsertStmt{Table: table.Value, Values: values}, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	if _, err := p.expect(lexer.DELETE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.FROM); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	stmt := &DeleteStmt{Table: table.Value}
	if p.cur.Kind == lexer.WHERE {
		p.advance()
		where, err := p.parseWhereChain()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}
