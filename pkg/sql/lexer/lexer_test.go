package lexer

import (
	"fmt"
	"testing"
)

func collect(input string) []Token {
	l := New(input)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == END {
			break
		}
	}
	return toks
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	toks := collect("select * from Users where Age >= 18")
	fmt.Printf("tokens: %+v\n", toks)

	want := []Kind{SELECT, ASTERISK, FROM, IDENT, WHERE, IDENT, GE, INT, END}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestTwoCharOperators(t *testing.T) {
	toks := collect("a != b <= c >= d")
	kinds := []Kind{IDENT, NEQ, IDENT, LE, IDENT, GE, IDENT, END}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Fatalf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestQuotedStringsSingleAndDouble(t *testing.T) {
	toks := collect(`'Bob' "Alice"`)
	if toks[0].Kind != STRING || toks[0].Value != "Bob" {
		t.Fatalf("got %+v, want STRING Bob", toks[0])
	}
	if toks[1].Kind != STRING || toks[1].Value != "Alice" {
		t.Fatalf("got %+v, want STRING Alice", toks[1])
	}
}

func TestNegativeIntegerLiteral(t *testing.T) {
	toks := collect("val = -5")
	if toks[2].Kind != INT || toks[2].Value != "-5" {
		t.Fatalf("got %+v, want INT -5", toks[2])
	}
}

func TestTypeKeywordsMapToDedicatedKinds(t *testing.T) {
	toks := collect("INT TEXT")
	if toks[0].Kind != INT_T {
		t.Fatalf("got %s, want INT_T", toks[0].Kind)
	}
	if toks[1].Kind != TEXT_T {
		t.Fatalf("got %s, want TEXT_T", toks[1].Kind)
	}
}

func TestQualifiedColumnReference(t *testing.T) {
	toks := collect("orders.id")
	want := []Kind{IDENT, DOT, IDENT, END}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}
