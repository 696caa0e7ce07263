package lexer

// Kind identifies a token's lexical class. Named the same way
// DaemonDB's query_parser/lexer names its TokenKind constants, minus
// the ones this grammar has no use for ({, }, braces for JSON-ish
// literals) and plus the comparison operators and keywords §6's SQL
// surface actually needs.
type Kind string

const (
	IDENT   Kind = "IDENT"
	INT     Kind = "INT"
	STRING  Kind = "STRING"
	END     Kind = "END"
	INVALID Kind = "INVALID"

	COMMA     Kind = ","
	ASTERISK  Kind = "*"
	DOT       Kind = "."
	LPAREN    Kind = "("
	RPAREN    Kind = ")"
	EQ        Kind = "="
	NEQ       Kind = "!="
	LT        Kind = "<"
	LE        Kind = "<="
	GT        Kind = ">"
	GE        Kind = ">="

	SELECT Kind = "SELECT"
	FROM   Kind = "FROM"
	WHERE  Kind = "WHERE"
	AND    Kind = "AND"
	ORDER  Kind = "ORDER"
	BY     Kind = "BY"
	ASC    Kind = "ASC"
	DESC   Kind = "DESC"
	LIMIT  Kind = "LIMIT"
	CREATE Kind = "CREATE"
	TABLE  Kind = "TABLE"
	INSERT Kind = "INSERT"
	INTO   Kind = "INTO"
	VALUES Kind = "VALUES"
	DELETE Kind = "DELETE"
	JOIN   Kind = "JOIN"
	ON     Kind = "ON"
	SUM    Kind = "SUM"
	ABS    Kind = "ABS"
	INT_T  Kind = "INT_T"
	TEXT_T Kind = "TEXT_T"
)

var keywords = map[string]Kind{
	"SELECT": SELECT,
	"FROM":   FROM,
	"WHERE":  WHERE,
	"AND":    AND,
	"ORDER":  ORDER,
	"BY":     BY,
	"ASC":    ASC,
	"DESC":   DESC,
	"LIMIT":  LIMIT,
	"CREATE": CREATE,
	"TABLE":  TABLE,
	"INSERT": INSERT,
	"INTO":   INTO,
	"VALUES": VALUES,
	"DELETE": DELETE,
	"JOIN":   JOIN,
	"ON":     ON,
	"SUM":    SUM,
	"ABS":    ABS,
	"INT":    INT_T,
	"TEXT":   TEXT_T,
}

// Token is one lexical unit: its class and the literal text it covers.
type Token struct {
	Kind  Kind
	Value string
}

// keywordOrIdent classifies a scanned identifier as a keyword if its
// upper-cased form matches one, else as a plain IDENT — case
// insensitively, since §6 never distinguishes `select` from `SELECT`.
func keywordOrIdent(upper, original string) Token {
	if kind, ok := keywords[upper]; ok {
		return Token{Kind: kind, Value: upper}
	}
	return Token{Kind: IDENT, Value: original}
}
