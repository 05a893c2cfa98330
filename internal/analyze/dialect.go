package analyze

// Dialect captures the lexical quirks that differ between the SQL flavors the
// classifier understands. Parsing is attempted against each dialect in
// preference order; the first one that lexes and parses cleanly wins.
type Dialect struct {
	Name string

	// DollarQuoting enables $tag$ ... $tag$ string literals and $n params.
	DollarQuoting bool
	// BacktickIdent enables `name` quoted identifiers.
	BacktickIdent bool
	// BracketIdent enables [name] quoted identifiers.
	BracketIdent bool
	// QuestionParam enables ? and ?NNN bind parameters.
	QuestionParam bool
}

var (
	// DialectPostgres matches PostgreSQL lexing rules.
	DialectPostgres = &Dialect{
		Name:          "postgres",
		DollarQuoting: true,
	}

	// DialectSQLite matches SQLite lexing rules.
	DialectSQLite = &Dialect{
		Name:          "sqlite",
		BacktickIdent: true,
		BracketIdent:  true,
		QuestionParam: true,
	}

	// DialectGeneric accepts the union of the above, as a last resort.
	DialectGeneric = &Dialect{
		Name:          "generic",
		DollarQuoting: true,
		BacktickIdent: true,
		BracketIdent:  true,
		QuestionParam: true,
	}
)

// dialects is the fixed preference order for multi-dialect parse attempts.
var dialects = []*Dialect{DialectPostgres, DialectSQLite, DialectGeneric}
