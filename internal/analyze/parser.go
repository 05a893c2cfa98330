package analyze

import "fmt"

// Parser is a permissive recursive-descent parser. It models SELECT structure
// in enough detail for editability and ordering checks, and skims every other
// statement once its leading keyword has classified it.
//
//	statement   → with_stmt | select_stmt | keyword_stmt
//	select_stmt → select_body [ORDER BY ...] [LIMIT ...] [OFFSET ...]
//	select_body → select_core [(UNION|INTERSECT|EXCEPT) [ALL] select_body]
//	select_core → SELECT [DISTINCT] skim [FROM from_list] [WHERE skim]
//	              [GROUP BY ...] [HAVING skim] [WINDOW skim]
type Parser struct {
	lexer *Lexer
	token Token // current token
	peek  Token // lookahead token
	errs  []error
}

// NewParser creates a parser for the given SQL input and dialect.
func NewParser(sql string, d *Dialect) *Parser {
	p := &Parser{lexer: NewLexer(sql, d)}
	// Prime current and peek.
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the input under each dialect in preference order and returns
// the statements from the first dialect that parses cleanly.
func Parse(sql string) ([]Statement, error) {
	var firstErr error
	for _, d := range dialects {
		stmts, err := ParseWithDialect(sql, d)
		if err == nil {
			return stmts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// ParseWithDialect parses all statements in the input under one dialect.
func ParseWithDialect(sql string, d *Dialect) ([]Statement, error) {
	p := NewParser(sql, d)
	var stmts []Statement
	for {
		for p.check(TokenSemicolon) {
			p.nextToken()
		}
		if p.check(TokenEOF) {
			break
		}
		stmt := p.parseStatement()
		if len(p.errs) > 0 {
			return nil, p.errs[0]
		}
		stmts = append(stmts, stmt)
		if !p.check(TokenSemicolon) && !p.check(TokenEOF) {
			return nil, fmt.Errorf("unexpected %q after statement", p.token.Literal)
		}
	}
	return stmts, nil
}

// ---------- Token helpers ----------

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) check(t TokenType) bool { return p.token.Type == t }

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) matchKeyword(kw string) bool {
	if p.token.Is(kw) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) bool {
	if p.matchKeyword(kw) {
		return true
	}
	p.errorf("expected %s, found %q", kw, p.token.Literal)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf(format, args...))
}

func (p *Parser) atStatementEnd() bool {
	return p.check(TokenEOF) || p.check(TokenSemicolon)
}

// ---------- Statements ----------

// otherKinds maps a leading keyword to the classification of a statement the
// parser skims rather than models.
var otherKinds = map[string]QueryType{
	"INSERT": QueryInsert, "REPLACE": QueryInsert,
	"UPDATE": QueryUpdate,
	"DELETE": QueryDelete,
	"DROP":   QueryDrop,
	"TRUNCATE": QueryTruncate,
	"ALTER":    QueryAlter,
	"CREATE":   QueryCreate,

	"GRANT": QueryOther, "REVOKE": QueryOther, "SET": QueryOther,
	"SHOW": QueryOther, "BEGIN": QueryOther, "START": QueryOther,
	"COMMIT": QueryOther, "ROLLBACK": QueryOther, "SAVEPOINT": QueryOther,
	"RELEASE": QueryOther, "EXPLAIN": QueryOther, "VACUUM": QueryOther,
	"ANALYZE": QueryOther, "PRAGMA": QueryOther, "COPY": QueryOther,
	"COMMENT": QueryOther, "REINDEX": QueryOther, "ATTACH": QueryOther,
	"DETACH": QueryOther, "DECLARE": QueryOther, "PREPARE": QueryOther,
	"EXECUTE": QueryOther, "DEALLOCATE": QueryOther, "LISTEN": QueryOther,
	"NOTIFY": QueryOther, "UNLISTEN": QueryOther, "LOCK": QueryOther,
	"CALL": QueryOther, "DO": QueryOther, "MERGE": QueryOther,
	"VALUES": QuerySelect,
}

func (p *Parser) parseStatement() Statement {
	switch {
	case p.token.Is("WITH"):
		return p.parseWithStatement()
	case p.token.Is("SELECT") || p.check(TokenLParen):
		return p.parseSelectStmt(nil)
	case p.token.Type == TokenWord:
		if kind, ok := otherKinds[p.token.Upper]; ok {
			p.skimStatement()
			return &OtherStmt{Kind: kind}
		}
		p.errorf("unrecognized statement keyword %q", p.token.Literal)
		return nil
	default:
		p.errorf("unexpected token %q at start of statement", p.token.Literal)
		return nil
	}
}

func (p *Parser) parseWithStatement() Statement {
	p.nextToken() // WITH
	with := &WithClause{Recursive: p.matchKeyword("RECURSIVE")}
	for {
		name, ok := p.identifier()
		if !ok {
			p.errorf("expected CTE name, found %q", p.token.Literal)
			return nil
		}
		with.CTEs = append(with.CTEs, name)
		if p.check(TokenLParen) { // optional column list
			p.skimParens()
		}
		if !p.expectKeyword("AS") {
			return nil
		}
		p.matchKeyword("NOT") // MATERIALIZED hints
		p.matchKeyword("MATERIALIZED")
		if !p.check(TokenLParen) {
			p.errorf("expected ( after AS, found %q", p.token.Literal)
			return nil
		}
		p.skimParens()
		if !p.match(TokenComma) {
			break
		}
	}

	// A WITH prologue may front a SELECT or a writing statement.
	switch {
	case p.token.Is("SELECT") || p.check(TokenLParen):
		return p.parseSelectStmt(with)
	case p.token.IsAny("INSERT", "UPDATE", "DELETE", "REPLACE", "MERGE"):
		kind := otherKinds[p.token.Upper]
		p.skimStatement()
		return &OtherStmt{Kind: kind}
	default:
		p.errorf("expected statement after WITH clause, found %q", p.token.Literal)
		return nil
	}
}

func (p *Parser) parseSelectStmt(with *WithClause) Statement {
	stmt := &SelectStmt{With: with, Body: p.parseSelectBody()}
	if len(p.errs) > 0 {
		return nil
	}
	if p.token.Is("ORDER") {
		p.nextToken()
		if !p.expectKeyword("BY") {
			return nil
		}
		stmt.HasOrderBy = true
		p.skimUntil("LIMIT", "OFFSET", "FETCH", "FOR")
	}
	for p.token.IsAny("LIMIT", "OFFSET", "FETCH", "FOR") {
		stmt.HasLimit = true
		p.nextToken()
		p.skimUntil("LIMIT", "OFFSET", "FETCH", "FOR")
	}
	return stmt
}

func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	if p.check(TokenLParen) {
		// Parenthesized query: legal as a set-operation operand, but no
		// longer a plain select core.
		p.skimParens()
	} else {
		body.Left = p.parseSelectCore()
	}
	if len(p.errs) > 0 {
		return body
	}
	if p.token.IsAny("UNION", "INTERSECT", "EXCEPT") {
		switch p.token.Upper {
		case "UNION":
			body.Op = SetOpUnion
		case "INTERSECT":
			body.Op = SetOpIntersect
		default:
			body.Op = SetOpExcept
		}
		p.nextToken()
		p.matchKeyword("ALL")
		p.matchKeyword("DISTINCT")
		body.Right = p.parseSelectBody()
	}
	return body
}

func (p *Parser) parseSelectCore() *SelectCore {
	core := &SelectCore{}
	if !p.expectKeyword("SELECT") {
		return core
	}
	if p.matchKeyword("DISTINCT") {
		core.Distinct = true
		if p.matchKeyword("ON") {
			if !p.check(TokenLParen) {
				p.errorf("expected ( after DISTINCT ON")
				return core
			}
			p.skimParens()
		}
	} else {
		p.matchKeyword("ALL")
	}

	// Select list: skimmed, not modeled.
	p.skimUntil("FROM", "WHERE", "GROUP", "HAVING", "WINDOW", "ORDER",
		"LIMIT", "OFFSET", "FETCH", "FOR", "UNION", "INTERSECT", "EXCEPT")

	if p.matchKeyword("FROM") {
		core.From = p.parseFromList()
		if len(p.errs) > 0 {
			return core
		}
	}
	if p.matchKeyword("WHERE") {
		p.skimUntil("GROUP", "HAVING", "WINDOW", "ORDER",
			"LIMIT", "OFFSET", "FETCH", "FOR", "UNION", "INTERSECT", "EXCEPT")
	}
	if p.token.Is("GROUP") {
		p.nextToken()
		if !p.expectKeyword("BY") {
			return core
		}
		if p.token.Is("ALL") && !p.peek.Is("ALL") { // GROUP BY ALL (not ALL alias)
			core.GroupByAll = true
			p.nextToken()
		} else {
			core.HasGroupBy = true
			p.skimUntil("HAVING", "WINDOW", "ORDER",
				"LIMIT", "OFFSET", "FETCH", "FOR", "UNION", "INTERSECT", "EXCEPT")
		}
	}
	if p.matchKeyword("HAVING") {
		core.HasHaving = true
		p.skimUntil("WINDOW", "ORDER", "LIMIT", "OFFSET", "FETCH", "FOR",
			"UNION", "INTERSECT", "EXCEPT")
	}
	if p.matchKeyword("WINDOW") {
		p.skimUntil("ORDER", "LIMIT", "OFFSET", "FETCH", "FOR",
			"UNION", "INTERSECT", "EXCEPT")
	}
	return core
}

// ---------- FROM clause ----------

// fromStops are the keywords that terminate a table expression.
var fromStops = []string{
	"WHERE", "GROUP", "HAVING", "WINDOW", "ORDER", "LIMIT", "OFFSET",
	"FETCH", "FOR", "UNION", "INTERSECT", "EXCEPT",
	"JOIN", "LEFT", "RIGHT", "FULL", "INNER", "OUTER", "CROSS", "NATURAL",
	"ON", "USING",
}

func (p *Parser) parseFromList() []*TableExpr {
	var list []*TableExpr
	for {
		expr := p.parseTableExpr()
		if len(p.errs) > 0 {
			return list
		}
		list = append(list, expr)
		if !p.match(TokenComma) {
			return list
		}
	}
}

func (p *Parser) parseTableExpr() *TableExpr {
	expr := &TableExpr{Factor: p.parseTableFactor()}
	for p.atJoin() {
		expr.Joins++
		p.consumeJoinKeywords()
		p.parseTableFactor()
		if len(p.errs) > 0 {
			return expr
		}
		if p.matchKeyword("ON") {
			p.skimJoinCondition()
		} else if p.token.Is("USING") && p.peek.Type == TokenLParen {
			p.nextToken()
			p.skimParens()
		}
	}
	return expr
}

func (p *Parser) atJoin() bool {
	return p.token.IsAny("JOIN", "LEFT", "RIGHT", "FULL", "INNER", "CROSS", "NATURAL")
}

func (p *Parser) consumeJoinKeywords() {
	for p.token.IsAny("LEFT", "RIGHT", "FULL", "INNER", "CROSS", "NATURAL", "OUTER") {
		p.nextToken()
	}
	p.expectKeyword("JOIN")
}

func (p *Parser) parseTableFactor() TableFactor {
	if p.matchKeyword("LATERAL") {
		// LATERAL fronts a subquery or function call; never a plain table.
		if p.check(TokenLParen) {
			p.skimParens()
		} else {
			p.parseTableFactor()
		}
		p.parseAlias()
		return &SubqueryFactor{}
	}

	if p.check(TokenLParen) {
		p.skimParens()
		p.parseAlias()
		return &SubqueryFactor{}
	}

	name := &TableName{}
	for {
		part, ok := p.identifier()
		if !ok {
			p.errorf("expected table name, found %q", p.token.Literal)
			return name
		}
		name.Parts = append(name.Parts, part)
		if !p.match(TokenDot) {
			break
		}
	}
	if p.check(TokenLParen) {
		// Table-valued function call.
		name.Args = true
		p.skimParens()
	}
	if p.matchKeyword("TABLESAMPLE") {
		p.nextToken() // sampling method
		if p.check(TokenLParen) {
			p.skimParens()
		}
	}
	p.parseAlias()
	return name
}

func (p *Parser) parseAlias() {
	if p.matchKeyword("AS") {
		if _, ok := p.identifier(); !ok {
			p.errorf("expected alias after AS, found %q", p.token.Literal)
			return
		}
	} else if p.check(TokenQuotedIdent) || (p.check(TokenWord) && !p.reservedAfterFactor()) {
		p.nextToken()
	} else {
		return
	}
	if p.check(TokenLParen) { // column alias list
		p.skimParens()
	}
}

func (p *Parser) reservedAfterFactor() bool {
	for _, kw := range fromStops {
		if p.token.Is(kw) {
			return true
		}
	}
	return p.token.IsAny("AS", "TABLESAMPLE", "SET", "RETURNING")
}

func (p *Parser) identifier() (string, bool) {
	if p.check(TokenWord) || p.check(TokenQuotedIdent) {
		lit := p.token.Literal
		p.nextToken()
		return lit, true
	}
	return "", false
}

// ---------- Skimming ----------

// skimUntil consumes tokens until one of the stop keywords appears at paren
// depth zero, or the statement ends. Illegal tokens fail the parse so the
// next dialect (or the lexical fallback) gets its turn.
func (p *Parser) skimUntil(stops ...string) {
	depth := 0
	for {
		switch p.token.Type {
		case TokenEOF, TokenSemicolon:
			return
		case TokenIllegal:
			p.errorf("unexpected character %q", p.token.Literal)
			return
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth == 0 {
				return
			}
			depth--
		case TokenWord:
			if depth == 0 {
				for _, s := range stops {
					if p.token.Upper == s {
						return
					}
				}
			}
		}
		p.nextToken()
	}
}

// skimJoinCondition consumes a join's ON expression. Unlike skimUntil it also
// stops at a depth-zero comma, which separates entries in the FROM list.
func (p *Parser) skimJoinCondition() {
	depth := 0
	for {
		switch p.token.Type {
		case TokenEOF, TokenSemicolon:
			return
		case TokenIllegal:
			p.errorf("unexpected character %q", p.token.Literal)
			return
		case TokenComma:
			if depth == 0 {
				return
			}
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth == 0 {
				return
			}
			depth--
		case TokenWord:
			if depth == 0 {
				for _, s := range fromStops {
					if p.token.Upper == s {
						return
					}
				}
			}
		}
		p.nextToken()
	}
}

// skimParens consumes a balanced parenthesized group, contents included.
func (p *Parser) skimParens() {
	if !p.check(TokenLParen) {
		p.errorf("expected (, found %q", p.token.Literal)
		return
	}
	depth := 0
	for {
		switch p.token.Type {
		case TokenEOF:
			p.errorf("unterminated parenthesized group")
			return
		case TokenIllegal:
			p.errorf("unexpected character %q", p.token.Literal)
			return
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				p.nextToken()
				return
			}
		}
		p.nextToken()
	}
}

// skimStatement consumes the remainder of the current statement.
func (p *Parser) skimStatement() {
	depth := 0
	for {
		switch p.token.Type {
		case TokenEOF:
			return
		case TokenSemicolon:
			if depth == 0 {
				return
			}
		case TokenIllegal:
			p.errorf("unexpected character %q", p.token.Literal)
			return
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth == 0 {
				p.errorf("unbalanced )")
				return
			}
			depth--
		}
		p.nextToken()
	}
}
