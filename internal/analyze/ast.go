package analyze

// Statement is a parsed SQL statement. The classifier only models the shape
// it needs: SELECTs in some structural detail, everything else by kind.
type Statement interface {
	stmtNode()
}

// SelectStmt represents a SELECT statement, including the WITH prologue and
// the top-level ORDER BY that trails any set operations.
type SelectStmt struct {
	With       *WithClause
	Body       *SelectBody
	HasOrderBy bool
	HasLimit   bool
}

func (*SelectStmt) stmtNode() {}

// WithClause represents a WITH clause and its CTE list.
type WithClause struct {
	Recursive bool
	CTEs      []string // CTE names; bodies are skimmed, not retained
}

// SelectBody is a select core plus any chained set operation.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType
	Right *SelectBody
}

// HasSetOp reports whether any set operation appears in the chain.
func (b *SelectBody) HasSetOp() bool {
	return b != nil && b.Op != SetOpNone
}

// SetOpType represents a set operation joining two select cores.
type SetOpType string

const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore is one SELECT ... FROM ... block.
type SelectCore struct {
	Distinct   bool
	From       []*TableExpr
	HasGroupBy bool
	GroupByAll bool
	HasHaving  bool
}

// TableExpr is one entry in a FROM list: a factor plus its trailing joins.
type TableExpr struct {
	Factor TableFactor
	Joins  int
}

// TableFactor is the thing being selected from.
type TableFactor interface {
	factorNode()
}

// TableName is a plain (possibly dotted, possibly aliased) table reference.
type TableName struct {
	Parts []string // identifier chain, e.g. catalog.schema.table
	Args  bool     // true for table-valued function calls
}

func (*TableName) factorNode() {}

// SubqueryFactor is a parenthesized subquery in FROM.
type SubqueryFactor struct{}

func (*SubqueryFactor) factorNode() {}

// OtherStmt is any non-SELECT statement, classified by kind only.
type OtherStmt struct {
	Kind QueryType
}

func (*OtherStmt) stmtNode() {}
