package analyze

import "strings"

// QueryType classifies a SQL statement by its leading operation.
type QueryType string

const (
	QuerySelect   QueryType = "select"
	QueryInsert   QueryType = "insert"
	QueryUpdate   QueryType = "update"
	QueryDelete   QueryType = "delete"
	QueryDrop     QueryType = "drop"
	QueryTruncate QueryType = "truncate"
	QueryAlter    QueryType = "alter"
	QueryCreate   QueryType = "create"
	QueryOther    QueryType = "other"
)

// Destructive reports whether statements of this type modify data or schema.
func (t QueryType) Destructive() bool {
	switch t {
	case QueryInsert, QueryUpdate, QueryDelete, QueryDrop, QueryTruncate, QueryAlter:
		return true
	}
	return false
}

// RiskDescription returns a short human-readable description of what the
// statement type will do, used in confirmation prompts.
func (t QueryType) RiskDescription() string {
	switch t {
	case QueryDelete:
		return "DELETE will remove rows from the table"
	case QueryDrop:
		return "DROP will permanently delete the table/database"
	case QueryTruncate:
		return "TRUNCATE will remove ALL rows from the table"
	case QueryUpdate:
		return "UPDATE will modify existing data"
	case QueryInsert:
		return "INSERT will add new data"
	case QueryAlter:
		return "ALTER will modify the table structure"
	default:
		return "This query may modify data"
	}
}

// severity orders query types from most to least dangerous. The relative
// position of ALTER between UPDATE and INSERT is load-bearing: confirmation
// prompts key off the winner, so the order is preserved as-is.
var severity = []QueryType{
	QueryDrop, QueryTruncate, QueryDelete, QueryUpdate, QueryAlter,
	QueryInsert, QueryCreate, QuerySelect, QueryOther,
}

func classifyStatement(stmt Statement) QueryType {
	switch s := stmt.(type) {
	case *SelectStmt:
		return QuerySelect
	case *OtherStmt:
		return s.Kind
	default:
		return QueryOther
	}
}

// Classify determines the type of the first statement in the input. If no
// dialect can parse the input it falls back to a lexical scan of the first
// keyword; classification never fails.
func Classify(sql string) QueryType {
	if stmts, err := Parse(sql); err == nil && len(stmts) > 0 {
		return classifyStatement(stmts[0])
	}
	return classifyFallback(sql)
}

// classifyFallback maps the first non-comment word of the input to a type.
func classifyFallback(sql string) QueryType {
	var first string
	for _, line := range strings.Split(strings.TrimSpace(sql), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, word := range strings.Fields(line) {
			if !strings.HasPrefix(word, "--") {
				first = strings.ToUpper(word)
				break
			}
		}
		break
	}

	switch first {
	case "SELECT", "WITH":
		return QuerySelect
	case "INSERT":
		return QueryInsert
	case "UPDATE":
		return QueryUpdate
	case "DELETE":
		return QueryDelete
	case "DROP":
		return QueryDrop
	case "TRUNCATE":
		return QueryTruncate
	case "ALTER":
		return QueryAlter
	case "CREATE":
		return QueryCreate
	default:
		return QueryOther
	}
}

// ClassifyAll classifies every statement in a possibly multi-statement batch.
// On parse failure the whole batch degrades to a single fallback judgment.
func ClassifyAll(sql string) []QueryType {
	if stmts, err := Parse(sql); err == nil && len(stmts) > 0 {
		types := make([]QueryType, len(stmts))
		for i, stmt := range stmts {
			types[i] = classifyStatement(stmt)
		}
		return types
	}
	return []QueryType{classifyFallback(sql)}
}

// MostDangerous returns the most severe classification across a batch,
// regardless of statement order.
func MostDangerous(sql string) QueryType {
	types := ClassifyAll(sql)
	for _, want := range severity {
		for _, t := range types {
			if t == want {
				return t
			}
		}
	}
	return QueryOther
}

// HasTopLevelOrderBy reports whether a SELECT carries a top-level ORDER BY.
// Non-SELECT statements and unparseable input report true: callers use false
// as the trigger for pagination wrapping, so the permissive default is "do
// not wrap".
func HasTopLevelOrderBy(sql string) bool {
	stmts, err := Parse(sql)
	if err != nil || len(stmts) == 0 {
		return true
	}
	if sel, ok := stmts[0].(*SelectStmt); ok {
		return sel.HasOrderBy
	}
	return true
}
