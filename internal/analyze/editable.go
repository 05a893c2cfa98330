package analyze

// EditableInfo is the judgment over a single SELECT: whether its result set
// maps 1:1 onto a base table that can be updated in place, and if so which.
type EditableInfo struct {
	Editable bool
	Schema   string // empty when the query did not qualify the table
	Table    string
	Reason   string // populated when not editable
}

func notEditable(reason string) EditableInfo {
	return EditableInfo{Reason: reason}
}

// ExtractSourceTable determines whether a SELECT reads from exactly one plain
// base table, with no construct that would break the row-to-table mapping.
// The disqualifying conditions are checked in a fixed order so the reason
// string is deterministic for a given query.
func ExtractSourceTable(sql string) EditableInfo {
	stmts, err := Parse(sql)
	if err != nil {
		return notEditable("Could not parse SQL")
	}
	if len(stmts) != 1 {
		return notEditable("Multiple statements")
	}
	sel, ok := stmts[0].(*SelectStmt)
	if !ok {
		return notEditable("Not a SELECT query")
	}

	if sel.With != nil {
		return notEditable("Query uses CTEs")
	}
	if sel.Body.HasSetOp() || sel.Body.Left == nil {
		return notEditable("Query uses set operations")
	}
	core := sel.Body.Left
	if core.Distinct {
		return notEditable("Query uses DISTINCT")
	}
	if core.HasGroupBy {
		return notEditable("Query uses GROUP BY")
	}
	if core.GroupByAll {
		return notEditable("Query uses GROUP BY ALL")
	}
	if core.HasHaving {
		return notEditable("Query uses HAVING")
	}
	if len(core.From) != 1 {
		return notEditable("Query must have exactly one table in FROM")
	}
	expr := core.From[0]
	if expr.Joins > 0 {
		return notEditable("Query uses JOINs")
	}

	name, ok := expr.Factor.(*TableName)
	if !ok {
		return notEditable("FROM clause is not a simple table")
	}
	if name.Args {
		return notEditable("FROM clause is a table-valued function")
	}

	switch n := len(name.Parts); {
	case n == 1:
		return EditableInfo{Editable: true, Table: name.Parts[0]}
	case n == 2:
		return EditableInfo{Editable: true, Schema: name.Parts[0], Table: name.Parts[1]}
	case n >= 3:
		// catalog.schema.table and deeper: keep the last two parts.
		return EditableInfo{Editable: true, Schema: name.Parts[n-2], Table: name.Parts[n-1]}
	default:
		return notEditable("Could not parse table name")
	}
}

// QuoteIdent quotes a SQL identifier, doubling embedded double quotes so
// hostile names cannot escape the quoting.
func QuoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"', '"')
		} else {
			quoted = append(quoted, name[i])
		}
	}
	return string(append(quoted, '"'))
}
