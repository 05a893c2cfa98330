package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/quernlabs/quern/internal/db/metadata"
	"github.com/quernlabs/quern/internal/models"
)

const maxCompletions = 10

var sqlKeywords = []string{
	"SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "IN", "LIKE", "BETWEEN",
	"ORDER", "BY", "ASC", "DESC", "LIMIT", "OFFSET", "GROUP", "HAVING",
	"JOIN", "LEFT", "RIGHT", "INNER", "OUTER", "FULL", "CROSS", "ON",
	"INSERT", "INTO", "VALUES", "UPDATE", "SET", "DELETE", "CREATE",
	"TABLE", "INDEX", "VIEW", "DROP", "ALTER", "ADD", "COLUMN",
	"PRIMARY", "KEY", "FOREIGN", "REFERENCES", "UNIQUE", "NULL",
	"DEFAULT", "CONSTRAINT", "CASCADE", "DISTINCT", "AS", "CASE",
	"WHEN", "THEN", "ELSE", "END", "COUNT", "SUM", "AVG", "MIN", "MAX",
	"COALESCE", "NULLIF", "CAST", "UNION", "ALL", "EXISTS", "ANY",
}

// Completions returns up to ten completion candidates for prefix: SQL
// keywords plus schema, table and column names from the tab's connection,
// matched case-insensitively. An empty prefix yields nothing. Schema
// lookups are best effort; keywords alone are still offered when the tab
// has no usable connection.
func (e *Engine) Completions(ctx context.Context, tabID, prefix string) []string {
	if prefix == "" {
		return nil
	}

	entries := sqlKeywords
	if pool, _, err := e.poolForTab(tabID); err == nil {
		if schemas, err := metadata.AllSchemas(ctx, pool); err == nil {
			entries = completionIndex(schemas)
		}
	}

	lower := strings.ToLower(prefix)
	var matches []string
	for _, entry := range entries {
		if strings.HasPrefix(strings.ToLower(entry), lower) {
			matches = append(matches, entry)
			if len(matches) == maxCompletions {
				break
			}
		}
	}
	return matches
}

// completionIndex merges the SQL keywords with every table and column name,
// both bare and qualified, sorted and deduplicated.
func completionIndex(schemas []models.SchemaInfo) []string {
	entries := append([]string(nil), sqlKeywords...)
	for _, schema := range schemas {
		for _, table := range schema.Tables {
			entries = append(entries, table.Name, schema.Name+"."+table.Name)
			for _, col := range table.Columns {
				entries = append(entries, col.Name, table.Name+"."+col.Name)
			}
		}
	}
	sort.Strings(entries)

	deduped := entries[:0]
	for i, entry := range entries {
		if i == 0 || entry != entries[i-1] {
			deduped = append(deduped, entry)
		}
	}
	return deduped
}
