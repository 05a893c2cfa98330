package engine

import (
	"fmt"
	"strings"

	"github.com/quernlabs/quern/internal/analyze"
)

// SafetyCheck is the verdict over a statement batch before execution: the
// most dangerous statement type found and whether the UI should ask for
// confirmation before running it.
type SafetyCheck struct {
	QueryType            analyze.QueryType `json:"query_type"`
	ConnectionName       string            `json:"connection_name"`
	DangerousConnection  bool              `json:"is_dangerous_connection"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
}

// WarningMessage renders the confirmation prompt text.
func (c SafetyCheck) WarningMessage() string {
	return fmt.Sprintf("You are about to execute a %s query on '%s'.\n\n%s",
		strings.ToUpper(string(c.QueryType)), c.ConnectionName, c.QueryType.RiskDescription())
}

// CheckSafety classifies sqlText against the tab's connection. Confirmation
// is required only for a destructive statement on a connection tagged
// dangerous, and can be switched off entirely in the config.
func (e *Engine) CheckSafety(sqlText, tabID string) SafetyCheck {
	connName, ok := e.tabs.ConnectionName(tabID)
	if !ok {
		connName = "unknown"
	}

	dangerous := false
	if ok {
		if open, err := e.conns.Get(connName); err == nil {
			dangerous = open.Dangerous
		}
	}

	queryType := analyze.MostDangerous(sqlText)
	confirm := queryType.Destructive() && dangerous
	if e.cfg != nil && !e.cfg.General.ConfirmDestructiveOps {
		confirm = false
	}

	return SafetyCheck{
		QueryType:            queryType,
		ConnectionName:       connName,
		DangerousConnection:  dangerous,
		RequiresConfirmation: confirm,
	}
}
