package supabase

import (
	"fmt"
	"strings"

	"github.com/aretw0/notes/pkg/core"
)

// Error codes that identify a missing relation.
const (
	codeUndefinedTable = "42P01"    // PostgreSQL undefined_table
	codeSchemaCache    = "PGRST205" // PostgREST: table not found in the schema cache
)

// APIError is the error body returned by PostgREST.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// translate maps a PostgREST error onto the core taxonomy.
// The structured code is checked first; the message match is a fallback for
// servers that return only text.
func translate(op string, e *APIError) error {
	if isTableMissing(e.Code, e.Message) {
		return fmt.Errorf("%s: %w: %s", op, core.ErrTableMissing, e.Message)
	}
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", e.Status)
	}
	return &core.TransportError{Op: op, Message: msg, Err: e}
}

func isTableMissing(code, message string) bool {
	switch code {
	case codeUndefinedTable, codeSchemaCache:
		return true
	}
	m := strings.ToLower(message)
	return strings.Contains(m, "relation") && strings.Contains(m, "does not exist")
}
