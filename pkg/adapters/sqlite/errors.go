package sqlite

import (
	"fmt"
	"strings"

	"github.com/aretw0/notes/pkg/core"
)

// translate maps a database/sql error onto the core taxonomy.
// SQLite reports a missing table with the generic SQLITE_ERROR code, so the
// message is the only signal available.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTableMissing(err.Error()) {
		return fmt.Errorf("%s: %w: %v", op, core.ErrTableMissing, err)
	}
	return core.NewTransportError(op, err)
}

func isTableMissing(message string) bool {
	m := strings.ToLower(message)
	if strings.Contains(m, "no such table") {
		return true
	}
	return strings.Contains(m, "relation") && strings.Contains(m, "does not exist")
}
