package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError rolls back an unfinished transaction. Rolling back after
// a successful commit is a no-op.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toNullString(config any) (sql.NullString, error) {
	var ns sql.NullString

	switch v := config.(type) {
	case nil:
		return ns, nil

	case string:
		ns.String = v

	case []byte:
		ns.String = string(v)

	default:
		p, err := json.Marshal(v)
		if err != nil {
			return ns, fmt.Errorf("marshaling config: %w", err)
		}
		ns.String = string(p)
	}

	ns.Valid = true
	return ns, nil
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
