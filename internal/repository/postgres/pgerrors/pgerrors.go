package pgerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUndefinedTable = "42P01"
	codeQueryCanceled  = "57014"
)

func IsUndefinedTable(err error) bool {
	return hasCode(err, codeUndefinedTable)
}

func IsQueryCanceled(err error) bool {
	return hasCode(err, codeQueryCanceled)
}

// Wrap adds a migration hint to undefined-table errors and passes anything
// else through.
func Wrap(table string, err error) error {
	if err == nil {
		return nil
	}
	if IsUndefinedTable(err) {
		return fmt.Errorf("table %s missing, run migrations: %w", table, err)
	}
	return err
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
