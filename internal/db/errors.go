package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrNotFound    = errors.New("db: row not found")
)

// Op constants name the failing operation for error context.
const (
	OpBegin    = "BEGIN"
	OpCommit   = "COMMIT"
	OpRollback = "ROLLBACK"
	OpMigrate  = "MIGRATE"
	OpExec     = "EXEC"
	OpQuery    = "QUERY"
	OpHGetAll  = "HGETALL"
	OpHSet     = "HSET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
