package storage

import "errors"

var (
	ErrDBConnection  = errors.New("database connection error")
	ErrDBQuery       = errors.New("database query error")
	ErrMigration     = errors.New("database migration error")
	ErrCreate        = errors.New("create error")
	ErrUpdate        = errors.New("update error")
	ErrNodeNotFound  = errors.New("node not found")
	ErrRoundNotFound = errors.New("round not found")
)
