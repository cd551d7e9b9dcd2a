// Package repository holds the PostgreSQL data access layer. Repositories
// return nil, nil for missing rows and wrap every database error.
package repository

import "errors"

// ErrAlreadyExists is returned when an insert collides with an existing row.
var ErrAlreadyExists = errors.New("already exists")
