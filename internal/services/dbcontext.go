package services

import (
	"context"

	"gorm.io/gorm"
)

// DBContext pairs a request context with an optional open transaction, so
// service calls compose inside a caller's transaction or run standalone.
// A nil Tx means the repo falls back to its own connection.
type DBContext struct {
	Ctx context.Context
	Tx  *gorm.DB
}
