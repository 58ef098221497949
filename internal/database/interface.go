package database

import (
	"database/sql"
)

// Orphan is a PDF that made it into the remote store without a
// matching catalog entry. Rows stay until an operator reconciles them.
type Orphan struct {
	Id        string `db:"id"`
	PdfPath   string `db:"pdf_path"`
	Title     string `db:"title"`
	Reason    string `db:"reason"`
	CreatedAt uint64 `db:"created_at"`
	Resolved  bool   `db:"resolved"`
}

type Database interface {
	BeginTransaction() (*sql.Tx, error)

	AddOrphan(tx *sql.Tx, orphan Orphan) error
	GetUnresolvedOrphans() ([]Orphan, error)
	ResolveOrphan(tx *sql.Tx, id string) error
}
