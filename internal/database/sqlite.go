package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type SqliteDB struct {
	Db *sql.DB
}

func (sq SqliteDB) BeginTransaction() (*sql.Tx, error) {
	tx, err := sq.Db.Begin()
	if err != nil {
		return nil, fmt.Errorf("sq.Db.Begin(). %w", err)
	}

	return tx, nil
}

func (sq SqliteDB) AddOrphan(tx *sql.Tx, orphan Orphan) error {
	_, err := tx.Exec("INSERT INTO orphans (id, pdf_path, title, reason, created_at, resolved) values (?, ?, ?, ?, ?, ?)",
		orphan.Id, orphan.PdfPath, orphan.Title, orphan.Reason, orphan.CreatedAt, orphan.Resolved,
	)
	if err != nil {
		return fmt.Errorf(`tx.Exec("INSERT INTO orphans "). %w`, err)
	}

	return nil
}

func (sq SqliteDB) GetUnresolvedOrphans() ([]Orphan, error) {
	var orphans []Orphan

	stmt, err := sq.Db.Prepare("SELECT id, pdf_path, title, reason, created_at, resolved FROM orphans WHERE resolved = false ORDER BY created_at")
	if err != nil {
		return orphans, fmt.Errorf("sq.Db.Prepare(). %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return orphans, fmt.Errorf("stmt.Query(). %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o Orphan
		err = rows.Scan(&o.Id, &o.PdfPath, &o.Title, &o.Reason, &o.CreatedAt, &o.Resolved)
		if err != nil {
			return orphans, fmt.Errorf("rows.Scan(&o.Id, ...) %w", err)
		}

		orphans = append(orphans, o)
	}

	return orphans, nil
}

func (sq SqliteDB) ResolveOrphan(tx *sql.Tx, id string) error {
	stmt, err := tx.Prepare("UPDATE orphans SET resolved = true WHERE id = ?")
	if err != nil {
		return fmt.Errorf("tx.Prepare(). %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("stmt.Exec(id). %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("res.RowsAffected(). %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

//go:embed migrations/*.sql
var EmbedMigrations embed.FS

func DatabaseSetup(ctx context.Context, databaseDir string) (SqliteDB, error) {
	var sqlitedb SqliteDB

	db, err := sql.Open("sqlite3", databaseDir+"/"+"shelfadmin.db")
	if err != nil {
		return sqlitedb, fmt.Errorf(`sql.Open("sqlite3", string + "shelfadmin.db"). %w`, err)
	}

	goose.SetBaseFS(EmbedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return sqlitedb, fmt.Errorf("goose.SetDialect(). %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return sqlitedb, fmt.Errorf("goose.Up(). %w", err)
	}

	sqlitedb.Db = db

	return sqlitedb, nil
}
