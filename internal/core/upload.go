package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shelfadmin/internal/catalog"
	"shelfadmin/internal/database"

	"github.com/google/uuid"
)

// Validation failures, reported before any remote call is made.
var (
	ErrMissingTitle = errors.New("missing title")
	ErrMissingPdf   = errors.New("missing pdf file")
)

// PartialCommitError reports an upload that left the remote store
// inconsistent: the PDF was written but the catalog was not updated.
// Compensated is true when the rollback delete removed the blob again;
// otherwise the blob was recorded in the orphan log.
type PartialCommitError struct {
	PdfPath     string
	Compensated bool
	Err         error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("partial commit for %s: %v", e.PdfPath, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

type UploadRequest struct {
	Title  string
	Author string
	Pdf    []byte
}

type UploadResult struct {
	PdfPath string
	Entry   catalog.Entry
}

// UploadBook runs one upload transaction: write the PDF blob, then
// read-modify-write books.json guarded by its revision marker. The
// two writes are not atomic; a failure after the first one triggers
// the compensation path.
func (s *AdminServer) UploadBook(ctx context.Context, req UploadRequest) (UploadResult, error) {
	var result UploadResult

	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = "Unknown"
	}

	if title == "" {
		return result, ErrMissingTitle
	}
	if len(req.Pdf) == 0 {
		return result, ErrMissingPdf
	}

	now := time.Now()
	slug := catalog.Slugify(title)
	if slug == "" {
		slug = catalog.TimestampName(now)
	}

	slug = s.uniqueSlug(ctx, slug)
	pdfPath := "pdfs/" + slug + ".pdf"

	pdfSha, err := s.Store.PutFile(ctx, pdfPath, req.Pdf, "Add book PDF: "+title, s.Cfg.Branch, "")
	if err != nil {
		return result, fmt.Errorf("s.Store.PutFile(pdfPath). %w", err)
	}

	file, err := s.Store.GetFile(ctx, catalog.Path, s.Cfg.Branch)
	if err != nil {
		rolledBack := s.compensate(ctx, pdfPath, pdfSha, title, fmt.Sprintf("catalog fetch failed: %v", err))
		return result, &PartialCommitError{PdfPath: pdfPath, Compensated: rolledBack, Err: err}
	}

	entries := catalog.Decode(file.Content)
	entry := catalog.NewEntry(title, author, pdfPath, now)
	entries = append(entries, entry)

	updated, err := catalog.Encode(entries)
	if err != nil {
		rolledBack := s.compensate(ctx, pdfPath, pdfSha, title, fmt.Sprintf("catalog encode failed: %v", err))
		return result, &PartialCommitError{PdfPath: pdfPath, Compensated: rolledBack, Err: err}
	}

	// file.Sha is empty when books.json does not exist yet, which
	// asks the store to create it.
	_, err = s.Store.PutFile(ctx, catalog.Path, updated, "Update books.json: add "+title, s.Cfg.Branch, file.Sha)
	if err != nil {
		rolledBack := s.compensate(ctx, pdfPath, pdfSha, title, fmt.Sprintf("catalog update failed: %v", err))
		return result, &PartialCommitError{PdfPath: pdfPath, Compensated: rolledBack, Err: err}
	}

	s.rememberSlug(slug)

	result.PdfPath = pdfPath
	result.Entry = entry
	return result, nil
}

// uniqueSlug probes pdfs/<slug>.pdf, pdfs/<slug>-2.pdf, ... until the
// path is free. The remote probe only runs when the bloom filter has
// seen the candidate; a miss there means this process never wrote it.
// Collisions from other writers still fail loudly at the create, the
// store rejects an unmarked put over an existing file.
func (s *AdminServer) uniqueSlug(ctx context.Context, slug string) string {
	candidate := slug
	for i := 2; ; i++ {
		if !s.slugSeen(candidate) {
			return candidate
		}

		file, err := s.Store.GetFile(ctx, "pdfs/"+candidate+".pdf", s.Cfg.Branch)
		if err != nil {
			log.Printf("s.Store.GetFile(slug probe) %+v", err)
			return candidate
		}
		if !file.Exists {
			return candidate
		}

		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}

// compensate tries to delete the just-written PDF and reports whether
// that worked; when the delete fails too the blob is recorded in the
// orphan log for manual reconciliation.
func (s *AdminServer) compensate(ctx context.Context, pdfPath string, pdfSha string, title string, reason string) bool {
	if pdfSha != "" {
		err := s.Store.DeleteFile(ctx, pdfPath, "Remove orphaned PDF: "+title, s.Cfg.Branch, pdfSha)
		if err == nil {
			log.Printf("rolled back orphaned pdf %v", pdfPath)
			return true
		}
		log.Printf("s.Store.DeleteFile(%v) %+v", pdfPath, err)
	}

	orphan := database.Orphan{
		Id:        uuid.NewString(),
		PdfPath:   pdfPath,
		Title:     title,
		Reason:    reason,
		CreatedAt: uint64(time.Now().Unix()),
	}

	tx, err := s.DB.BeginTransaction()
	if err != nil {
		log.Printf("s.DB.BeginTransaction() %+v", err)
		return false
	}

	if err := s.DB.AddOrphan(tx, orphan); err != nil {
		log.Printf("s.DB.AddOrphan(tx, orphan) %+v", err)
		tx.Rollback()
		return false
	}

	if err := tx.Commit(); err != nil {
		log.Printf("tx.Commit() %+v", err)
		return false
	}

	log.Printf("recorded orphaned pdf %v: %v", pdfPath, reason)
	return false
}
