package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Path of the catalog document at the repository root.
const Path = "books.json"

// Entry is one book record in books.json. Entries are append-only,
// the admin never edits or deletes them here.
type Entry struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Pdf    string `json:"pdf"`
	Cover  string `json:"cover"`
	Added  string `json:"added"`
}

func NewEntry(title string, author string, pdfPath string, now time.Time) Entry {
	return Entry{
		Title:  title,
		Author: author,
		Pdf:    pdfPath,
		Cover:  "",
		Added:  now.UTC().Format(time.RFC3339),
	}
}

// Decode parses the raw catalog document. A corrupt or empty document
// degrades to an empty catalog instead of failing the upload.
func Decode(raw []byte) []Entry {
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}

func Encode(entries []Entry) ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent(entries). %w", err)
	}
	return jsonBytes, nil
}
