package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"hn-sentiment/thread"
)

// ErrInvalidDocument is returned when an imported file is not an analysis export.
var ErrInvalidDocument = errors.New("invalid analysis document")

// ExportFileName is the conventional file name for an exported analysis.
func ExportFileName(postID int) string {
	return fmt.Sprintf("hn-%d-analysis.json", postID)
}

// WriteDocument writes doc as indented JSON. A missing version is filled in.
func WriteDocument(w io.Writer, doc *thread.Document) error {
	out := *doc
	if out.Version == "" {
		out.Version = thread.SchemaVersion
	}
	if out.Comments == nil {
		out.Comments = thread.Tree{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("storage: write document %d: %w", doc.PostID, err)
	}
	return nil
}

// ReadDocument decodes an exported analysis. Input without a version or a
// post ID is rejected with ErrInvalidDocument. Comment analyses are
// normalized before the document is returned.
func ReadDocument(r io.Reader) (*thread.Document, error) {
	var doc thread.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidDocument)
	}
	if doc.PostID <= 0 {
		return nil, fmt.Errorf("%w: missing post id", ErrInvalidDocument)
	}
	if doc.Comments == nil {
		doc.Comments = thread.Tree{}
	}
	doc.Comments.Normalize()
	if doc.PostURL == "" {
		doc.PostURL = thread.DiscussionURL(doc.PostID)
	}
	return &doc, nil
}
