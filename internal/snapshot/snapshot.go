// Package snapshot persists schema trees as JSON so that acquisition and
// comparison can run separately.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tordrt/schemadiff/internal/schema"
)

// FormatVersion is written to every snapshot and checked on load.
const FormatVersion = 1

type document struct {
	Version  int              `json:"version"`
	Created  time.Time        `json:"created"`
	Source   string           `json:"source,omitempty"`
	Database *schema.Database `json:"database"`
}

// Write encodes db to w. source describes where the schema was read from
// and may be empty.
func Write(w io.Writer, db *schema.Database, source string) error {
	if db == nil {
		return fmt.Errorf("failed to write snapshot: no database")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	doc := document{Version: FormatVersion, Created: time.Now().UTC(), Source: source, Database: db}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Read decodes a snapshot and relinks the tree: parents are set, every node
// is indexed, and nodes without a GUID get one.
func Read(r io.Reader) (*schema.Database, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (expected %d)", doc.Version, FormatVersion)
	}
	if doc.Database == nil {
		return nil, fmt.Errorf("snapshot has no database")
	}
	db := doc.Database
	db.Link()
	for _, e := range db.AllObjects().Entries() {
		if n := e.Node(); n != nil {
			n.Metadata().EnsureGUID()
		}
	}
	return db, nil
}

// Save writes db to the file at path.
func Save(path string, db *schema.Database, source string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if err := Write(f, db, source); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load reads the snapshot file at path.
func Load(path string) (*schema.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()
	return Read(f)
}
