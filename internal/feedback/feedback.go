// Package feedback appends user feedback records to the append-only log
// consumed by the ingestion pipeline.
package feedback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dwmorris/sqlpilot/internal/errors"
)

// Record is one feedback event. CorrectedSQL, when present, is the trusted
// signal; Correct marks the generated query itself as right.
type Record struct {
	ID           string `json:"id,omitempty"`
	TS           int64  `json:"ts"`
	Question     string `json:"question"`
	GeneratedSQL string `json:"generated_sql"`
	Correct      bool   `json:"correct"`
	CorrectedSQL string `json:"corrected_sql,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Log is the append-only JSONL feedback log.
type Log struct {
	path string
}

// NewLog creates a log writer for the given path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one record as a single JSON line. ID and TS are filled in
// when absent.
func (l *Log) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	if rec.TS == 0 {
		rec.TS = time.Now().Unix()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIngest, "failed to encode feedback record")
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create state directory")
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to open feedback log")
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to append feedback record")
	}

	return nil
}
