// Package ingest folds the feedback log into the corpus store
// incrementally: the log is the write-ahead record, the corpus, synonym,
// and pattern snapshots are derived state, and a byte-offset checkpoint is
// the replay cursor. Snapshots are committed before the checkpoint
// advances, so a crash mid-ingestion only ever causes a safe re-read of
// the same byte range.
package ingest

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dwmorris/sqlpilot/internal/corpus"
	"github.com/dwmorris/sqlpilot/internal/errors"
	"github.com/dwmorris/sqlpilot/internal/feedback"
	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/logging"
	"github.com/dwmorris/sqlpilot/internal/pmi"
	"github.com/dwmorris/sqlpilot/internal/sqlgen"
)

// Pipeline replays new feedback records into the corpus store. Ingest
// calls are serialized by an in-process mutex; the snapshot writes
// themselves are atomic renames, so concurrent readers are always safe.
type Pipeline struct {
	feedbackPath   string
	checkpointPath string
	store          *corpus.Store
	logger         *logging.Logger

	mu sync.Mutex
}

// NewPipeline creates a pipeline over the feedback log, checkpoint file,
// and corpus store.
func NewPipeline(feedbackPath, checkpointPath string, store *corpus.Store) *Pipeline {
	return &Pipeline{
		feedbackPath:   feedbackPath,
		checkpointPath: checkpointPath,
		store:          store,
		logger:         logging.GetLogger(),
	}
}

// Result reports what one ingestion pass did.
type Result struct {
	Added int // pairs newly added or reinforced in this pass
	Total int // unique pairs in the corpus after the pass
}

// Ingest processes feedback appended since the last checkpoint. Only
// corrected or explicitly-correct records contribute; malformed lines are
// skipped. Merging is keyed by exact (question, sql) pairs, so replaying a
// byte range after a crash cannot create duplicates.
func (p *Pipeline) Ingest() (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset, err := p.readCheckpoint()
	if err != nil {
		return Result{}, err
	}

	entries, err := p.store.LoadUserCorpus()
	if err != nil {
		return Result{}, err
	}

	f, err := os.Open(p.feedbackPath)
	if os.IsNotExist(err) {
		return Result{Total: len(entries)}, nil
	}

	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrTypeFileSystem, "failed to open feedback log")
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrTypeIngest, "failed to seek to checkpoint offset")
	}

	synonyms, err := p.store.LoadSynonyms()
	if err != nil {
		return Result{}, err
	}

	patterns, err := p.store.LoadPatterns()
	if err != nil {
		return Result{}, err
	}

	index := map[[2]string]int{}
	for i, e := range entries {
		index[[2]string{e.Q, e.SQL}] = i
	}

	var (
		reader   = bufio.NewReader(f)
		consumed int64
		added    int
	)

	for {
		line, readErr := reader.ReadString('\n')

		if readErr == io.EOF && !strings.HasSuffix(line, "\n") {
			// Partial trailing line: a writer is mid-append. Leave it for
			// the next pass so the checkpoint never splits a record.
			break
		}

		consumed += int64(len(line))

		if q, sql, ok := acceptedPair(line); ok {
			key := [2]string{q, sql}

			if i, exists := index[key]; exists {
				entries[i].Count++
			} else {
				index[key] = len(entries)
				entries = append(entries, corpus.Entry{Q: q, SQL: sql, Count: 1})
			}

			added++

			mineSynonyms(synonyms, q, sql)

			patterns = append(patterns, Induce(q, sql))
		}

		if readErr != nil {
			break
		}
	}

	if added == 0 && consumed == 0 {
		return Result{Total: len(entries)}, nil
	}

	// Write-then-advance: every snapshot must be durable before the
	// checkpoint moves past the bytes it was derived from.
	if err := p.store.SaveUserCorpus(entries); err != nil {
		return Result{}, err
	}

	if err := p.store.SaveSynonyms(synonyms); err != nil {
		return Result{}, err
	}

	if err := p.store.SavePatterns(patterns); err != nil {
		return Result{}, err
	}

	if err := p.writeCheckpoint(offset + consumed); err != nil {
		return Result{}, err
	}

	p.logger.Debugf("ingested %d feedback pairs, corpus size %d", added, len(entries))

	return Result{Added: added, Total: len(entries)}, nil
}

// acceptedPair extracts the trusted (question, sql) pair from one log
// line: the corrected query when present, else the generated query when
// explicitly marked correct.
func acceptedPair(line string) (q, sql string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}

	var rec feedback.Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return "", "", false
	}

	q = strings.ToLower(sqlgen.Normalize(rec.Question))

	switch {
	case strings.TrimSpace(rec.CorrectedSQL) != "":
		sql = sqlgen.Normalize(rec.CorrectedSQL)
	case rec.Correct:
		sql = sqlgen.Normalize(rec.GeneratedSQL)
	}

	if q == "" || sql == "" {
		return "", "", false
	}

	return q, sql, true
}

// mineSynonyms counts co-occurrences between every non-stop-word question
// token and every column key referenced by the accepted query.
func mineSynonyms(synonyms map[string]corpus.SynonymEntry, q, sql string) {
	cols := pmi.ColumnsFromSQL(sql)
	if len(cols) == 0 {
		return
	}

	for _, tok := range lexicon.RawTokens(q) {
		if len(tok) <= 1 || lexicon.IsStopWord(tok) {
			continue
		}

		entry, ok := synonyms[tok]
		if !ok {
			entry = corpus.SynonymEntry{MapsTo: map[string]int{}}
		}

		for _, col := range cols {
			entry.MapsTo[col]++
		}

		entry.Count++
		synonyms[tok] = entry
	}
}

var (
	yearRE  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	limitRE = regexp.MustCompile(`(?i)\b(limit|top|first)\s+\d+\b`)
)

// Induce generalizes an accepted pair into a reusable pattern: literal
// years become {YEAR}, LIMIT/top/first magnitudes become {K}.
func Induce(q, sql string) corpus.Pattern {
	gen := func(s string) string {
		s = yearRE.ReplaceAllString(s, "{YEAR}")
		s = limitRE.ReplaceAllStringFunc(s, func(m string) string {
			fields := strings.Fields(m)
			return fields[0] + " {K}"
		})

		return s
	}

	return corpus.Pattern{QPat: gen(q), SQLPat: gen(sql)}
}

func (p *Pipeline) readCheckpoint() (int64, error) {
	data, err := os.ReadFile(p.checkpointPath)
	if os.IsNotExist(err) {
		return 0, nil
	}

	if err != nil {
		return 0, errors.Wrap(err, errors.ErrTypeFileSystem, "failed to read checkpoint")
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrTypeIngest, "checkpoint is corrupt")
	}

	if offset < 0 {
		offset = 0
	}

	return offset, nil
}

func (p *Pipeline) writeCheckpoint(offset int64) error {
	dir := filepath.Dir(p.checkpointPath)

	tmp, err := os.CreateTemp(dir, filepath.Base(p.checkpointPath)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create checkpoint temp file")
	}

	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strconv.FormatInt(offset, 10) + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to write checkpoint")
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to sync checkpoint")
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to close checkpoint temp file")
	}

	if err := os.Rename(tmpName, p.checkpointPath); err != nil {
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to replace checkpoint")
	}

	return nil
}
