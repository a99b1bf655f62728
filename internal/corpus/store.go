package corpus

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dwmorris/sqlpilot/internal/errors"
)

// Store persists the user corpus, synonym map, and induced patterns. All
// writes go through a write-to-temp-then-rename sequence so readers never
// observe a partially written snapshot.
type Store struct {
	corpusPath   string
	synonymsPath string
	patternsPath string
}

// NewStore creates a store over the three snapshot files.
func NewStore(corpusPath, synonymsPath, patternsPath string) *Store {
	return &Store{
		corpusPath:   corpusPath,
		synonymsPath: synonymsPath,
		patternsPath: patternsPath,
	}
}

// LoadUserCorpus reads the learned corpus; a missing file is an empty
// corpus. Unparsable lines are skipped.
func (s *Store) LoadUserCorpus() ([]Entry, error) {
	var items []Entry

	err := readLines(s.corpusPath, func(line []byte) {
		var e Entry
		if json.Unmarshal(line, &e) == nil && e.Q != "" && e.SQL != "" {
			if e.Count < 1 {
				e.Count = 1
			}

			items = append(items, e)
		}
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// SaveUserCorpus atomically replaces the corpus snapshot, sorted by
// descending count then question text for stable diffing.
func (s *Store) SaveUserCorpus(items []Entry) error {
	sorted := make([]Entry, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}

		return sorted[i].Q < sorted[j].Q
	})

	return writeJSONLines(s.corpusPath, len(sorted), func(i int) interface{} { return sorted[i] })
}

// LoadSynonyms reads the synonym store; missing file yields an empty map.
func (s *Store) LoadSynonyms() (map[string]SynonymEntry, error) {
	data, err := os.ReadFile(s.synonymsPath)
	if os.IsNotExist(err) {
		return map[string]SynonymEntry{}, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeFileSystem, "failed to read synonym store")
	}

	out := map[string]SynonymEntry{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeCorpus, "synonym store is corrupt")
	}

	return out, nil
}

// SaveSynonyms atomically replaces the synonym store.
func (s *Store) SaveSynonyms(syn map[string]SynonymEntry) error {
	data, err := json.MarshalIndent(syn, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeCorpus, "failed to encode synonyms")
	}

	return atomicWrite(s.synonymsPath, append(data, '\n'))
}

// PromotedSynonyms returns token -> column-key aliases for tokens whose
// evidence count meets the threshold, keeping one-off noise out of the
// lexical model.
func (s *Store) PromotedSynonyms(minUses int) (map[string][]string, error) {
	syn, err := s.LoadSynonyms()
	if err != nil {
		return nil, err
	}

	out := map[string][]string{}

	for tok, entry := range syn {
		if entry.Count < minUses {
			continue
		}

		cols := make([]string, 0, len(entry.MapsTo))
		for col := range entry.MapsTo {
			cols = append(cols, col)
		}

		sort.Strings(cols)

		out[tok] = cols
	}

	return out, nil
}

// LoadPatterns reads induced patterns; missing file yields none.
func (s *Store) LoadPatterns() ([]Pattern, error) {
	var items []Pattern

	err := readLines(s.patternsPath, func(line []byte) {
		var p Pattern
		if json.Unmarshal(line, &p) == nil && p.QPat != "" {
			items = append(items, p)
		}
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// SavePatterns atomically replaces the pattern store, deduplicated by
// (question pattern, sql pattern).
func (s *Store) SavePatterns(items []Pattern) error {
	seen := map[Pattern]struct{}{}

	var dedup []Pattern

	for _, p := range items {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}

			dedup = append(dedup, p)
		}
	}

	return writeJSONLines(s.patternsPath, len(dedup), func(i int) interface{} { return dedup[i] })
}

// MaterializePatterns turns up to max induced patterns into concrete
// retrievable entries by substituting default placeholder values.
func MaterializePatterns(patterns []Pattern, max int) []Entry {
	if len(patterns) > max {
		patterns = patterns[:max]
	}

	var out []Entry

	for _, p := range patterns {
		if p.QPat == "" || p.SQLPat == "" {
			continue
		}

		out = append(out, Entry{
			Q:   substitutePlaceholders(p.QPat),
			SQL: substitutePlaceholders(p.SQLPat),
		})
	}

	return out
}

func substitutePlaceholders(s string) string {
	s = strings.ReplaceAll(s, "{K}", "10")
	s = strings.ReplaceAll(s, "{YEAR}", "2024")

	return s
}

func readLines(path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to open %s", filepath.Base(path))
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > 0 {
			fn(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to read %s", filepath.Base(path))
	}

	return nil
}

func writeJSONLines(path string, n int, item func(i int) interface{}) error {
	var b strings.Builder

	for i := 0; i < n; i++ {
		data, err := json.Marshal(item(i))
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeCorpus, "failed to encode record")
		}

		b.Write(data)
		b.WriteByte('\n')
	}

	return atomicWrite(path, []byte(b.String()))
}

// atomicWrite writes to a temp file in the same directory, syncs, and
// renames over the target. Rename atomicity is what makes concurrent
// readers safe without locking.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create state directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create temp file")
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to write temp file")
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to sync temp file")
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to close temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to replace snapshot")
	}

	return nil
}
