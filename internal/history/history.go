// Package history keeps the most recent conversions on disk, newest first.
package history

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Danondso/audiotext/internal/config"
)

// Capacity is the number of entries kept.
const Capacity = 20

// previewRunes is the length of TextPreview before the ellipsis.
const previewRunes = 100

// Entry is one recorded conversion.
type Entry struct {
	Timestamp   time.Time `toml:"timestamp"`
	Filename    string    `toml:"filename"`
	TextPreview string    `toml:"text_preview"`
	FullText    string    `toml:"full_text"`
	DurationSec float64   `toml:"duration_sec"`
	Language    string    `toml:"language"`
	Confidence  float64   `toml:"confidence"`
}

type file struct {
	Entries []Entry `toml:"entry"`
}

// Store is the on-disk history. It is not safe for concurrent use; callers
// keep it on a single goroutine.
type Store struct {
	path    string
	entries []Entry
	logger  *log.Logger
	now     func() time.Time
}

// Load reads the history at path. A missing file yields an empty store.
func Load(path string, logger *log.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger, now: time.Now}

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	s.entries = f.Entries
	if len(s.entries) > Capacity {
		s.entries = s.entries[:Capacity]
	}
	if s.logger != nil {
		s.logger.Printf("history: loaded %d entries from %s", len(s.entries), path)
	}
	return s, nil
}

// Preview shortens text to its first 100 runes followed by "...".
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "..."
}

// Add records a conversion at the front of the history and saves it.
func (s *Store) Add(filename, text string, duration time.Duration, language string, confidence float64) error {
	e := Entry{
		Timestamp:   s.now().Truncate(time.Second),
		Filename:    filepath.Base(filename),
		TextPreview: Preview(text),
		FullText:    text,
		DurationSec: duration.Seconds(),
		Language:    language,
		Confidence:  confidence,
	}
	s.entries = append([]Entry{e}, s.entries...)
	if len(s.entries) > Capacity {
		s.entries = s.entries[:Capacity]
	}
	if s.logger != nil {
		s.logger.Printf("history: added %s (%d entries)", e.Filename, len(s.entries))
	}
	return s.save()
}

// Entries returns a copy of the history, newest first.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry at index i.
func (s *Store) Get(i int) (Entry, bool) {
	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Clear removes every entry and saves the empty history.
func (s *Store) Clear() error {
	s.entries = nil
	if s.logger != nil {
		s.logger.Printf("history: cleared")
	}
	return s.save()
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	if err := config.WriteTOMLAtomic(s.path, file{Entries: s.entries}); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
