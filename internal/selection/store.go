// Package selection keeps named lists of papers as JSON files under the
// papers data directory. One selection may be active; commands that take an
// optional selection fall back to it.
package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/papers-cli/papers/internal/constants"
)

const (
	stateFile  = "state.json"
	fileSuffix = ".json"
)

// Entry is one paper. Fields are filled as far as the paper could be
// resolved; an empty ZoteroKey means it is not in the Zotero library.
type Entry struct {
	ZoteroKey  string   `json:"zotero_key,omitempty"  yaml:"zotero_key,omitempty"`
	OpenAlexID string   `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`
	DOI        string   `json:"doi,omitempty"         yaml:"doi,omitempty"`
	Title      string   `json:"title,omitempty"       yaml:"title,omitempty"`
	Authors    []string `json:"authors,omitempty"     yaml:"authors,omitempty"`
	Year       int      `json:"year,omitempty"        yaml:"year,omitempty"`
	ISSN       []string `json:"issn,omitempty"        yaml:"issn,omitempty"`
	ISBN       []string `json:"isbn,omitempty"        yaml:"isbn,omitempty"`
}

// Selection is a named list of papers.
type Selection struct {
	Name    string  `json:"name"    yaml:"name"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

type state struct {
	Active string `json:"active,omitempty"`
}

// Summary is a selection name with its entry count.
type Summary struct {
	Index   int    `json:"index"   yaml:"index"`
	Name    string `json:"name"    yaml:"name"`
	Entries int    `json:"entries" yaml:"entries"`
	Active  bool   `json:"active"  yaml:"active"`
}

// Store reads and writes selections in one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns papers/selections under $XDG_DATA_HOME, falling back
// to ~/.local/share.
func DefaultDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}

		base = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(base, "papers", "selections")
}

// Dir returns the directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// ValidateName accepts letters, digits, '-' and '_'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: %q", constants.ErrInvalidSelection, name)
	}

	for _, r := range name {
		if !isNameRune(r) {
			return fmt.Errorf("%w: %q", constants.ErrInvalidSelection, name)
		}
	}

	return nil
}

func isNameRune(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileSuffix)
}

// Names returns the selection names in alphabetical order. A missing
// directory has no selections.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading selections: %w", err)
	}

	var names []string

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == stateFile || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		names = append(names, strings.TrimSuffix(name, fileSuffix))
	}

	sort.Strings(names)

	return names, nil
}

// Resolve turns a 1-based index or a case-insensitive name into a
// selection name.
func (s *Store) Resolve(input string) (string, error) {
	names, err := s.Names()
	if err != nil {
		return "", err
	}

	if idx, err := strconv.Atoi(input); err == nil {
		if idx < 1 || idx > len(names) {
			return "", fmt.Errorf("%w: %q", constants.ErrSelectionNotFound, input)
		}

		return names[idx-1], nil
	}

	for _, name := range names {
		if strings.EqualFold(name, input) {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: %q", constants.ErrSelectionNotFound, input)
}

// List summarizes every selection.
func (s *Store) List() ([]Summary, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}

	active := s.Active()
	summaries := make([]Summary, 0, len(names))

	for i, name := range names {
		sel, err := s.Load(name)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, Summary{Index: i + 1, Name: name, Entries: len(sel.Entries), Active: name == active})
	}

	return summaries, nil
}

// Active returns the active selection name, or "" when none is set or the
// state file is unreadable.
func (s *Store) Active() string {
	data, err := os.ReadFile(filepath.Join(s.dir, stateFile))
	if err != nil {
		return ""
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return ""
	}

	return st.Active
}

// SetActive records name as the active selection. An empty name clears it.
func (s *Store) SetActive(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeJSON(filepath.Join(s.dir, stateFile), state{Active: name})
}

// Load reads one selection by exact name.
func (s *Store) Load(name string) (*Selection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", constants.ErrSelectionNotFound, name)
	}

	if err != nil {
		return nil, fmt.Errorf("reading selection %s: %w", name, err)
	}

	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("decoding selection %s: %w", name, err)
	}

	return &sel, nil
}

// Save writes the selection atomically.
func (s *Store) Save(sel *Selection) error {
	if err := ValidateName(sel.Name); err != nil {
		return err
	}

	if sel.Entries == nil {
		sel.Entries = []Entry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeJSON(s.path(sel.Name), sel)
}

// Get loads the selection named by input, or the active one when input is
// empty, and makes it active.
func (s *Store) Get(input string) (*Selection, error) {
	name, err := s.Target(input)
	if err != nil {
		return nil, err
	}

	sel, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	if err := s.SetActive(name); err != nil {
		return nil, err
	}

	return sel, nil
}

// Create makes an empty selection and activates it.
func (s *Store) Create(name string) (*Selection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	if _, err := s.Resolve(name); err == nil {
		return nil, fmt.Errorf("%w: %q", constants.ErrSelectionExists, name)
	}

	sel := &Selection{Name: name, Entries: []Entry{}}
	if err := s.Save(sel); err != nil {
		return nil, err
	}

	if err := s.SetActive(name); err != nil {
		return nil, err
	}

	return sel, nil
}

// Delete removes the selection named by input and clears the active state
// when it pointed at it. It returns the deleted name.
func (s *Store) Delete(input string) (string, error) {
	name, err := s.Resolve(input)
	if err != nil {
		return "", err
	}

	if err := os.Remove(s.path(name)); err != nil {
		return "", fmt.Errorf("deleting selection %s: %w", name, err)
	}

	if s.Active() == name {
		if err := s.SetActive(""); err != nil {
			return "", err
		}
	}

	return name, nil
}

// Add appends entry to the selection named by input, or the active one. An
// entry with the same Zotero key, OpenAlex id or DOI is not added twice; the
// boolean reports whether the entry was added.
func (s *Store) Add(input string, entry Entry) (*Selection, bool, error) {
	name, err := s.Target(input)
	if err != nil {
		return nil, false, err
	}

	sel, err := s.Load(name)
	if err != nil {
		return nil, false, err
	}

	for _, existing := range sel.Entries {
		if existing.Same(entry) {
			return sel, false, nil
		}
	}

	sel.Entries = append(sel.Entries, entry)

	if err := s.Save(sel); err != nil {
		return nil, false, err
	}

	return sel, true, nil
}

// Remove deletes the first entry matching paper from the selection named by
// input, or the active one.
func (s *Store) Remove(input, paper string) (*Entry, error) {
	name, err := s.Target(input)
	if err != nil {
		return nil, err
	}

	sel, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	for i, e := range sel.Entries {
		if !e.Matches(paper) {
			continue
		}

		sel.Entries = append(sel.Entries[:i], sel.Entries[i+1:]...)

		if err := s.Save(sel); err != nil {
			return nil, err
		}

		return &e, nil
	}

	return nil, fmt.Errorf("%w: %q", constants.ErrEntryNotFound, paper)
}

// Target resolves input, falling back to the active selection.
func (s *Store) Target(input string) (string, error) {
	if input != "" {
		return s.Resolve(input)
	}

	active := s.Active()
	if active == "" {
		return "", constants.ErrNoActiveSelection
	}

	return active, nil
}

// writeJSON writes v to path through a temp file and a rename.
func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(s.dir, constants.DataDirPerm); err != nil {
		return fmt.Errorf("creating selections directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	if err := tmp.Chmod(constants.DataFilePerm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("setting permissions of %s: %w", filepath.Base(path), err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("committing %s: %w", filepath.Base(path), err)
	}

	return nil
}
