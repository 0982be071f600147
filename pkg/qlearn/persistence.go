package qlearn

import (
	"cmp"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

const snapshotVersion = 1

type Entry struct {
	State  string
	Action int
	Value  float64
}

type snapshot struct {
	Version int
	Entries []Entry
}

// LoadError reports a persisted table that exists but could not be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load q-table %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Snapshot returns every entry ordered by state then action.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	entries := make([]Entry, 0, len(t.values))
	for sa, v := range t.values {
		entries = append(entries, Entry{State: string(sa.State), Action: sa.Action, Value: v})
	}
	t.mu.RUnlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.State, b.State); c != 0 {
			return c
		}
		return cmp.Compare(a.Action, b.Action)
	})

	return entries
}

func (t *Table) Export(w io.Writer) error {
	s := snapshot{
		Version: snapshotVersion,
		Entries: t.Snapshot(),
	}

	if err := gob.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("encode q-table: %w", err)
	}

	return nil
}

// Import replaces the table contents with a previously exported blob. On
// error the table is left unchanged.
func (t *Table) Import(r io.Reader) error {
	var s snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("decode q-table: %w", err)
	}

	if s.Version != snapshotVersion {
		return fmt.Errorf("unsupported q-table version %d", s.Version)
	}

	values := make(map[StateAction]float64, len(s.Entries))
	for _, e := range s.Entries {
		if len(e.State) != tictactoe.Cells || e.Action < 0 || e.Action >= tictactoe.Cells {
			return fmt.Errorf("malformed q-table entry %q/%d", e.State, e.Action)
		}
		values[StateAction{State: tictactoe.Key(e.State), Action: e.Action}] = e.Value
	}

	t.mu.Lock()
	t.values = values
	t.mu.Unlock()
	return nil
}

// Save writes the table to path through a temporary file so readers never
// observe a partial blob.
func (t *Table) Save(path string) (err error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create q-table directory %s: %w", dir, err)
		}
	}

	file, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create q-table %s: %w", path, err)
	}
	tmp := file.Name()
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmp)
		}
	}()

	if err = t.Export(file); err != nil {
		return err
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close q-table %s: %w", tmp, err)
	}

	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename q-table %s: %w", path, err)
	}

	return nil
}

// Load reads a table saved with Save. A missing file is not an error and
// leaves the table empty; anything unreadable is reported as *LoadError and
// also leaves the table empty.
func (t *Table) Load(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	if err := t.Import(file); err != nil {
		t.mu.Lock()
		t.values = make(map[StateAction]float64)
		t.mu.Unlock()
		return false, &LoadError{Path: path, Err: err}
	}

	return true, nil
}
