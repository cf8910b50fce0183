// Package jsonfile disponibiliza stores persistidos em arquivos JSON no disco local.
package jsonfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// renameFile is swapped in tests to simulate a crash between write and rename.
var renameFile = os.Rename

// atomicFile serializes writes to one canonical path. Each write goes to a temp
// file in the same directory and is renamed over the target, so readers only ever
// see a complete document.
type atomicFile struct {
	path    string
	mu      sync.Mutex
	pending sync.WaitGroup
}

func newAtomicFile(path string) *atomicFile {
	return &atomicFile{path: path}
}

// persist writes the value returned by snapshot in the background. snapshot is
// called once the previous write finished, so the newest state always lands last.
func (f *atomicFile) persist(snapshot func() any) <-chan error {
	done := make(chan error, 1)
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		defer close(done)
		f.mu.Lock()
		defer f.mu.Unlock()
		done <- writeAtomic(f.path, snapshot())
	}()
	return done
}

// wait blocks until every write scheduled so far has finished.
func (f *atomicFile) wait() {
	f.pending.Wait()
}

// load decodes the canonical file into v.
func (f *atomicFile) load(v any) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(f.path), err)
	}
	return nil
}

func writeAtomic(path string, v any) (err error) {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = renameFile(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
