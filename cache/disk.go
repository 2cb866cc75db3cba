// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// ErrMiss indicates there is no entry for the requested key.
var ErrMiss = errors.New("cache: no such entry")

// A Store holds serialized cache entries by key.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Store interface {
	// Get returns the entry for key. If there is no entry, the error
	// satisfies errors.Is(err, ErrMiss).
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any previous entry.
	Set(key string, value []byte) error
	// Delete removes the entry for key, if any.
	Delete(key string) error
}

// DefaultMaxBytes is the default byte budget of a Disk store, 10 MiB.
const DefaultMaxBytes = 10 << 20

// entrySuffix marks cache entry files, distinguishing them from
// anything else that may end up in the directory.
const entrySuffix = "-d"

// markInterval is the minimum age of an entry's modification time
// before a read refreshes it. Reads within the interval leave the file
// alone, so a hot entry does not cause an inode update on every hit.
const markInterval = time.Minute

// Disk is a Store kept in a directory on the file system.
type Disk struct {
	dir      string
	maxBytes int64
	timeNow  func() time.Time
	mu       sync.Mutex // serializes trimming
}

var _ Store = &Disk{}

// NewDisk creates dir if needed and returns a store that keeps at most
// maxBytes of entries in it. If maxBytes is not positive,
// DefaultMaxBytes is used.
func NewDisk(dir string, maxBytes int64) (*Disk, error) {
	return newDisk(dir, maxBytes, os.MkdirAll)
}

type osMkdirAll func(path string, perm fs.FileMode) error

func newDisk(dir string, maxBytes int64, mkdir osMkdirAll) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := mkdir(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "cache: create %s", dir)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Disk{dir: dir, maxBytes: maxBytes, timeNow: time.Now}, nil
}

// Dir returns the cache directory.
func (d *Disk) Dir() string {
	return d.dir
}

// MaxBytes returns the byte budget.
func (d *Disk) MaxBytes() int64 {
	return d.maxBytes
}

// Get implements Store.
func (d *Disk) Get(key string) ([]byte, error) {
	_, fpath := d.fsmap(key)
	data, err := lockedfile.Read(fpath)
	if os.IsNotExist(err) {
		return nil, ErrMiss
	} else if err != nil {
		return nil, errors.Wrap(err, "cache: read entry")
	}
	d.maybeMarkAsUsed(fpath)
	return data, nil
}

// Set implements Store. An entry larger than the whole budget is not
// stored.
func (d *Disk) Set(key string, value []byte) error {
	if int64(len(value)) > d.maxBytes {
		return d.Delete(key)
	}
	dpath, fpath := d.fsmap(key)
	if err := os.MkdirAll(dpath, 0700); err != nil {
		return errors.Wrap(err, "cache: create entry directory")
	}
	if err := lockedfile.Write(fpath, bytes.NewReader(value), 0600); err != nil {
		return errors.Wrap(err, "cache: write entry")
	}
	now := d.timeNow()
	_ = os.Chtimes(fpath, now, now)
	return d.Trim()
}

// Delete implements Store.
func (d *Disk) Delete(key string) error {
	_, fpath := d.fsmap(key)
	if err := os.Remove(fpath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "cache: delete entry")
	}
	return nil
}

// Size returns the total size in bytes of all entries.
func (d *Disk) Size() (int64, error) {
	entries, err := d.entries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.size
	}
	return total, nil
}

// Trim removes least recently used entries until the total size of the
// remaining entries is within the byte budget.
func (d *Disk) Trim() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.entries()
	if err != nil {
		return err
	}
	var total int64
	for _, e := range entries {
		total += e.size
	}
	if total <= d.maxBytes {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].mtime.Before(entries[j].mtime)
	})
	for _, e := range entries {
		if total <= d.maxBytes {
			break
		}
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "cache: trim")
		}
		total -= e.size
	}
	return nil
}

type entry struct {
	path  string
	size  int64
	mtime time.Time
}

func (d *Disk) entries() ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(d.dir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), entrySuffix) {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			// Removed by a concurrent trim.
			return nil
		}
		entries = append(entries, entry{path: path, size: info.Size(), mtime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cache: scan")
	}
	return entries, nil
}

// fsmap maps a given key to a directory and a file path.
func (d *Disk) fsmap(key string) (dpath, fpath string) {
	hs := sha256.Sum256([]byte(key))
	dpath = filepath.Join(d.dir, fmt.Sprintf("%02x", hs[0]))
	fpath = filepath.Join(dpath, fmt.Sprintf("%02x%s", hs, entrySuffix))
	return
}

// maybeMarkAsUsed makes a best-effort attempt to update the
// modification time of file, so that it roughly reflects the time of
// last use for trimming.
func (d *Disk) maybeMarkAsUsed(file string) {
	info, err := os.Stat(file)
	now := d.timeNow()
	if err == nil && now.Sub(info.ModTime()) < markInterval {
		return
	}
	_ = os.Chtimes(file, now, now)
}
