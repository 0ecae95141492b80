// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package localfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"registry/modules/db"
)

var _ db.KV = (*FileKV)(nil)

// FileConfig configures the file-backed KV.
type FileConfig struct {
	// Dir is the directory holding one file per key.
	Dir string `env:"DIR" envDefault:"./data"`

	// QuotaBytes bounds the size of a single stored value. Writes above the
	// quota fail with db.ErrQuotaExceeded instead of filling the disk.
	// Defaults to 5 MiB, the conventional browser localStorage budget.
	QuotaBytes int64 `env:"QUOTA_BYTES" envDefault:"5242880"`
}

// FileKV stores each key as a single file under a directory, with a byte
// quota per value. It is the durable default backend: no external service,
// atomic replace-on-write (temp file + rename), whole-value reads.
type FileKV struct {
	dir   string
	quota int64

	mu sync.Mutex
}

// NewFileKV creates the backing directory if needed.
func NewFileKV(cfg FileConfig) (*FileKV, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./data"
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("localfile: create dir %q: %w", cfg.Dir, err)
	}
	return &FileKV{dir: cfg.Dir, quota: cfg.QuotaBytes}, nil
}

// path maps a key to a file name. Key separators become underscores so a
// namespaced key like "registry:document" stays a single flat file.
func (f *FileKV) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}

// AtomicGet implements db.KV. A missing file is (nil, nil), not an error.
func (f *FileKV) AtomicGet(_ context.Context, key string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bs, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("localfile: read %q: %w", key, err)
	}
	return bs, nil
}

// AtomicSet implements db.KV. The value is written to a temp file in the
// same directory and renamed over the target, so readers never observe a
// torn write. Returns the previous value, or nil if the key was absent.
func (f *FileKV) AtomicSet(_ context.Context, key string, value any) (any, error) {
	bs, err := db.EncodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("localfile: encode value for key %q: %w", key, err)
	}
	if f.quota > 0 && int64(len(bs)) > f.quota {
		return nil, fmt.Errorf("localfile: value for key %q is %d bytes (quota %d): %w",
			key, len(bs), f.quota, db.ErrQuotaExceeded)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(key)

	var prev any
	if old, err := os.ReadFile(target); err == nil {
		prev = old
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("localfile: read previous value for key %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, ".kv-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("localfile: temp file for key %q: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(bs); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("localfile: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("localfile: close temp for %q: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return nil, fmt.Errorf("localfile: replace %q: %w", key, err)
	}

	return prev, nil
}
