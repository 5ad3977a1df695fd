package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// Pebble is an Adapter backed by an embedded Pebble database. All writes
// are synced so a crashed process never loses an acknowledged write.
type Pebble struct {
	db   *pebble.DB
	path string
	log  *zap.Logger
}

// OpenPebble opens (or creates) a Pebble database at path.
func OpenPebble(path string, log *zap.Logger) (*Pebble, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("opening_pebble_db", zap.String("path", path))
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		log.Error("pebble_open_failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return &Pebble{db: db, path: path, log: log}, nil
}

// Get returns the raw value for key, or ErrNotFound.
func (p *Pebble) Get(key string) (string, error) {
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		p.log.Error("get_key_failed", zap.String("key", key), zap.Error(err))
		return "", err
	}
	if closer != nil {
		defer closer.Close()
	}
	return string(v), nil
}

// Set stores the raw value under key.
func (p *Pebble) Set(key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		p.log.Error("set_key_failed", zap.String("key", key), zap.Error(err))
		return err
	}
	p.log.Debug("set_key_ok", zap.String("key", key), zap.Int("len", len(value)))
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (p *Pebble) Delete(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		p.log.Error("delete_key_failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// ListKeys returns all keys starting with prefix, in lexicographic order.
// An empty prefix returns every key in the database.
func (p *Pebble) ListKeys(prefix string) ([]string, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte(prefix)
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if len(pfx) > 0 && !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		out = append(out, string(k))
	}
	return out, iter.Error()
}

// Close closes the underlying database. Safe to call once.
func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	p.log.Info("pebble_closed", zap.String("path", p.path))
	return err
}

// DiskUsage returns the best-effort on-disk size of the database directory
// in bytes. Used to feed the storage size gauge.
func (p *Pebble) DiskUsage() uint64 {
	var total uint64
	_ = filepath.WalkDir(p.path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		total += uint64(fi.Size())
		return nil
	})
	return total
}

var _ Adapter = (*Pebble)(nil)

// Path returns the directory backing this database.
func (p *Pebble) Path() string { return p.path }

func (p *Pebble) String() string { return fmt.Sprintf("pebble(%s)", p.path) }
