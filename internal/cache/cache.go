// Package cache persists transpile results on disk, keyed by a digest of
// the source content, the options fingerprint, and the engine version.
// Concurrent lookups for the same key share one computation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"hookc/internal/imports"
	"hookc/internal/pipeline"
	"hookc/internal/version"
)

// Increment when the payload format changes; mismatched entries read as
// misses.
const schemaVersion uint16 = 1

type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Key derives the cache key for one source unit under one option set.
func Key(src []byte, fingerprint string) Digest {
	h := sha256.New()
	h.Write([]byte(version.Version))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(src)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Fingerprint folds the result-affecting options into a stable string.
func Fingerprint(opts pipeline.Options) string {
	backend := "scanner"
	if opts.Backend != nil {
		backend = opts.Backend.Name()
	}
	return fmt.Sprintf("ts=%t;target=%s;format=%s;factory=%s;backend=%s",
		opts.TypeScript, opts.Target, opts.ModuleFormat, opts.Factory, backend)
}

// Store is a disk cache of transpile results. The zero value is unusable;
// a nil *Store is a valid no-op cache.
type Store struct {
	mu    sync.RWMutex
	dir   string
	group singleflight.Group
}

// Open initializes the cache at the standard per-user location.
func Open(app string) (*Store, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// OpenAt initializes the cache at an explicit directory.
func OpenAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) pathFor(key Digest) string {
	return filepath.Join(s.dir, "units", key.String()+".mp")
}

type payload struct {
	Schema           uint16
	EngineVersion    string
	Code             string
	HasJSX           bool
	HasDynamicImport bool
	Imports          []recordPayload
}

type recordPayload struct {
	Specifier    string
	HasSpecifier bool
	Kind         uint8
	Class        uint8
	TypeOnly     bool
	Dynamic      bool
	ArgText      string
	Bindings     []bindingPayload
}

type bindingPayload struct {
	Kind     uint8
	Imported string
	Local    string
}

// Put serializes a result under key, replacing any previous entry
// atomically.
func (s *Store) Put(key Digest, res *pipeline.Result) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(toPayload(res)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the result stored under key. A schema or engine-version
// mismatch is a miss, not an error.
func (s *Store) Get(key Digest) (*pipeline.Result, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var pl payload
	if err := msgpack.NewDecoder(f).Decode(&pl); err != nil {
		return nil, false, err
	}
	if pl.Schema != schemaVersion || pl.EngineVersion != version.Version {
		return nil, false, nil
	}
	return fromPayload(&pl), true, nil
}

// GetOrCompute returns the cached result for key, or runs compute exactly
// once per key across concurrent callers and stores its output.
func (s *Store) GetOrCompute(key Digest, compute func() (*pipeline.Result, error)) (*pipeline.Result, error) {
	if s == nil {
		return compute()
	}
	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		if res, ok, err := s.Get(key); err == nil && ok {
			return res, nil
		}
		res, err := compute()
		if err != nil {
			return nil, err
		}
		// A failed write only costs a later caller the recompute.
		_ = s.Put(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Result), nil
}

// DropAll clears the cache. The directory is renamed aside first so the
// clear is atomic with respect to concurrent readers.
func (s *Store) DropAll() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(s.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func toPayload(res *pipeline.Result) *payload {
	pl := &payload{
		Schema:           schemaVersion,
		EngineVersion:    version.Version,
		Code:             res.Code,
		HasJSX:           res.HasJSX,
		HasDynamicImport: res.HasDynamicImport,
	}
	pl.Imports = make([]recordPayload, len(res.Imports))
	for i, rec := range res.Imports {
		rp := recordPayload{
			Specifier:    rec.Specifier,
			HasSpecifier: rec.HasSpecifier,
			Kind:         uint8(rec.Kind),
			Class:        uint8(rec.Class),
			TypeOnly:     rec.TypeOnly,
			Dynamic:      rec.Dynamic,
			ArgText:      rec.ArgText,
		}
		rp.Bindings = make([]bindingPayload, len(rec.Bindings))
		for j, b := range rec.Bindings {
			rp.Bindings[j] = bindingPayload{Kind: uint8(b.Kind), Imported: b.Imported, Local: b.Local}
		}
		pl.Imports[i] = rp
	}
	return pl
}

func fromPayload(pl *payload) *pipeline.Result {
	res := &pipeline.Result{
		Code:             pl.Code,
		HasJSX:           pl.HasJSX,
		HasDynamicImport: pl.HasDynamicImport,
		Version:          pl.EngineVersion,
	}
	res.Imports = make([]imports.Record, len(pl.Imports))
	for i, rp := range pl.Imports {
		rec := imports.Record{
			Specifier:    rp.Specifier,
			HasSpecifier: rp.HasSpecifier,
			Kind:         imports.Kind(rp.Kind),
			Class:        imports.Class(rp.Class),
			TypeOnly:     rp.TypeOnly,
			Dynamic:      rp.Dynamic,
			ArgText:      rp.ArgText,
		}
		rec.Bindings = make([]imports.Binding, len(rp.Bindings))
		for j, bp := range rp.Bindings {
			rec.Bindings[j] = imports.Binding{Kind: imports.BindingKind(bp.Kind), Imported: bp.Imported, Local: bp.Local}
		}
		res.Imports[i] = rec
	}
	return res
}
