package toolrun

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// Bump when CachedReport changes shape.
const cacheSchemaVersion uint16 = 1

// Digest is a BLAKE3-256 content hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// DiskCache stores finished reports keyed by everything that went into them.
// Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedSection mirrors SectionOutcome on disk.
type CachedSection struct {
	Title      string
	Errors     int
	Warnings   int
	HasSummary bool
	ExitCode   int
}

// CachedReport is the msgpack payload of one cache entry.
type CachedReport struct {
	Schema   uint16
	Job      string
	Sections []CachedSection
	Report   []byte
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "reports", key.String()+".mp")
}

// Put writes payload under key. The file is replaced atomically.
func (c *DiskCache) Put(key Digest, payload *CachedReport) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	payload.Schema = cacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the payload for key. A missing entry or one written by an older
// schema is a miss, not an error.
func (c *DiskCache) Get(key Digest) (*CachedReport, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out CachedReport
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, err
	}
	if out.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(c.dir, "reports")); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	return nil
}

// Key hashes a job's tools, titles, header and input contents.
func Key(job Job) (Digest, error) {
	h := blake3.New()
	write := func(s string) {
		_, _ = io.WriteString(h, s)
		_, _ = h.Write([]byte{0})
	}
	write(job.Name)
	write(job.Report)
	if job.Header != nil {
		write(job.Header.Title)
		for _, f := range job.Header.Fields {
			write(f.Key)
			write(f.Value)
		}
	}
	for _, s := range job.Sections {
		write(s.Title)
		if s.Tool == nil {
			return Digest{}, errors.New("section without tool")
		}
		write(s.Tool.Describe())
	}
	for _, in := range job.Inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return Digest{}, fmt.Errorf("hash input %s: %w", in, err)
		}
		write(in)
		_, _ = h.Write(data)
		_, _ = h.Write([]byte{0})
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

func (b *Batch) restore(job Job, key Digest, log *zap.Logger) (Outcome, bool) {
	payload, ok, err := b.Cache.Get(key)
	if err != nil {
		log.Debug("cache read failed", zap.Error(err))
		return Outcome{}, false
	}
	if !ok {
		return Outcome{}, false
	}
	out, closeOut, err := b.openReport(job)
	if err != nil {
		log.Debug("cache restore failed", zap.Error(err))
		return Outcome{}, false
	}
	_, werr := out.Write(payload.Report)
	cerr := closeOut()
	if werr != nil || cerr != nil {
		log.Debug("cache restore failed", zap.Error(errors.Join(werr, cerr)))
		return Outcome{}, false
	}
	outcome := Outcome{Job: job.Name, Cached: true}
	for _, s := range payload.Sections {
		outcome.Sections = append(outcome.Sections, SectionOutcome{
			Title:      s.Title,
			Summary:    Summary{Errors: s.Errors, Warnings: s.Warnings},
			HasSummary: s.HasSummary,
			ExitCode:   s.ExitCode,
		})
	}
	log.Info("report restored from cache", zap.String("key", key.String()[:12]))
	return outcome, true
}

func (b *Batch) store(key Digest, outcome Outcome, report []byte, log *zap.Logger) {
	if key.IsZero() {
		return
	}
	payload := &CachedReport{Job: outcome.Job, Report: report}
	for _, s := range outcome.Sections {
		payload.Sections = append(payload.Sections, CachedSection{
			Title:      s.Title,
			Errors:     s.Summary.Errors,
			Warnings:   s.Summary.Warnings,
			HasSummary: s.HasSummary,
			ExitCode:   s.ExitCode,
		})
	}
	if err := b.Cache.Put(key, payload); err != nil {
		log.Debug("cache write failed", zap.Error(err))
	}
}
