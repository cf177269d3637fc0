// Package store caches compiled KBJ artifacts in SQLite, keyed by a
// BLAKE3 digest of the assembler source and the header version.
package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/tliron/commonlog"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("kbj.store")
}

// Digest identifies one compiled artifact.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex digits.
func (d Digest) Short() string {
	return d.String()[:12]
}

// sourceDomainKey separates source digests from any other BLAKE3 use of
// the same bytes.
var sourceDomainKey = [32]byte{
	'n', 'o', 'd', 'e', 'c', 'o', '.', 'k', 'b', 'j', '.', 's', 'o', 'u', 'r', 'c', 'e',
}

// SourceDigest returns the key under which the compilation of source with
// header version is stored.
func SourceDigest(source []byte, version uint8) Digest {
	hasher, err := blake3.NewKeyed(sourceDomainKey[:])
	if err != nil {
		panic("store: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte{version})
	hasher.Write(source)
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// ErrCorrupt reports a stored artifact that failed to decompress.
var ErrCorrupt = errors.New("corrupt artifact")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// Store is a SQLite-backed artifact cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the store at path, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		digest TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		size INTEGER NOT NULL,
		data BLOB NOT NULL,
		created INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file the store was opened on.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the compiled bytes stored for source at version. ok is
// false when nothing is stored.
func (s *Store) Get(source []byte, version uint8) (compiled []byte, ok bool, err error) {
	d := SourceDigest(source, version)

	var size int
	var data []byte
	err = s.db.QueryRow("SELECT size, data FROM artifacts WHERE digest = ?", d.String()).Scan(&size, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying artifact %s: %w", d.Short(), err)
	}

	compiled, err = zstdDecoder.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return nil, false, fmt.Errorf("%w %s: %w", ErrCorrupt, d.Short(), err)
	}
	if len(compiled) != size {
		return nil, false, fmt.Errorf("%w %s: size %d, recorded %d", ErrCorrupt, d.Short(), len(compiled), size)
	}
	logger().Debugf("cache hit %s (%d bytes)", d.Short(), size)
	return compiled, true, nil
}

// Put stores compiled as the artifact for source at version, replacing
// any previous entry.
func (s *Store) Put(source []byte, version uint8, compiled []byte) (Digest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := SourceDigest(source, version)
	data := zstdEncoder.EncodeAll(compiled, nil)

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO artifacts (digest, version, size, data, created) VALUES (?, ?, ?, ?, ?)",
		d.String(), int(version), len(compiled), data, time.Now().Unix(),
	)
	if err != nil {
		return d, fmt.Errorf("saving artifact %s: %w", d.Short(), err)
	}
	logger().Debugf("cached %s (%d bytes, %d stored)", d.Short(), len(compiled), len(data))
	return d, nil
}

// Count returns the number of stored artifacts.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM artifacts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting artifacts: %w", err)
	}
	return n, nil
}

// Purge removes every stored artifact.
func (s *Store) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM artifacts"); err != nil {
		return fmt.Errorf("purging artifacts: %w", err)
	}
	return nil
}
