package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
	"go.etcd.io/bbolt"

	eventful "github.com/eventful-app/eventful-go"
	"github.com/eventful-app/eventful-go/telemetry"
)

const (
	// compressionThreshold is the minimum payload size before compression is
	// considered. zstd overhead is not worth it below this.
	compressionThreshold = 2048

	// maxDecompressedSize is the hard cap during decompression.
	maxDecompressedSize = 10 * 1024 * 1024 // 10MB
)

var bucketEntries = []byte("entries")

// snapshotEnvelope wraps one persisted cache entry. Digest is the BLAKE3 hex
// of the uncompressed payload and doubles as the unchanged-write check.
type snapshotEnvelope struct {
	Digest     string    `json:"digest"`
	Compressed bool      `json:"compressed,omitempty"`
	SavedAt    time.Time `json:"savedAt"`
	Payload    []byte    `json:"payload"`
}

// DecodeFunc rebuilds a typed cache value from its JSON payload.
type DecodeFunc func(data []byte) (any, error)

// JSONDecoder returns a DecodeFunc that unmarshals into T.
func JSONDecoder[T any]() DecodeFunc {
	return func(data []byte) (any, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Snapshot persists cache entries to disk so a restarted client can render
// from the last known state before refetching. Values are stored as
// zstd-compressed JSON in bbolt; restored entries come back stale.
type Snapshot struct {
	db      *bbolt.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *slog.Logger
	now     func() time.Time
}

// SnapshotOption configures a Snapshot.
type SnapshotOption func(*Snapshot)

// WithSnapshotLogger sets the logger for snapshot activity.
func WithSnapshotLogger(logger *slog.Logger) SnapshotOption {
	return func(s *Snapshot) {
		s.logger = logger
	}
}

// WithSnapshotNow sets the time function for testing.
func WithSnapshotNow(now func() time.Time) SnapshotOption {
	return func(s *Snapshot) {
		s.now = now
	}
}

// OpenSnapshot opens (creating if needed) the snapshot store at path.
func OpenSnapshot(path string, opts ...SnapshotOption) (*Snapshot, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating snapshot bucket: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	s := &Snapshot{
		db:      db,
		encoder: enc,
		decoder: dec,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database and codec resources.
func (s *Snapshot) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

// Capture persists every current cache entry. Entries whose payload digest
// matches what is already stored are skipped, so repeated captures of an
// unchanged cache cost no writes.
func (s *Snapshot) Capture(ctx context.Context, c *Cache) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)

		for _, key := range c.Keys() {
			entry, ok := c.Get(key)
			if !ok {
				continue
			}

			payload, err := json.Marshal(entry.Value)
			if err != nil {
				s.logger.Warn("snapshot skipping unmarshalable entry", "key", key.String(), "error", err)
				continue
			}

			digest := computeDigest(payload)

			if prev := bucket.Get([]byte(key.String())); prev != nil {
				var prevEnv snapshotEnvelope
				if err := json.Unmarshal(prev, &prevEnv); err == nil && prevEnv.Digest == digest {
					telemetry.RecordSnapshotWrite(ctx, false)
					continue
				}
			}

			env := snapshotEnvelope{
				Digest:  digest,
				SavedAt: s.now(),
				Payload: payload,
			}
			if len(payload) >= compressionThreshold {
				compressed := s.encoder.EncodeAll(payload, nil)
				if len(compressed) < len(payload) {
					env.Compressed = true
					env.Payload = compressed
				}
			}

			raw, err := json.Marshal(env)
			if err != nil {
				return fmt.Errorf("marshaling snapshot envelope: %w", err)
			}
			if err := bucket.Put([]byte(key.String()), raw); err != nil {
				return fmt.Errorf("writing snapshot entry %s: %w", key, err)
			}
			telemetry.RecordSnapshotWrite(ctx, true)
		}
		return nil
	})
}

// Restore loads persisted entries into the cache as stale, decoding payloads
// through the per-kind decoder registry. Entries whose kind has no decoder,
// or whose payload fails verification, are skipped. Returns the number of
// entries restored.
func (s *Snapshot) Restore(ctx context.Context, c *Cache, decoders map[string]DecodeFunc) (int, error) {
	restored := 0

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)

		return bucket.ForEach(func(k, v []byte) error {
			key, ok := parseKey(string(k))
			if !ok {
				return nil
			}

			decode, ok := decoders[key.Kind]
			if !ok {
				return nil
			}

			var env snapshotEnvelope
			if err := json.Unmarshal(v, &env); err != nil {
				s.logger.Warn("snapshot dropping corrupt envelope", "key", key.String(), "error", err)
				return nil
			}

			payload := env.Payload
			if env.Compressed {
				decompressed, err := s.decoder.DecodeAll(payload, nil)
				if err != nil {
					s.logger.Warn("snapshot dropping undecodable entry", "key", key.String(), "error", err)
					return nil
				}
				if len(decompressed) > maxDecompressedSize {
					s.logger.Warn("snapshot dropping oversized entry", "key", key.String())
					return nil
				}
				payload = decompressed
			}

			if computeDigest(payload) != env.Digest {
				s.logger.Warn("snapshot dropping entry with digest mismatch", "key", key.String())
				return nil
			}

			value, err := decode(payload)
			if err != nil {
				s.logger.Warn("snapshot dropping unparsable entry", "key", key.String(), "error", err)
				return nil
			}

			c.SetStale(key, value)
			restored++
			return nil
		})
	})
	if err != nil {
		return restored, fmt.Errorf("restoring snapshot: %w", err)
	}

	telemetry.RecordSnapshotRestore(ctx, restored)
	return restored, nil
}

// Prune drops persisted entries whose key no longer exists in the cache.
func (s *Snapshot) Prune(c *Cache) error {
	live := make(map[string]bool)
	for _, key := range c.Keys() {
		live[key.String()] = true
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)

		var dead [][]byte
		err := bucket.ForEach(func(k, _ []byte) error {
			if !live[string(k)] {
				dead = append(dead, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range dead {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// computeDigest returns the BLAKE3 hex digest of data.
func computeDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// parseKey is the inverse of Key.String.
func parseKey(s string) (Key, bool) {
	if s == "" {
		return Key{}, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			if i == 0 || i == len(s)-1 {
				return Key{}, false
			}
			return Key{Kind: s[:i], Ref: eventful.ID(s[i+1:])}, true
		}
	}
	return Key{Kind: s}, true
}
