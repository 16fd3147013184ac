package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"secure-drive/internal/content"
	apperrors "secure-drive/pkg/errors"

	"go.etcd.io/bbolt"
)

var bucketBlobs = []byte("blobs")

// Stored values carry a one-byte format tag so empty blobs are
// distinguishable from missing keys.
const blobFormatV1 byte = 1

const openTimeout = time.Second

// Store keeps blobs in a local bbolt file, keyed by their computed CID.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at dbPath, creating parent directories.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("blobstore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("blobstore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlobs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blobstore: create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Add(ctx context.Context, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := content.ComputeID(data)
	if err != nil {
		return "", err
	}

	value := make([]byte, 0, len(data)+1)
	value = append(value, blobFormatV1)
	value = append(value, data...)

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketBlobs)
		if b.Get([]byte(id)) != nil {
			return nil
		}
		return b.Put([]byte(id), value)
	})
	if err != nil {
		return "", fmt.Errorf("blobstore: put %s: %w", id, err)
	}
	return id, nil
}

func (s *Store) Cat(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("blobstore: %s: %w", id, apperrors.ErrNotFound)
		}
		if len(v) == 0 || v[0] != blobFormatV1 {
			return fmt.Errorf("blobstore: %s: unknown blob format", id)
		}
		// v is only valid inside the transaction
		out = append([]byte{}, v[1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketBlobs) == nil {
			return fmt.Errorf("blobstore: bucket %q missing", bucketBlobs)
		}
		return nil
	})
}
