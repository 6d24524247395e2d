package claims

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/rewards-go/auth"
)

var bucketClaims = []byte("claims")

// BoltStore persists claims in bbolt: one nested bucket per recipient,
// keyed by claim ID. Claim IDs are UUIDv7, so key order is creation order.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the claim database at dbPath.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("claims: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("claims: open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketClaims)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("claims: create buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// AddClaims stores claims in one transaction.
func (s *BoltStore) AddClaims(claims []Claim) error {
	if len(claims) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketClaims)
		for _, c := range claims {
			rb, err := root.CreateBucketIfNotExists(c.Recipient[:])
			if err != nil {
				return fmt.Errorf("claims: create recipient bucket: %w", err)
			}
			data, err := encodeGob(c)
			if err != nil {
				return fmt.Errorf("claims: encode claim: %w", err)
			}
			if err := rb.Put(c.ID[:], data); err != nil {
				return fmt.Errorf("claims: put claim: %w", err)
			}
		}
		return nil
	})
}

// ClaimsFor returns the recipient's claims in key order.
func (s *BoltStore) ClaimsFor(recipient auth.Identity) ([]Claim, error) {
	var out []Claim
	err := s.db.View(func(tx *bbolt.Tx) error {
		rb := tx.Bucket(bucketClaims).Bucket(recipient[:])
		if rb == nil {
			return nil
		}
		return rb.ForEach(func(_, v []byte) error {
			var c Claim
			if err := decodeGob(v, &c); err != nil {
				return fmt.Errorf("decode claim: %w", err)
			}
			out = append(out, c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("claims: list recipient claims: %w", err)
	}
	return out, nil
}

// RemoveClaims deletes the listed claims; a missing ID aborts the transaction.
func (s *BoltStore) RemoveClaims(recipient auth.Identity, ids []uuid.UUID) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketClaims)
		rb := root.Bucket(recipient[:])
		if rb == nil {
			if len(ids) == 0 {
				return nil
			}
			return fmt.Errorf("%w: no claims for %s", ErrClaimNotFound, recipient)
		}
		for _, id := range ids {
			if rb.Get(id[:]) == nil {
				return fmt.Errorf("%w: %s", ErrClaimNotFound, id)
			}
			if err := rb.Delete(id[:]); err != nil {
				return fmt.Errorf("claims: delete claim: %w", err)
			}
		}
		if k, _ := rb.Cursor().First(); k == nil {
			if err := root.DeleteBucket(recipient[:]); err != nil {
				return fmt.Errorf("claims: delete recipient bucket: %w", err)
			}
		}
		return nil
	})
}

// ListClaims returns every stored claim.
func (s *BoltStore) ListClaims() ([]Claim, error) {
	var out []Claim
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketClaims)
		return root.ForEachBucket(func(k []byte) error {
			return root.Bucket(k).ForEach(func(_, v []byte) error {
				var c Claim
				if err := decodeGob(v, &c); err != nil {
					return fmt.Errorf("decode claim: %w", err)
				}
				out = append(out, c)
				return nil
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("claims: list claims: %w", err)
	}
	return out, nil
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
