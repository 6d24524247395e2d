package escrow

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"
)

var (
	bucketBalances  = []byte("balances")
	bucketMovements = []byte("movements")
)

// BoltStore persists escrow state in a bbolt database. bbolt holds an
// exclusive file lock, so one process owns the escrow at a time.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("escrow: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("escrow: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBalances, bucketMovements} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("escrow: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// LoadBalance returns the stored amount, or zero if none was stored.
func (s *BoltStore) LoadBalance(assetID string) (decimal.Decimal, error) {
	amount := decimal.Zero
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketBalances).Get([]byte(assetID))
		if raw == nil {
			return nil
		}
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCorruptBalance, assetID, err)
		}
		amount = d
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// Commit writes the amount and appends movements in one bbolt transaction.
func (s *BoltStore) Commit(assetID string, amount decimal.Decimal, movements []Movement) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketBalances).Put([]byte(assetID), []byte(amount.String())); err != nil {
			return fmt.Errorf("escrow: put balance: %w", err)
		}
		if len(movements) == 0 {
			return nil
		}
		journal, err := tx.Bucket(bucketMovements).CreateBucketIfNotExists([]byte(assetID))
		if err != nil {
			return fmt.Errorf("escrow: create journal bucket: %w", err)
		}
		for _, m := range movements {
			seq, err := journal.NextSequence()
			if err != nil {
				return fmt.Errorf("escrow: next sequence: %w", err)
			}
			m.Seq = seq
			data, err := encodeGob(m)
			if err != nil {
				return fmt.Errorf("escrow: encode movement: %w", err)
			}
			if err := journal.Put(seqKey(seq), data); err != nil {
				return fmt.Errorf("escrow: put movement: %w", err)
			}
		}
		return nil
	})
}

// Movements returns the journal in sequence order.
func (s *BoltStore) Movements(assetID string) ([]Movement, error) {
	var out []Movement
	err := s.db.View(func(tx *bbolt.Tx) error {
		journal := tx.Bucket(bucketMovements).Bucket([]byte(assetID))
		if journal == nil {
			return nil
		}
		return journal.ForEach(func(_, v []byte) error {
			var m Movement
			if err := decodeGob(v, &m); err != nil {
				return fmt.Errorf("decode movement: %w", err)
			}
			out = append(out, m)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("escrow: list movements: %w", err)
	}
	return out, nil
}

// seqKey encodes a sequence number as an 8-byte big-endian key for sorted storage.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
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
