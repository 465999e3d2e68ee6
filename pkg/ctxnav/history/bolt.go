package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketNavLog = "navlog"

// BoltStore is a Store backed by a bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the database at file.
func OpenBoltStore(file string) (*BoltStore, error) {
	db, err := bolt.Open(file, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", file, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketNavLog))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: initialize %s: %w", file, err)
	}
	return &BoltStore{db: db}, nil
}

// Append adds an entry under the next sequence number of the bucket.
func (s *BoltStore) Append(entry Entry) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		seq, err = put(tx.Bucket([]byte(bucketNavLog)), entry)
		return err
	})
	return int(seq), err
}

// Replace empties the bucket and stores entries in order.
func (s *BoltStore) Replace(entries []Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketNavLog))
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.First() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		for _, entry := range entries {
			if _, err := put(b, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// Entries returns all entries in sequence order.
func (s *BoltStore) Entries() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketNavLog)).ForEach(func(_, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func put(b *bolt.Bucket, entry Entry) (uint64, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	v, err := json.Marshal(entry)
	if err != nil {
		return 0, err
	}
	return seq, b.Put(marshalSeq(seq), v)
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
