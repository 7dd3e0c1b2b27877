package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var lettersBkt = []byte("letters")

// BoltStore keeps letter documents as JSON values in a bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates or opens the database file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(lettersBkt)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating letters bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func getLettersBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	bkt := tx.Bucket(lettersBkt)
	if bkt == nil {
		return nil, fmt.Errorf("letters bucket not found in DB")
	}
	return bkt, nil
}

func (s *BoltStore) Get(_ context.Context, letter string) (*LetterRecord, error) {
	rec := &LetterRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt, err := getLettersBucket(tx)
		if err != nil {
			return err
		}
		data := bkt.Get([]byte(letter))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrLetterNotFound, letter)
		}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BoltStore) Put(_ context.Context, rec *LetterRecord) error {
	if err := checkLetter(rec.Letter); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling letter %s: %w", rec.Letter, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := getLettersBucket(tx)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(rec.Letter), data)
	})
}

func (s *BoltStore) List(_ context.Context) ([]*LetterRecord, error) {
	var list []*LetterRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt, err := getLettersBucket(tx)
		if err != nil {
			return err
		}
		return bkt.ForEach(func(_, v []byte) error {
			rec := &LetterRecord{}
			if err := json.Unmarshal(v, rec); err != nil {
				return err
			}
			list = append(list, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
