package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

const (
	DefaultBoltBucket  = "books"
	DefaultBoltTimeout = time.Second
)

// BoltDBConfig holds the settings extracted from a bolt connection string
// like `bolt:///var/lib/books/books.db?bucket=books&timeout=2s`.
type BoltDBConfig struct {
	FilePath   string
	Timeout    time.Duration
	BucketName string
}

// orderBucket names the bucket indexing books ids by their creation sequence.
func (c *BoltDBConfig) orderBucket() []byte {
	return []byte(c.BucketName + ".order")
}

// boltRecord is the stored document. The sequence keeps the
// position of the book inside the order bucket.
type boltRecord struct {
	Seq uint64 `json:"seq"`
	Book
}

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
	ids    UIDHandler
}

// ParseBoltURI extracts the database file path and options from a bolt connection string.
func ParseBoltURI(uri string) (*BoltDBConfig, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "bolt" {
		return nil, fmt.Errorf("unexpected scheme %q", u.Scheme)
	}
	path := u.Host + u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	if path == "" {
		return nil, errors.New("missing database file path")
	}

	cfg := &BoltDBConfig{FilePath: path, Timeout: DefaultBoltTimeout, BucketName: DefaultBoltBucket}
	q := u.Query()
	if b := q.Get("bucket"); b != "" {
		cfg.BucketName = b
	}
	if t := q.Get("timeout"); t != "" {
		if cfg.Timeout, err = time.ParseDuration(t); err != nil {
			return nil, fmt.Errorf("invalid timeout: %v", err)
		}
	}
	return cfg, nil
}

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
func GetBoltDBClient(config *BoltDBConfig) (*bolt.DB, error) {
	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{[]byte(config.BucketName), config.orderBucket()} {
			if _, errB := tx.CreateBucketIfNotExists(name); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB, ids UIDHandler) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
		ids:    ids,
	}
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Add assigns a new id to the book then inserts its record and its creation rank.
func (bs *boltBookStorage) Add(_ context.Context, book Book) (Book, error) {
	book.ID = bs.ids.Generate(BookIDPrefix)
	err := bs.client.Update(func(tx *bolt.Tx) error {
		books := tx.Bucket([]byte(bs.config.BucketName))
		seq, err := books.NextSequence()
		if err != nil {
			return err
		}
		recordBytes, err := json.Marshal(boltRecord{Seq: seq, Book: book})
		if err != nil {
			return err
		}
		if err = books.Put([]byte(book.ID), recordBytes); err != nil {
			return err
		}
		return tx.Bucket(bs.config.orderBucket()).Put(seqKey(seq), []byte(book.ID))
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

func (bs *boltBookStorage) getRecord(tx *bolt.Tx, id string) (boltRecord, error) {
	var record boltRecord
	result := tx.Bucket([]byte(bs.config.BucketName)).Get([]byte(id))
	if result == nil {
		return record, ErrBookNotFound
	}
	err := json.Unmarshal(result, &record)
	return record, err
}

// GetOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) GetOne(_ context.Context, id string) (Book, error) {
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return Book{}, fmt.Errorf("%w: %q", ErrInvalidBookID, id)
	}
	var record boltRecord
	err := bs.client.View(func(tx *bolt.Tx) error {
		var err error
		record, err = bs.getRecord(tx, id)
		return err
	})
	if err != nil {
		return Book{}, err
	}
	return record.Book, nil
}

// Delete removes a book record and its creation rank based on its ID.
func (bs *boltBookStorage) Delete(_ context.Context, id string) error {
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidBookID, id)
	}
	return bs.client.Update(func(tx *bolt.Tx) error {
		record, err := bs.getRecord(tx, id)
		if err != nil {
			return err
		}
		if err = tx.Bucket(bs.config.orderBucket()).Delete(seqKey(record.Seq)); err != nil {
			return err
		}
		return tx.Bucket([]byte(bs.config.BucketName)).Delete([]byte(id))
	})
}

// Update replaces an existing book record data and keeps its creation rank.
func (bs *boltBookStorage) Update(_ context.Context, id string, book Book) (Book, error) {
	book.ID = id
	err := bs.client.Update(func(tx *bolt.Tx) error {
		record, err := bs.getRecord(tx, id)
		if err != nil {
			return err
		}
		record.Book = book
		recordBytes, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bs.config.BucketName)).Put([]byte(id), recordBytes)
	})
	return book, err
}

// GetAll retrieves all books stored in the bolt database in their creation order.
func (bs *boltBookStorage) GetAll(_ context.Context) ([]Book, error) {
	books := []Book{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bs.config.orderBucket()).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			record, err := bs.getRecord(tx, string(v))
			if errors.Is(err, ErrBookNotFound) {
				bs.logger.Warn("boltdb: book ranked without record", zap.String("book.id", string(v)))
				continue
			}
			if err != nil {
				return err
			}
			books = append(books, record.Book)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}
