package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis keys holding the books documents, their creation
// order and the sequence used to score that order.
const (
	HBooks      string = "books"
	ZBooksOrder string = "books:order"
	KBooksSeq   string = "books:seq"
)

// updateIfExists replaces a hash field only when it already exists.
var updateIfExists = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	ids    UIDHandler
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, ids UIDHandler) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
		ids:    ids,
	}
}

// GetRedisClient provides a ready to use redis client built from
// the store connection string and the client tuning settings.
func GetRedisClient(ctx context.Context, config *Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.StoreURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %v", err)
	}
	opts.DialTimeout = config.Redis.DialTimeout
	opts.ReadTimeout = config.Redis.ReadTimeout
	opts.WriteTimeout = config.Redis.WriteTimeout
	opts.PoolSize = config.Redis.PoolSize
	opts.PoolTimeout = config.Redis.PoolTimeout
	client := redis.NewClient(opts)

	// test connection.
	if pong, err := client.Ping(ctx).Result(); pong != "PONG" || err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Close shuts down the redis client.
func (rs *redisBookStorage) Close() error {
	return rs.client.Close()
}

// Add assigns a new id to the book then inserts its record and its creation rank.
func (rs *redisBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	book.ID = rs.ids.Generate(BookIDPrefix)
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return Book{}, err
	}
	seq, err := rs.client.Incr(ctx, KBooksSeq).Result()
	if err != nil {
		return Book{}, err
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, HBooks, book.ID, bookBytes)
		pipe.ZAdd(ctx, ZBooksOrder, redis.Z{Score: float64(seq), Member: book.ID})
		return nil
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	if !rs.ids.IsValid(id, BookIDPrefix) {
		return book, fmt.Errorf("%w: %q", ErrInvalidBookID, id)
	}
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if errors.Is(err, redis.Nil) {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record and its creation rank based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	if !rs.ids.IsValid(id, BookIDPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidBookID, id)
	}
	var deleted *redis.IntCmd
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.HDel(ctx, HBooks, id)
		pipe.ZRem(ctx, ZBooksOrder, id)
		return nil
	})
	if err != nil {
		return err
	}
	if deleted.Val() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update replaces an existing book record data. It never inserts a book
// which does not exist anymore.
func (rs *redisBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	updated, err := updateIfExists.Run(ctx, rs.client, []string{HBooks}, id, bookBytes).Int()
	if err != nil {
		return book, err
	}
	if updated == 0 {
		return book, ErrBookNotFound
	}
	return book, nil
}

// GetAll retrieves all books stored in the redis database in their creation order.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	ids, err := rs.client.ZRange(ctx, ZBooksOrder, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	if len(ids) == 0 {
		return books, nil
	}
	values, err := rs.client.HMGet(ctx, HBooks, ids...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		bookJSONString, ok := value.(string)
		if !ok {
			// removed between both calls.
			rs.logger.Debug("redis: book listed without record", zap.String("book.id", ids[i]))
			continue
		}
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}
