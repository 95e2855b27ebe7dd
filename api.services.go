package main

import (
	"context"

	"go.uber.org/zap"
)

// BookServiceProvider is the facade used by the api handlers to reach the books.
type BookServiceProvider interface {
	Create(ctx context.Context, payload BookPayload) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, book Book, patch BookPayload) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

type BookService struct {
	logger  *zap.Logger
	storage BookStorage
}

func NewBookService(logger *zap.Logger, storage BookStorage) BookServiceProvider {
	return &BookService{
		logger:  logger,
		storage: storage,
	}
}

// Create persists a new book made of the payload fields.
func (bs *BookService) Create(ctx context.Context, payload BookPayload) (Book, error) {
	book, err := bs.storage.Add(ctx, payload.Apply(Book{}))
	if err != nil {
		return Book{}, storeErr("create book", err)
	}
	return book, nil
}

// GetOne returns ErrBookNotFound when no book has the given id.
func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	return book, storeErr("get book", err)
}

func (bs *BookService) Delete(ctx context.Context, id string) error {
	return storeErr("delete book", bs.storage.Delete(ctx, id))
}

// Update changes only the fields supplied by the patch on the loaded book then saves it.
func (bs *BookService) Update(ctx context.Context, book Book, patch BookPayload) (Book, error) {
	updated, err := bs.storage.Update(ctx, book.ID, patch.Apply(book))
	if err != nil {
		return Book{}, storeErr("update book", err)
	}
	bs.logger.Debug("service: book updated", zap.String("book.id", book.ID))
	return updated, nil
}

// GetAll lists every book in creation order.
func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return nil, storeErr("list books", err)
	}
	return books, nil
}
