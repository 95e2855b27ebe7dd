package main

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrInvalidBookID = errors.New("invalid book id")
)

// Book represents a book entity.
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// BookPayload is the body of a book creation or update request.
// A nil field means the client did not send that field.
type BookPayload struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
}

// Apply copies the supplied fields of the payload onto the book.
func (p BookPayload) Apply(book Book) Book {
	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.Description != nil {
		book.Description = *p.Description
	}
	return book
}

// BookStorage defines possible operations on book entity. Implementations
// assign the book ID on Add and return GetAll results in creation order.
type BookStorage interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, book Book) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Close() error
}

// StoreError reports a failure of the storage backend during an operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// storeErr wraps err into a *StoreError unless it is nil or
// the not found sentinel which callers handle on their own.
func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrBookNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
