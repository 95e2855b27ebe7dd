package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doRequest sends a request to the handler and returns the recorded response.
func doRequest(t *testing.T, h http.Handler, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	res := w.Result()
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeBody(t *testing.T, res *http.Response, v interface{}) {
	t.Helper()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

func assertErrorMessage(t *testing.T, res *http.Response, status int, message string) {
	t.Helper()
	assert.Equal(t, status, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	var apiErr APIError
	decodeBody(t, res, &apiErr)
	assert.Equal(t, message, apiErr.Message)
}

// TestBooksLifecycle runs the full create, read, update and delete flow against a bolt store.
//
//nolint:funlen
func TestBooksLifecycle(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(newTestBoltStore(t)))

	var created Book
	t.Run("create then get returns same fields", func(t *testing.T) {
		res := doRequest(t, router, http.MethodPost, "/books",
			`{"title":"Test book title","author":"Jerome Amon","description":"Test book description"}`)
		require.Equal(t, http.StatusCreated, res.StatusCode)
		decodeBody(t, res, &created)
		assert.True(t, strings.HasPrefix(created.ID, BookIDPrefix+":"))
		assert.Equal(t, "Test book title", created.Title)
		assert.Equal(t, "Jerome Amon", created.Author)
		assert.Equal(t, "Test book description", created.Description)

		res = doRequest(t, router, http.MethodGet, "/books/"+created.ID, "")
		require.Equal(t, http.StatusOK, res.StatusCode)
		var got Book
		decodeBody(t, res, &got)
		assert.Equal(t, created, got)
	})

	t.Run("patch title only keeps other fields", func(t *testing.T) {
		res := doRequest(t, router, http.MethodPatch, "/books/"+created.ID, `{"title":"New Title"}`)
		require.Equal(t, http.StatusOK, res.StatusCode)
		var updated Book
		decodeBody(t, res, &updated)
		expected := created
		expected.Title = "New Title"
		assert.Equal(t, expected, updated)

		res = doRequest(t, router, http.MethodGet, "/books/"+created.ID, "")
		require.Equal(t, http.StatusOK, res.StatusCode)
		var got Book
		decodeBody(t, res, &got)
		assert.Equal(t, expected, got)
	})

	t.Run("patch with empty title fails", func(t *testing.T) {
		res := doRequest(t, router, http.MethodPatch, "/books/"+created.ID, `{"title":""}`)
		assertErrorMessage(t, res, http.StatusBadRequest, `"title" is not allowed to be empty`)
	})

	t.Run("delete then get returns not found", func(t *testing.T) {
		res := doRequest(t, router, http.MethodDelete, "/books/"+created.ID, "")
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Empty(t, data)

		res = doRequest(t, router, http.MethodGet, "/books/"+created.ID, "")
		assertErrorMessage(t, res, http.StatusNotFound, "Cannot find book")

		res = doRequest(t, router, http.MethodDelete, "/books/"+created.ID, "")
		assertErrorMessage(t, res, http.StatusNotFound, "Cannot find book")
	})

	t.Run("get unknown but well formed id", func(t *testing.T) {
		res := doRequest(t, router, http.MethodGet, "/books/b:cb8f2136-fae4-4200-85d9-3533c7f8c70d", "")
		assertErrorMessage(t, res, http.StatusNotFound, "Cannot find book")
	})

	t.Run("get malformed id", func(t *testing.T) {
		res := doRequest(t, router, http.MethodGet, "/books/not-an-id", "")
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		var apiErr APIError
		decodeBody(t, res, &apiErr)
		assert.Contains(t, apiErr.Message, ErrInvalidBookID.Error())
	})
}

// TestGetAllBooks_CreationOrder ensures books are listed in their creation order.
func TestGetAllBooks_CreationOrder(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(newTestBoltStore(t)))

	res := doRequest(t, router, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	for _, payload := range []string{
		`{"title":"Book 1","author":"Author 1","description":"Description 1"}`,
		`{"title":"Book 2","author":"Author 2","description":"Description 2"}`,
	} {
		res = doRequest(t, router, http.MethodPost, "/books", payload)
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}

	res = doRequest(t, router, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var books []Book
	decodeBody(t, res, &books)
	require.Len(t, books, 2)
	assert.Equal(t, "Book 1", books[0].Title)
	assert.Equal(t, "Author 1", books[0].Author)
	assert.Equal(t, "Description 1", books[0].Description)
	assert.Equal(t, "Book 2", books[1].Title)
}

// TestCreateBookHandler_InvalidPayloads ensures invalid creation requests are rejected before reaching the store.
func TestCreateBookHandler_InvalidPayloads(t *testing.T) {
	mockRepo := &MockBookStorage{
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			t.Fatal("storage must not be called")
			return Book{}, nil
		},
	}
	router := newTestRouter(newTestAPIHandler(mockRepo))

	testCases := []struct {
		name    string
		payload string
		message string
	}{
		{"missing title", `{"author":"a","description":"d"}`, `"title" is required`},
		{"missing author", `{"title":"t","description":"d"}`, `"author" is required`},
		{"missing description", `{"title":"t","author":"a"}`, `"description" is required`},
		{"empty title", `{"title":"","author":"a","description":"d"}`, `"title" is not allowed to be empty`},
		{"empty description", `{"title":"t","author":"a","description":""}`, `"description" is not allowed to be empty`},
		{"first failing field reported", `{"author":""}`, `"title" is required`},
		{"empty object", `{}`, `"title" is required`},
		{"empty body", ``, `"title" is required`},
		{"non string title", `{"title":12,"author":"a","description":"d"}`, `"title" must be a string`},
		{"unknown field", `{"title":"t","author":"a","description":"d","price":"10$"}`, `"price" is not allowed`},
		{"array body", `[]`, "request body must be an object"},
		{"null body", `null`, "request body must be an object"},
		{"null title", `{"title":null,"author":"a","description":"d"}`, `"title" must be a string`},
		{"trailing object", `{"title":"t","author":"a","description":"d"}{"junk":1}`, "request body must contain a single JSON object"},
		{"trailing garbage", `{"title":"t","author":"a","description":"d"} x`, "request body must contain a single JSON object"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := doRequest(t, router, http.MethodPost, "/books", tc.payload)
			assertErrorMessage(t, res, http.StatusBadRequest, tc.message)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		res := doRequest(t, router, http.MethodPost, "/books", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

// TestCreateBookHandler_StoreFailure ensures a persistence failure on creation answers 400 with the error text.
func TestCreateBookHandler_StoreFailure(t *testing.T) {
	mockRepo := &MockBookStorage{
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			return Book{}, errors.New("write rejected")
		},
	}
	api := newTestAPIHandler(mockRepo)
	req := httptest.NewRequest(http.MethodPost, "/books",
		bytes.NewBufferString(`{"title":"t","author":"a","description":"d"}`))
	w := httptest.NewRecorder()
	api.CreateBook(w, req, nil)
	res := w.Result()
	defer res.Body.Close()
	assertErrorMessage(t, res, http.StatusBadRequest, "create book: write rejected")
}

// TestGetAllBooksHandler_StoreFailure ensures listing answers 500 when the store is unreachable.
func TestGetAllBooksHandler_StoreFailure(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := newTestRouter(newTestAPIHandler(mockRepo))
	res := doRequest(t, router, http.MethodGet, "/books", "")
	assertErrorMessage(t, res, http.StatusInternalServerError, "list books: connection refused")
}

// TestUpdateBookHandler ensures the update failure paths after the book was loaded.
func TestUpdateBookHandler(t *testing.T) {
	loaded := Book{ID: "b:0", Title: "t", Author: "a", Description: "d"}
	getOne := func(ctx context.Context, id string) (Book, error) { return loaded, nil }

	t.Run("vanished book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				return Book{}, ErrBookNotFound
			},
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodPatch, "/books/b:0", `{"author":"b"}`)
		assertErrorMessage(t, res, http.StatusNotFound, "Cannot find book")
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				return Book{}, errors.New("write rejected")
			},
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodPatch, "/books/b:0", `{"author":"b"}`)
		assertErrorMessage(t, res, http.StatusBadRequest, "update book: write rejected")
	})

	t.Run("only supplied fields reach the store", func(t *testing.T) {
		var saved Book
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				saved = book
				return book, nil
			},
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodPatch, "/books/b:0", `{"description":"new"}`)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, Book{ID: "b:0", Title: "t", Author: "a", Description: "new"}, saved)
	})

	t.Run("null field is rejected", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				t.Fatal("storage must not be called")
				return book, nil
			},
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodPatch, "/books/b:0", `{"title":null}`)
		assertErrorMessage(t, res, http.StatusBadRequest, `"title" must be a string`)
	})

	t.Run("trailing data is rejected", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				t.Fatal("storage must not be called")
				return book, nil
			},
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodPatch, "/books/b:0", `{"author":"b"}{"author":"c"}`)
		assertErrorMessage(t, res, http.StatusBadRequest, "request body must contain a single JSON object")
	})

	t.Run("empty patch keeps the book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				return book, nil
			},
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodPatch, "/books/b:0", `{}`)
		require.Equal(t, http.StatusOK, res.StatusCode)
		var got Book
		decodeBody(t, res, &got)
		assert.Equal(t, loaded, got)
	})
}

// TestDeleteOneBookHandler ensures the delete failure paths after the book was loaded.
func TestDeleteOneBookHandler(t *testing.T) {
	getOne := func(ctx context.Context, id string) (Book, error) { return Book{ID: id}, nil }

	t.Run("vanished book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			DeleteFunc: func(ctx context.Context, id string) error { return ErrBookNotFound },
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodDelete, "/books/b:0", "")
		assertErrorMessage(t, res, http.StatusNotFound, "Cannot find book")
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: getOne,
			DeleteFunc: func(ctx context.Context, id string) error { return errors.New("connection refused") },
		}
		router := newTestRouter(newTestAPIHandler(mockRepo))
		res := doRequest(t, router, http.MethodDelete, "/books/b:0", "")
		assertErrorMessage(t, res, http.StatusInternalServerError, "delete book: connection refused")
	})
}
