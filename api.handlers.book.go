package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// GetAllBooks godoc
// @Summary      List books
// @Description  Lists every stored book in creation order.
// @Tags         books
// @Produce      json
// @Success      200  {array}   Book
// @Failure      500  {object}  APIError
// @Router       /books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		logger.Error("failed to get all books", zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, err.Error()); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	logger.Debug("success to get all books", zap.Int("books.total", len(books)))
	if err = WriteResponse(r.Context(), w, http.StatusOK, books); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// GetOneBook godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "Book ID"
// @Success      200  {object}  Book
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params, book Book) {
	if err := WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response", zap.String("book.id", book.ID), zap.Error(err))
	}
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Creates a book. Title, author and description are required non-empty strings.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        book  body      BookPayload  true  "Book to create"
// @Success      201   {object}  Book
// @Failure      400   {object}  APIError
// @Router       /books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	var payload BookPayload
	err := DecodeBookRequestBody(r, &payload)
	if err == nil {
		err = api.validator.Validate(payload, StrictMode)
	}
	if err != nil {
		logger.Info("invalid book creation request", zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, err.Error()); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	book, err := api.bookService.Create(r.Context(), payload)
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, err.Error()); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	logger.Info("success to create book", zap.String("book.id", book.ID))
	if err = WriteResponse(r.Context(), w, http.StatusCreated, book); err != nil {
		logger.Error("failed to send response", zap.String("book.id", book.ID), zap.Error(err))
	}
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Changes only the supplied fields. Supplied fields must be non-empty strings.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Book ID"
// @Param        book  body      BookPayload  true  "Fields to change"
// @Success      200   {object}  Book
// @Failure      400   {object}  APIError
// @Failure      404   {object}  APIError
// @Failure      500   {object}  APIError
// @Router       /books/{id} [patch]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params, book Book) {
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", book.ID))
	var patch BookPayload
	err := DecodeBookRequestBody(r, &patch)
	if err == nil {
		err = api.validator.Validate(patch, PartialMode)
	}
	if err != nil {
		logger.Info("invalid book update request", zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, err.Error()); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	updated, err := api.bookService.Update(r.Context(), book, patch)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book removed before update")
		if err = WriteErrorResponse(r.Context(), w, http.StatusNotFound, "Cannot find book"); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	if err != nil {
		logger.Error("failed to update book", zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, err.Error()); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	logger.Info("success to update book")
	if err = WriteResponse(r.Context(), w, http.StatusOK, updated); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Tags         books
// @Param        id   path  string  true  "Book ID"
// @Success      204
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params, book Book) {
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", book.ID))
	err := api.bookService.Delete(r.Context(), book.ID)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book removed before delete")
		if err = WriteErrorResponse(r.Context(), w, http.StatusNotFound, "Cannot find book"); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	if err != nil {
		logger.Error("failed to delete book", zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, err.Error()); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	logger.Info("success to delete book")
	w.WriteHeader(http.StatusNoContent)
}
