package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// BookHandle is a handler which works on a book already loaded from the store.
type BookHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, book Book)

// BookLoader fetches the book designated by the `id` path parameter and hands it
// over to next. It answers 404 when no such book exists and 500 when the store
// could not be queried. In both cases next is not called.
func (api *APIHandler) BookLoader(next BookHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))

		book, err := api.bookService.GetOne(r.Context(), id)
		if errors.Is(err, ErrBookNotFound) {
			logger.Info("book does not exist")
			if err = WriteErrorResponse(r.Context(), w, http.StatusNotFound, "Cannot find book"); err != nil {
				logger.Error("failed to send error response", zap.Error(err))
			}
			return
		}
		if err != nil {
			logger.Error("failed to load book", zap.Error(err))
			if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, err.Error()); err != nil {
				logger.Error("failed to send error response", zap.Error(err))
			}
			return
		}
		next(w, r, ps, book)
	}
}
