package main

import (
	"strings"

	"github.com/gofrs/uuid"
)

const (
	BookIDPrefix    string = "b"
	RequestIDPrefix string = "r"
)

var _ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.

// UIDHandler is an interface for getting and checking prefixed uids.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier in the form <prefix>:<uuid>.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// IsValid checks if a given string is a valid uuid once its custom prefix is removed.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+":")
	if !ok {
		return false
	}
	return uuid.FromStringOrNil(rest) != uuid.Nil
}
