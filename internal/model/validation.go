package model

import (
	"errors"

	"github.com/goliatone/go-nodegen/pkg/schema"
)

var (
	errOwnerMissing = errors.New("model builder: document owner is required")
	errNameMissing  = errors.New("model builder: document name is required")
)

func validateDocument(doc schema.Document) error {
	if doc.Owner == "" {
		return errOwnerMissing
	}
	if doc.Name == "" {
		return errNameMissing
	}
	return nil
}
