package service

import (
	"strings"
	"time"

	"pdfreview/internal/model"
)

// ChangePayload is the kind-specific body of a change request.
// EditPayload and DeletePayload are the only implementations.
type ChangePayload interface {
	Kind() model.RequestKind
	validate() error
}

// EditPayload proposes a new period, a new file locator, or both.
// The file behind NewLocator must already be in object storage.
type EditPayload struct {
	NewPeriod  *time.Time
	NewLocator *string
}

func (EditPayload) Kind() model.RequestKind { return model.RequestKindEdit }

func (p EditPayload) validate() error {
	if p.NewLocator != nil && strings.TrimSpace(*p.NewLocator) == "" {
		return validationError("new file locator must not be empty")
	}
	if p.NewPeriod == nil && p.NewLocator == nil {
		return validationError("an edit request needs a new date or a new file")
	}
	return nil
}

// DeletePayload proposes soft-deleting the document. It carries no fields.
type DeletePayload struct{}

func (DeletePayload) Kind() model.RequestKind { return model.RequestKindDelete }

func (DeletePayload) validate() error { return nil }
