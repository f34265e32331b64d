package model

import "time"

// RequestKind discriminates what a change request proposes.
type RequestKind string

const (
	RequestKindEdit   RequestKind = "EDIT"
	RequestKindDelete RequestKind = "DELETE"
)

// Valid reports whether k is a known kind.
func (k RequestKind) Valid() bool {
	return k == RequestKindEdit || k == RequestKindDelete
}

// RequestStatus is the moderation state of a change request.
// PENDING is the only non-terminal state.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusApproved  RequestStatus = "APPROVED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusCancelled
}

// ChangeRequest is an owner's proposal to edit or delete a document,
// resolved exactly once by an administrator.
type ChangeRequest struct {
	ID            string        `json:"id"`
	RequesterID   string        `json:"user_id"`
	RequesterName string        `json:"user_name,omitempty"`
	DocumentID    string        `json:"pdf_id"`
	Kind          RequestKind   `json:"type"`
	NewPeriod     *time.Time    `json:"new_date"`
	NewLocator    *string       `json:"new_file"`
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
