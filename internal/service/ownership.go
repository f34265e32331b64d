package service

import "pdfreview/internal/model"

// AssertOwner fails with ErrForbidden unless callerID owns doc.
func AssertOwner(doc *model.Document, callerID string) error {
	if doc == nil || callerID == "" || doc.OwnerID != callerID {
		return newError(ErrForbidden, "you are not the owner of this document")
	}
	return nil
}
