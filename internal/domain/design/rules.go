package design

import (
	"strings"

	studio_errors "uniform-studio/pkg/errors"
)

// MaxRevisionPurchase bounds a single finite revision purchase.
const MaxRevisionPurchase = 100

// ChatLocked reports whether chat and revision actions are read-only for r.
// hasFinal is whether any delivery of r is already final.
func ChatLocked(r DesignRequest, hasFinal bool) bool {
	if hasFinal {
		return true
	}
	switch r.Status {
	case StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

func CheckRequestRevision(r DesignRequest, hasFinal bool, note string) error {
	if r.Status == StatusImported {
		return studio_errors.ErrInvalidTransition
	}
	if ChatLocked(r, hasFinal) {
		return studio_errors.ErrReadOnly
	}
	if !r.RevisionTime.CanRequest() {
		return studio_errors.ErrQuotaExhausted
	}
	if strings.TrimSpace(note) == "" {
		return studio_errors.ErrInvalidInput
	}
	return nil
}

func CheckBuyRevisions(r DesignRequest, hasFinal bool, quantity int) error {
	if !ValidPurchaseQuantity(quantity) {
		return studio_errors.ErrInvalidInput
	}
	if r.Status == StatusImported || ChatLocked(r, hasFinal) {
		return studio_errors.ErrReadOnly
	}
	if !r.FinalDesignQuotationID.Valid {
		return studio_errors.ErrInvalidTransition
	}
	if r.RevisionTime != 0 {
		return studio_errors.ErrQuotaAvailable
	}
	return nil
}

func ValidPurchaseQuantity(quantity int) bool {
	if RevisionQuota(quantity) == UnlimitedRevisions {
		return true
	}
	return quantity >= 1 && quantity <= MaxRevisionPurchase
}

// RevisionPurchasePrice is the price before service fee for buying quantity revisions.
func RevisionPurchasePrice(quantity int, extraRevisionPrice int64) int64 {
	if RevisionQuota(quantity) == UnlimitedRevisions {
		return UnlimitedPriceMultiplier * extraRevisionPrice
	}
	return int64(quantity) * extraRevisionPrice
}

func CheckMakeFinal(r DesignRequest, hasFinal bool) error {
	if r.Status == StatusImported {
		return studio_errors.ErrInvalidTransition
	}
	if r.Status == StatusCompleted || r.Status == StatusCanceled {
		return studio_errors.ErrReadOnly
	}
	if hasFinal {
		return studio_errors.ErrAlreadyFinal
	}
	return nil
}

func CheckCancel(r DesignRequest, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return studio_errors.ErrInvalidInput
	}
	if r.Status != StatusPending && r.Status != StatusProcessing {
		return studio_errors.ErrInvalidTransition
	}
	return nil
}

func CheckSelectQuotation(r DesignRequest, q DesignQuotation, extraRevisions int) error {
	if q.DesignRequestID != r.ID {
		return studio_errors.ErrNotFound
	}
	if r.Status != StatusPending {
		return studio_errors.ErrInvalidTransition
	}
	if r.FinalDesignQuotationID.Valid {
		return studio_errors.ErrConflict
	}
	if extraRevisions < 0 || (extraRevisions > MaxRevisionPurchase && RevisionQuota(extraRevisions) != UnlimitedRevisions) {
		return studio_errors.ErrInvalidInput
	}
	return nil
}
