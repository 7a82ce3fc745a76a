package design

import studio_errors "uniform-studio/pkg/errors"

// RevisionQuota is the number of revisions a school may still request.
// The value 9999 means unlimited and is kept as-is on the wire and in storage.
type RevisionQuota int

const UnlimitedRevisions RevisionQuota = 9999

// UnlimitedPriceMultiplier prices an unlimited purchase as this many single revisions.
const UnlimitedPriceMultiplier = 20

func (q RevisionQuota) IsUnlimited() bool {
	return q == UnlimitedRevisions
}

func (q RevisionQuota) CanRequest() bool {
	return q.IsUnlimited() || q > 0
}

// Consume returns the quota left after one revision request.
func (q RevisionQuota) Consume() (RevisionQuota, error) {
	if q.IsUnlimited() {
		return q, nil
	}
	if q <= 0 {
		return q, studio_errors.ErrQuotaExhausted
	}
	return q - 1, nil
}

// TopUp adds purchased revisions. Buying UnlimitedRevisions switches to unlimited.
func (q RevisionQuota) TopUp(quantity int) RevisionQuota {
	if q.IsUnlimited() || RevisionQuota(quantity) == UnlimitedRevisions {
		return UnlimitedRevisions
	}
	if quantity <= 0 {
		return q
	}
	next := q + RevisionQuota(quantity)
	if next >= UnlimitedRevisions {
		return UnlimitedRevisions - 1
	}
	return next
}

// Combine adds extra revisions bought at selection time to a quotation's included revisions.
func Combine(included RevisionQuota, extra int) RevisionQuota {
	if included.IsUnlimited() || RevisionQuota(extra) == UnlimitedRevisions {
		return UnlimitedRevisions
	}
	if included < 0 {
		included = 0
	}
	return included.TopUp(extra)
}
