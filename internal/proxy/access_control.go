package proxy

import (
	"context"

	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/repository"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
)

// AccessControl decides whether a school may act on a design request and its room.
// A room shares its design request's id.
type AccessControl struct {
	requestRepo repository.DesignRequestRepository
}

func NewAccessControl(requestRepo repository.DesignRequestRepository) *AccessControl {
	return &AccessControl{requestRepo: requestRepo}
}

// LoadOwnedRequest returns the request when schoolID owns it. Requests owned by
// another school are reported as not found.
func (a *AccessControl) LoadOwnedRequest(ctx context.Context, schoolID, requestID uuid.UUID) (design.DesignRequest, error) {
	if a == nil || a.requestRepo == nil {
		return design.DesignRequest{}, studio_errors.ErrForbidden
	}
	if schoolID == uuid.Nil {
		return design.DesignRequest{}, studio_errors.ErrUnauthorized
	}
	req, err := a.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return design.DesignRequest{}, err
	}
	if req.SchoolID != schoolID {
		return design.DesignRequest{}, studio_errors.ErrNotFound
	}
	return req, nil
}

func (a *AccessControl) CanViewRoom(ctx context.Context, schoolID, roomID uuid.UUID) error {
	_, err := a.LoadOwnedRequest(ctx, schoolID, roomID)
	return err
}
