package repository_test

import (
	"context"
	"errors"
	"testing"

	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/repository/repotest"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
)

func TestMarkFinalAllowsOnlyOneFinalDelivery(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewDeliveryRepository(db)
	ctx := context.Background()

	s := repotest.CreateSchool(t, db, "final@school.test")
	req, _ := repotest.CreateRequest(t, db, repotest.RequestFixture{SchoolID: s.ID})
	first := repotest.CreateDelivery(t, db, req.ID, 1)
	second := repotest.CreateDelivery(t, db, req.ID, 2)

	if err := repo.MarkFinal(ctx, req.ID, first.ID); err != nil {
		t.Fatalf("MarkFinal: %v", err)
	}
	if err := repo.MarkFinal(ctx, req.ID, second.ID); !errors.Is(err, studio_errors.ErrAlreadyFinal) {
		t.Fatalf("second MarkFinal: want ErrAlreadyFinal, got %v", err)
	}

	hasFinal, err := repo.HasFinal(ctx, req.ID)
	if err != nil || !hasFinal {
		t.Fatalf("HasFinal: got %v, %v", hasFinal, err)
	}

	deliveries, err := repo.ListByRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("ListByRequest: %v", err)
	}
	finals := 0
	for _, d := range deliveries {
		if d.IsFinal {
			finals++
		}
	}
	if finals != 1 {
		t.Fatalf("final deliveries: want=1 got=%d", finals)
	}
}

func TestConsumeRevisionDetectsConcurrentChange(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewDesignRequestRepository(db)
	ctx := context.Background()

	s := repotest.CreateSchool(t, db, "quota@school.test")
	req, _ := repotest.CreateRequest(t, db, repotest.RequestFixture{SchoolID: s.ID, RevisionTime: 2})

	if err := repo.ConsumeRevision(ctx, req.ID, 2, 1); err != nil {
		t.Fatalf("ConsumeRevision: %v", err)
	}
	if err := repo.ConsumeRevision(ctx, req.ID, 2, 1); !errors.Is(err, studio_errors.ErrConflict) {
		t.Fatalf("stale ConsumeRevision: want ErrConflict, got %v", err)
	}

	got, err := repo.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.RevisionTime != 1 {
		t.Fatalf("revision time: want=1 got=%d", got.RevisionTime)
	}
}

func TestListUndoneRevisions(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewDeliveryRepository(db)
	ctx := context.Background()

	s := repotest.CreateSchool(t, db, "undone@school.test")
	req, _ := repotest.CreateRequest(t, db, repotest.RequestFixture{SchoolID: s.ID})
	d := repotest.CreateDelivery(t, db, req.ID, 1)

	for _, status := range []design.RevisionStatus{design.RevisionUndone, design.RevisionDone} {
		err := repo.CreateRevision(ctx, &design.RevisionRequest{
			ID:              uuid.New(),
			DeliveryID:      d.ID,
			DesignRequestID: req.ID,
			Note:            "change collar",
			Status:          status,
			RequestDate:     d.SubmitDate,
		})
		if err != nil {
			t.Fatalf("CreateRevision: %v", err)
		}
	}

	undone, err := repo.ListUndoneRevisions(ctx, req.ID)
	if err != nil {
		t.Fatalf("ListUndoneRevisions: %v", err)
	}
	if len(undone) != 1 || undone[0].Status != design.RevisionUndone {
		t.Fatalf("unexpected undone revisions: %+v", undone)
	}
}

func TestMarkFinalRejectsCompletedRequest(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewDeliveryRepository(db)
	ctx := context.Background()

	s := repotest.CreateSchool(t, db, "done@school.test")
	req, _ := repotest.CreateRequest(t, db, repotest.RequestFixture{SchoolID: s.ID, Status: design.StatusCompleted})
	d := repotest.CreateDelivery(t, db, req.ID, 1)

	if err := repo.MarkFinal(ctx, req.ID, d.ID); !errors.Is(err, studio_errors.ErrAlreadyFinal) {
		t.Fatalf("MarkFinal on completed request: want ErrAlreadyFinal, got %v", err)
	}
	if hasFinal, _ := repo.HasFinal(ctx, req.ID); hasFinal {
		t.Fatal("completed request gained a final delivery")
	}
}
