package store

import (
	"context"
	"testing"

	"github.com/dayplan/autoplanner/internal/adapter/memory"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/model"
)

func newTestConstraintStore() *ConstraintStore {
	return NewConstraintStore(memory.New())
}

func TestConstraintCreateAndGetAll(t *testing.T) {
	s := newTestConstraintStore()
	ctx := context.Background()
	c := &model.Constraint{ID: "c1", Type: model.MustBeBefore, FirstSeries: "a", SecondSeries: "b"}
	if err := s.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	all, err := s.GetAllConstraints(ctx)
	if err != nil {
		t.Fatalf("GetAllConstraints: %v", err)
	}
	if len(all) != 1 || all[0].ID != "c1" {
		t.Fatalf("expected 1 constraint c1, got %+v", all)
	}
}

func TestConstraintDeleteNotFound(t *testing.T) {
	s := newTestConstraintStore()
	err := s.Delete(context.Background(), "nope")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestConstraintDeleteRemoves(t *testing.T) {
	s := newTestConstraintStore()
	ctx := context.Background()
	if err := s.Create(ctx, &model.Constraint{ID: "c1", Type: model.CantBeNextTo}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, _ := s.GetAllConstraints(ctx)
	if len(all) != 0 {
		t.Fatalf("expected no constraints after delete, got %+v", all)
	}
}
