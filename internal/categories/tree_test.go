package categories

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/slug"
)

func cat(name string, parentID *uuid.UUID, order int) models.Category {
	return models.Category{
		ID:           uuid.New(),
		Name:         name,
		Slug:         slug.Make(name),
		ParentID:     parentID,
		DisplayOrder: order,
		CreatedAt:    time.Now(),
	}
}

func TestBuildTreeNestsAndOrders(t *testing.T) {
	root := cat("Fish", nil, 0)
	tanks := cat("Tanks", nil, 1)
	tropical := cat("Tropical", &root.ID, 1)
	coldwater := cat("Coldwater", &root.ID, 0)
	guppies := cat("Guppies", &tropical.ID, 0)

	// Deliberately shuffled input order.
	forest, err := BuildTree([]models.Category{guppies, tanks, tropical, root, coldwater}, nil)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}

	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
	if forest[0].Category.Name != "Fish" || forest[1].Category.Name != "Tanks" {
		t.Fatalf("unexpected root order: %s, %s", forest[0].Category.Name, forest[1].Category.Name)
	}

	fish := forest[0]
	if len(fish.Children) != 2 {
		t.Fatalf("expected 2 children under Fish, got %d", len(fish.Children))
	}
	if fish.Children[0].Category.Name != "Coldwater" {
		t.Fatalf("expected display_order to sort Coldwater first, got %s", fish.Children[0].Category.Name)
	}
	if len(fish.Children[1].Children) != 1 || fish.Children[1].Children[0].Category.Name != "Guppies" {
		t.Fatal("expected Guppies nested under Tropical")
	}
}

func TestBuildTreeSubtree(t *testing.T) {
	root := cat("Fish", nil, 0)
	tropical := cat("Tropical", &root.ID, 0)
	guppies := cat("Guppies", &tropical.ID, 0)

	forest, err := BuildTree([]models.Category{root, tropical, guppies}, &tropical.ID)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if len(forest) != 1 || forest[0].Category.ID != tropical.ID {
		t.Fatal("expected subtree rooted at Tropical")
	}
	if len(forest[0].Children) != 1 || forest[0].Children[0].Category.ID != guppies.ID {
		t.Fatal("expected Guppies under Tropical")
	}

	missing := uuid.New()
	if _, err := BuildTree([]models.Category{root}, &missing); err == nil {
		t.Fatal("expected not-found error for unknown root")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestBuildTreeDanglingParentBecomesRoot(t *testing.T) {
	ghost := uuid.New()
	orphan := cat("Orphan", &ghost, 0)

	forest, err := BuildTree([]models.Category{orphan}, nil)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if len(forest) != 1 || forest[0].Category.ID != orphan.ID {
		t.Fatal("expected orphan surfaced as a root")
	}
}

func TestBuildTreeDetectsCycle(t *testing.T) {
	a := cat("A", nil, 0)
	b := cat("B", &a.ID, 0)
	a.ParentID = &b.ID

	_, err := BuildTree([]models.Category{a, b}, nil)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	root := cat("Fish", nil, 0)
	tropical := cat("Tropical", &root.ID, 0)
	guppies := cat("Guppies", &tropical.ID, 0)
	tanks := cat("Tanks", nil, 1)

	forest, err := BuildTree([]models.Category{tanks, guppies, root, tropical}, nil)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}

	flat := Flatten(forest)
	if len(flat) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(flat))
	}
	wantOrder := []string{"Fish", "Tropical", "Guppies", "Tanks"}
	for i, name := range wantOrder {
		if flat[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, flat[i].Name)
		}
	}
}
