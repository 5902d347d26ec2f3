package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaticpose/aquaticpose-backend/pkg/pagination"
)

func TestRepositoryListFiltersAndCursor(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	oldest := seedProduct(t, conn, "Bịch Cám Tép", nil, 40_000, base)
	middle := seedProduct(t, conn, "Đèn LED Thủy Sinh", nil, 350_000, base.Add(time.Minute))
	newest := seedProduct(t, conn, "Lọc Vách Mini", nil, 90_000, base.Add(2*time.Minute))

	rows, err := repo.List(ctx, ProductListFilters{}, nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, oldest.ID, rows[2].ID)

	// Cursor resumes strictly after the first page.
	cursor := &pagination.Cursor{CreatedAt: rows[0].CreatedAt, ID: rows[0].ID}
	rest, err := repo.List(ctx, ProductListFilters{}, nil, cursor, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, middle.ID, rest[0].ID)

	// Price band keeps only the light.
	minP, maxP := int64(100_000), int64(400_000)
	priced, err := repo.List(ctx, ProductListFilters{PriceMinCents: &minP, PriceMaxCents: &maxP}, nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, middle.ID, priced[0].ID)

	// Name search is case-insensitive.
	found, err := repo.List(ctx, ProductListFilters{Query: "lọc"}, nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, newest.ID, found[0].ID)
}

func TestRepositoryListCategorySubtree(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	parent := mustCreateTestCategory(t, conn, "shrimp", nil)
	child := mustCreateTestCategory(t, conn, "shrimp-food", &parent.ID)
	other := mustCreateTestCategory(t, conn, "plants", nil)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inParent := seedProduct(t, conn, "Tép Ong Đen", &parent.ID, 120_000, base)
	inChild := seedProduct(t, conn, "Cám Tép Chuyên Dụng", &child.ID, 55_000, base.Add(time.Minute))
	seedProduct(t, conn, "Rêu Minifiss", &other.ID, 30_000, base.Add(2*time.Minute))

	rows, err := repo.List(ctx, ProductListFilters{}, []uuid.UUID{parent.ID, child.ID}, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, inChild.ID, rows[0].ID)
	assert.Equal(t, inParent.ID, rows[1].ID)
}

func TestRepositoryUpdateRating(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := seedProduct(t, conn, "Sủi Oxy", nil, 25_000, time.Now())
	require.NoError(t, repo.UpdateRating(ctx, product.ID, 4.5, 2))

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, reloaded.RatingAverage, 0.001)
	assert.EqualValues(t, 2, reloaded.RatingCount)
}
