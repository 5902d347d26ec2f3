package products

import (
	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse
// endpoint. CategoryID expands to the category's whole subtree.
type ProductListFilters struct {
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	ActiveOnly    bool       `json:"active_only,omitempty"`
	FeaturedOnly  bool       `json:"featured_only,omitempty"`
	PriceMinCents *int64     `json:"price_min_cents,omitempty"`
	PriceMaxCents *int64     `json:"price_max_cents,omitempty"`
	Query         string     `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate and filter the
// catalog.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}
