package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/api/responses"
	"github.com/aquaticpose/aquaticpose-backend/api/validators"
	productsvc "github.com/aquaticpose/aquaticpose-backend/internal/products"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/logger"
)

// ProductList serves the filtered, cursor-paginated catalog.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featuredOnly, err := validators.ParseQueryBool(r, "featured", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceMin, err := validators.ParseQueryInt64(r, "price_min_cents")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceMax, err := validators.ParseQueryInt64(r, "price_max_cents")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			Filters: productsvc.ProductListFilters{
				CategoryID:    categoryID,
				ActiveOnly:    true,
				FeaturedOnly:  featuredOnly,
				PriceMinCents: priceMin,
				PriceMaxCents: priceMax,
				Query:         strings.TrimSpace(r.URL.Query().Get("q")),
			},
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ProductDetail resolves a product by id, falling back to slug lookup.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "productId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing product identifier"))
			return
		}

		if id, err := uuid.Parse(raw); err == nil {
			product, err := svc.GetProduct(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, product)
			return
		}

		product, err := svc.GetProductBySlug(r.Context(), raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	SKU                 string   `json:"sku" validate:"required"`
	Name                string   `json:"name" validate:"required"`
	Description         *string  `json:"description,omitempty"`
	CategoryID          *string  `json:"category_id,omitempty"`
	PriceCents          int64    `json:"price_cents" validate:"required,min=1"`
	CompareAtPriceCents *int64   `json:"compare_at_price_cents,omitempty" validate:"omitempty,min=1"`
	ImageURLs           []string `json:"image_urls,omitempty"`
	IsActive            *bool    `json:"is_active,omitempty"`
	IsFeatured          *bool    `json:"is_featured,omitempty"`
}

// AdminCreateProduct handles product creation.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := parseOptionalUUID(payload.CategoryID, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		isActive := true
		if payload.IsActive != nil {
			isActive = *payload.IsActive
		}
		isFeatured := false
		if payload.IsFeatured != nil {
			isFeatured = *payload.IsFeatured
		}

		product, err := svc.CreateProduct(r.Context(), productsvc.CreateProductInput{
			SKU:                 strings.TrimSpace(payload.SKU),
			Name:                strings.TrimSpace(payload.Name),
			Description:         payload.Description,
			CategoryID:          categoryID,
			PriceCents:          payload.PriceCents,
			CompareAtPriceCents: payload.CompareAtPriceCents,
			ImageURLs:           payload.ImageURLs,
			IsActive:            isActive,
			IsFeatured:          isFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	SKU                 *string   `json:"sku,omitempty"`
	Name                *string   `json:"name,omitempty"`
	Description         *string   `json:"description,omitempty"`
	CategoryID          *string   `json:"category_id,omitempty"`
	ClearCategory       bool      `json:"clear_category,omitempty"`
	PriceCents          *int64    `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	CompareAtPriceCents *int64    `json:"compare_at_price_cents,omitempty" validate:"omitempty,min=1"`
	ImageURLs           *[]string `json:"image_urls,omitempty"`
	IsActive            *bool     `json:"is_active,omitempty"`
	IsFeatured          *bool     `json:"is_featured,omitempty"`
}

// AdminUpdateProduct handles partial product updates.
func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := parseOptionalUUID(payload.CategoryID, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, productsvc.UpdateProductInput{
			SKU:                 payload.SKU,
			Name:                payload.Name,
			Description:         payload.Description,
			CategoryID:          categoryID,
			ClearCategory:       payload.ClearCategory,
			PriceCents:          payload.PriceCents,
			CompareAtPriceCents: payload.CompareAtPriceCents,
			ImageURLs:           payload.ImageURLs,
			IsActive:            payload.IsActive,
			IsFeatured:          payload.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct removes a product from the catalog.
func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
