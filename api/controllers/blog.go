package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/api/middleware"
	"github.com/aquaticpose/aquaticpose-backend/api/responses"
	"github.com/aquaticpose/aquaticpose-backend/api/validators"
	blogsvc "github.com/aquaticpose/aquaticpose-backend/internal/blog"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/logger"
)

// BlogList serves published posts, newest first.
func BlogList(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPosts(r.Context(), true, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BlogDetail resolves a published post by slug.
func BlogDetail(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postSlug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if postSlug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing post slug"))
			return
		}

		post, err := svc.GetPostBySlug(r.Context(), postSlug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

// AdminBlogList includes drafts.
func AdminBlogList(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPosts(r.Context(), false, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createPostRequest struct {
	Title         string   `json:"title" validate:"required"`
	BodyHTML      string   `json:"body_html" validate:"required"`
	CoverImageURL *string  `json:"cover_image_url,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Publish       bool     `json:"publish,omitempty"`
}

// AdminCreatePost handles blog post creation.
func AdminCreatePost(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawUserID := middleware.UserIDFromContext(r.Context())
		if rawUserID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		authorID, err := uuid.Parse(rawUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var payload createPostRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.CreatePost(r.Context(), authorID, blogsvc.CreatePostInput{
			Title:         payload.Title,
			BodyHTML:      payload.BodyHTML,
			CoverImageURL: payload.CoverImageURL,
			Tags:          payload.Tags,
			Publish:       payload.Publish,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

type updatePostRequest struct {
	Title         *string   `json:"title,omitempty"`
	BodyHTML      *string   `json:"body_html,omitempty"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	Publish       *bool     `json:"publish,omitempty"`
}

// AdminUpdatePost handles partial post updates, including publish state.
func AdminUpdatePost(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "postId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePostRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.UpdatePost(r.Context(), id, blogsvc.UpdatePostInput{
			Title:         payload.Title,
			BodyHTML:      payload.BodyHTML,
			CoverImageURL: payload.CoverImageURL,
			Tags:          payload.Tags,
			Publish:       payload.Publish,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, post)
	}
}

// AdminDeletePost removes a post.
func AdminDeletePost(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "postId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePost(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
