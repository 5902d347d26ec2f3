package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/pagination"
	"github.com/aquaticpose/aquaticpose-backend/pkg/slug"
)

const maxSlugAttempts = 50

// Service exposes blog editorial operations.
type Service interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*PostDTO, error)
	UpdatePost(ctx context.Context, postID uuid.UUID, input UpdatePostInput) (*PostDTO, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error
	GetPostBySlug(ctx context.Context, postSlug string) (*PostDTO, error)
	ListPosts(ctx context.Context, publishedOnly bool, params pagination.Params) (*PostListResult, error)
}

// CreatePostInput holds the validated payload to create a post.
type CreatePostInput struct {
	Title         string
	BodyHTML      string
	CoverImageURL *string
	Tags          []string
	Publish       bool
}

// UpdatePostInput holds optional mutation values for a post. The slug is
// fixed at creation.
type UpdatePostInput struct {
	Title         *string
	BodyHTML      *string
	CoverImageURL *string
	Tags          *[]string
	Publish       *bool
}

// service implements the blog service.
type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs a blog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("blog repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// CreatePost creates a post, optionally publishing it immediately.
func (s *service) CreatePost(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*PostDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.BodyHTML) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body_html is required")
	}
	if authorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author is required")
	}

	base := slug.Make(title)
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must contain at least one letter or digit")
	}

	post := &models.BlogPost{
		ID:            uuid.New(),
		Title:         title,
		BodyHTML:      input.BodyHTML,
		CoverImageURL: input.CoverImageURL,
		Tags:          input.Tags,
		AuthorID:      authorID,
	}
	if input.Publish {
		now := s.now()
		post.IsPublished = true
		post.PublishedAt = &now
	}

	created, err := s.createWithUniqueSlug(ctx, post, base)
	if err != nil {
		return nil, err
	}
	return NewPostDTO(created), nil
}

func (s *service) createWithUniqueSlug(ctx context.Context, post *models.BlogPost, base string) (*models.BlogPost, error) {
	suffix := 0
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := base
		if suffix > 0 {
			candidate = fmt.Sprintf("%s-%d", base, suffix)
		}

		taken, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check post slug")
		}
		if taken {
			suffix++
			continue
		}

		post.Slug = candidate
		created, err := s.repo.Create(ctx, post)
		if err == nil {
			return created, nil
		}
		if pkgerrors.IsUniqueViolation(err) {
			suffix++
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create post")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique slug for post")
}

// UpdatePost applies a partial update. PublishedAt is stamped on the first
// publish and survives later unpublish/republish cycles.
func (s *service) UpdatePost(ctx context.Context, postID uuid.UUID, input UpdatePostInput) (*PostDTO, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load post")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		post.Title = title
	}
	if input.BodyHTML != nil {
		if strings.TrimSpace(*input.BodyHTML) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "body_html cannot be empty")
		}
		post.BodyHTML = *input.BodyHTML
	}
	if input.CoverImageURL != nil {
		post.CoverImageURL = input.CoverImageURL
	}
	if input.Tags != nil {
		post.Tags = *input.Tags
	}
	if input.Publish != nil {
		post.IsPublished = *input.Publish
		if *input.Publish && post.PublishedAt == nil {
			now := s.now()
			post.PublishedAt = &now
		}
	}

	updated, err := s.repo.Update(ctx, post)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update post")
	}
	return NewPostDTO(updated), nil
}

// DeletePost removes a post.
func (s *service) DeletePost(ctx context.Context, postID uuid.UUID) error {
	if err := s.repo.Delete(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete post")
	}
	return nil
}

// GetPostBySlug loads one post by its slug.
func (s *service) GetPostBySlug(ctx context.Context, postSlug string) (*PostDTO, error) {
	post, err := s.repo.FindBySlug(ctx, postSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load post")
	}
	return NewPostDTO(post), nil
}

// ListPosts returns one page of posts, newest first. Public callers see only
// published posts.
func (s *service) ListPosts(ctx context.Context, publishedOnly bool, params pagination.Params) (*PostListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, publishedOnly, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list posts")
	}

	result := &PostListResult{Items: make([]PostDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewPostDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}
