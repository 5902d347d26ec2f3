package blog

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// PostDTO is the blog post payload returned to clients.
type PostDTO struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	BodyHTML      string     `json:"body_html"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	Tags          []string   `json:"tags"`
	AuthorID      uuid.UUID  `json:"author_id"`
	IsPublished   bool       `json:"is_published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PostListResult is one page of posts plus the cursor for the next.
type PostListResult struct {
	Items      []PostDTO `json:"items"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

// NewPostDTO builds a DTO from the persisted model.
func NewPostDTO(post *models.BlogPost) *PostDTO {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return &PostDTO{
		ID:            post.ID,
		Title:         post.Title,
		Slug:          post.Slug,
		BodyHTML:      post.BodyHTML,
		CoverImageURL: post.CoverImageURL,
		Tags:          tags,
		AuthorID:      post.AuthorID,
		IsPublished:   post.IsPublished,
		PublishedAt:   post.PublishedAt,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
}
