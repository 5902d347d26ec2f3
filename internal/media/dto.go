package media

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// MediaDTO is the upload record returned to clients.
type MediaDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	PublicID  string    `json:"public_id"`
	Folder    string    `json:"folder,omitempty"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMediaDTO builds a DTO from the persisted model.
func NewMediaDTO(media *models.Media) *MediaDTO {
	return &MediaDTO{
		ID:        media.ID,
		URL:       media.URL,
		PublicID:  media.PublicID,
		Folder:    media.Folder,
		Bytes:     media.Bytes,
		CreatedAt: media.CreatedAt,
	}
}

// NewMediaDTOs maps a slice of models.
func NewMediaDTOs(rows []models.Media) []MediaDTO {
	out := make([]MediaDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewMediaDTO(&rows[i]))
	}
	return out
}
