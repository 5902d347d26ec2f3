package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
)

// UserDTO is the account payload returned to clients. The password hash never
// leaves the service.
type UserDTO struct {
	ID         uuid.UUID        `json:"id"`
	Email      string           `json:"email"`
	FullName   string           `json:"full_name"`
	Phone      *string          `json:"phone,omitempty"`
	Role       enums.UserRole   `json:"role"`
	Status     enums.UserStatus `json:"status"`
	VerifiedAt *time.Time       `json:"verified_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// LoginResultDTO carries the minted token alongside the account.
type LoginResultDTO struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

// NewUserDTO builds a DTO from the persisted model.
func NewUserDTO(user *models.User) *UserDTO {
	return &UserDTO{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Phone:      user.Phone,
		Role:       user.Role,
		Status:     user.Status,
		VerifiedAt: user.VerifiedAt,
		CreatedAt:  user.CreatedAt,
	}
}
