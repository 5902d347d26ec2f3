package models

import (
	"time"

	"github.com/google/uuid"
)

// Media records an image hosted by the external media service. PublicID is
// the host-side handle needed for deletion.
type Media struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	URL       string    `gorm:"column:url;not null"`
	PublicID  string    `gorm:"column:public_id;not null;uniqueIndex"`
	Folder    string    `gorm:"column:folder;not null;default:''"`
	Bytes     int64     `gorm:"column:bytes;not null;default:0"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
