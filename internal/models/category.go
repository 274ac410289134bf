package models

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a storefront category row. The tree shape mirrors the
// ERP's product folders: ExternalID points back at the remote folder, Path is
// the slash-joined chain of internal IDs from the root and Level is the depth.
type Category struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalID  *string    `json:"externalId,omitempty" gorm:"uniqueIndex;type:varchar(64)"`
	ParentID    *uuid.UUID `json:"parentId,omitempty" gorm:"type:uuid;index"`
	NameRu      string     `json:"nameRu" gorm:"not null"`
	NameEn      string     `json:"nameEn"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	Path        string     `json:"path" gorm:"index"`
	Level       int        `json:"level" gorm:"not null;default:0"`
	IsActive    bool       `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Children []Category `json:"children,omitempty" gorm:"-"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}
