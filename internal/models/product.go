package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a storefront product row. Rows only exist while the ERP
// reports positive stock; a product whose stock drops to zero is removed on
// the next sync.
type Product struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalID    string     `json:"externalId" gorm:"uniqueIndex;type:varchar(64);not null"`
	NameRu        string     `json:"nameRu" gorm:"not null"`
	NameEn        string     `json:"nameEn"`
	DescriptionRu string     `json:"descriptionRu,omitempty" gorm:"type:text"`
	DescriptionEn string     `json:"descriptionEn,omitempty" gorm:"type:text"`
	Price         float64    `json:"price" gorm:"not null;default:0"`
	OldPrice      *float64   `json:"oldPrice,omitempty"`
	CategoryID    *uuid.UUID `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	Stock         int        `json:"stock" gorm:"not null;default:0"`
	Brand         string     `json:"brand,omitempty"`
	SKU           string     `json:"sku,omitempty" gorm:"index"`
	IsNew         bool       `json:"isNew" gorm:"default:false"`
	IsPopular     bool       `json:"isPopular" gorm:"default:false"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	Images []ProductImage `json:"images,omitempty" gorm:"foreignKey:ProductID"`

	// PendingImageURLs carries the remote image links between the upsert and
	// the image-insert step of a sync pass. Never persisted.
	PendingImageURLs []string `json:"-" gorm:"-"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// ProductImage represents a product image row. Images are written once per
// product: a product that already owns image rows is left untouched by sync.
type ProductImage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	URL       string    `json:"url" gorm:"not null"`
	IsPrimary bool      `json:"isPrimary" gorm:"default:false"`
	SortOrder int       `json:"sortOrder" gorm:"default:0"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for ProductImage
func (ProductImage) TableName() string {
	return "product_images"
}

// HasDiscount reports whether the product carries a crossed-out old price.
func (p *Product) HasDiscount() bool {
	return p.OldPrice != nil && *p.OldPrice > p.Price
}
