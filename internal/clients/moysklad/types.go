package moysklad

import (
	"fmt"
	"math"
	"regexp"
)

// Meta is the reference envelope MoySklad attaches to every entity. Href is
// the only field the sync pipeline reads; the entity UUID is its last path
// segment.
type Meta struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
	Size int    `json:"size,omitempty"`
}

// EntityRef wraps a nested reference to another entity.
type EntityRef struct {
	Meta Meta `json:"meta"`
}

// listEnvelope is the common shape of MoySklad collection responses.
type listEnvelope[T any] struct {
	Meta Meta `json:"meta"`
	Rows []T  `json:"rows"`
}

// ProductFolder is a remote category as returned by /entity/productfolder.
// Every field the remote may omit is optional; missing values default rather
// than fail the batch.
type ProductFolder struct {
	ID          string     `json:"id"`
	Meta        Meta       `json:"meta"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Archived    bool       `json:"archived"`
	Parent      *EntityRef `json:"productFolder,omitempty"`
}

// ExternalID returns the folder's UUID, falling back to the meta href when
// the id field is absent.
func (f ProductFolder) ExternalID() string {
	if f.ID != "" {
		return f.ID
	}
	return ExtractUUID(f.Meta.Href)
}

// ParentExternalID resolves the parent folder's UUID from its href reference,
// or "" for root folders.
func (f ProductFolder) ParentExternalID() string {
	if f.Parent == nil {
		return ""
	}
	return ExtractUUID(f.Parent.Meta.Href)
}

// SalePrice is one named price tier on a product, in minor currency units.
type SalePrice struct {
	Value     *float64 `json:"value,omitempty"`
	PriceType struct {
		Name string `json:"name"`
	} `json:"priceType"`
}

// Attribute is a custom product attribute such as Brand.
type Attribute struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value,omitempty"`
}

// Image is an embedded product image reference.
type Image struct {
	Meta struct {
		Href         string `json:"href"`
		DownloadHref string `json:"downloadHref"`
	} `json:"meta"`
	Title string `json:"title,omitempty"`
}

// Product is a remote product as returned by /entity/product with images
// expanded.
type Product struct {
	ID          string      `json:"id"`
	Meta        Meta        `json:"meta"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Code        string      `json:"code,omitempty"`
	Article     string      `json:"article,omitempty"`
	Archived    bool        `json:"archived"`
	SalePrices  []SalePrice `json:"salePrices,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	Folder      *EntityRef  `json:"productFolder,omitempty"`
	Images      *struct {
		Rows []Image `json:"rows"`
	} `json:"images,omitempty"`
}

// ExternalID returns the product's UUID, falling back to the meta href.
func (p Product) ExternalID() string {
	if p.ID != "" {
		return p.ID
	}
	return ExtractUUID(p.Meta.Href)
}

// FolderExternalID resolves the product's category folder UUID, or "".
func (p Product) FolderExternalID() string {
	if p.Folder == nil {
		return ""
	}
	return ExtractUUID(p.Folder.Meta.Href)
}

// SKU returns the product code, preferring the explicit code field.
func (p Product) SKU() string {
	if p.Code != "" {
		return p.Code
	}
	return p.Article
}

// Brand returns the value of the Brand custom attribute, or "".
func (p Product) Brand() string {
	for _, attr := range p.Attributes {
		if attr.Name != "Brand" && attr.Name != "Бренд" {
			continue
		}
		if s, ok := attr.Value.(string); ok {
			return s
		}
	}
	return ""
}

// ImageURLs returns the download links of the embedded images in their
// original order.
func (p Product) ImageURLs() []string {
	if p.Images == nil {
		return nil
	}
	urls := make([]string, 0, len(p.Images.Rows))
	for _, img := range p.Images.Rows {
		url := img.Meta.DownloadHref
		if url == "" {
			url = img.Meta.Href
		}
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

// StockRow is one line of the current-stock report.
type StockRow struct {
	AssortmentID string  `json:"assortmentId"`
	Stock        float64 `json:"stock"`
	Meta         *Meta   `json:"meta,omitempty"`
}

// ExternalID returns the assortment UUID the stock line belongs to.
func (r StockRow) ExternalID() string {
	if r.AssortmentID != "" {
		return r.AssortmentID
	}
	if r.Meta != nil {
		return ExtractUUID(r.Meta.Href)
	}
	return ""
}

// DefaultPriceTiers is the priority-ordered list of named price tiers a
// product price is resolved from. The first tier with a present, finite
// value wins.
var DefaultPriceTiers = []string{"Цена продажи", "Розничная цена", "Sale price"}

// ResolvePrice picks the product price from the given tier priority list and
// converts it from minor currency units. A result of 0 means "unpriced", not
// "free".
func ResolvePrice(p Product, tiers []string) float64 {
	if len(tiers) == 0 {
		tiers = DefaultPriceTiers
	}
	for _, tier := range tiers {
		for _, sp := range p.SalePrices {
			if sp.PriceType.Name != tier || sp.Value == nil {
				continue
			}
			v := *sp.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			return v / 100
		}
	}
	return 0
}

var trailingUUIDPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ExtractUUID pulls the trailing UUID out of an href-like reference string.
// Returns "" when the reference does not end with a UUID.
func ExtractUUID(href string) string {
	return trailingUUIDPattern.FindString(href)
}

// APIError is returned for any non-2xx MoySklad response. It aborts the sync
// run and surfaces the upstream status to the caller.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moysklad: upstream returned %d: %s", e.StatusCode, e.Body)
}
