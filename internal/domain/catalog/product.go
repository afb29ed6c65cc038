package catalog

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Product represents a sellable catalog item
type Product struct {
	shared.BaseAggregateRoot
	SKU          string           `json:"sku"`
	Name         string           `json:"name"`
	Slug         string           `gorm:"uniqueIndex" json:"slug"`
	Description  string           `json:"description"`
	Brand        string           `json:"brand"`
	CategoryID   *uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Category     *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Price        decimal.Decimal  `gorm:"type:decimal(12,2)" json:"price"`
	ComparePrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"compare_price,omitempty"`
	StockQty     int              `json:"stock_qty"`
	IsActive     bool             `json:"is_active"`
	Featured     bool             `json:"featured"`
}

// NewProduct creates a new active product
func NewProduct(sku, name string, price decimal.Decimal) (*Product, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Slug:              Slugify(name),
		Price:             price,
		IsActive:          true,
	}, nil
}

// UpdatePrice changes the selling price
func (p *Product) UpdatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

// Rename changes the product name and regenerates the slug
func (p *Product) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	p.Name = name
	p.Slug = Slugify(name)
	p.UpdatedAt = time.Now()
	return nil
}

// AdjustStock applies a stock delta, refusing to go negative
func (p *Product) AdjustStock(delta int) error {
	if p.StockQty+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	}
	p.StockQty += delta
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate hides the product from the storefront
func (p *Product) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
}

// Activate makes the product visible on the storefront
func (p *Product) Activate() {
	p.IsActive = true
	p.UpdatedAt = time.Now()
}

// InStock reports whether the product can be ordered
func (p *Product) InStock() bool {
	return p.IsActive && p.StockQty > 0
}

// Slugify converts a display name to a URL slug. Diacritics are stripped
// (Vietnamese product names are common), everything non-alphanumeric
// collapses to single dashes.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, name)
	if err != nil {
		normalized = name
	}

	// đ survives NFD decomposition
	normalized = strings.NewReplacer("đ", "d", "Đ", "D").Replace(normalized)

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(normalized) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
