package orderControllers

import (
	"errors"
	"sort"

	"github.com/muhammadmasoud/amazon-clone/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxOrderLines = 50
	minQuantity   = 1
	maxQuantity   = 999
)

// OrderLine is one (product, quantity) entry of a submitted cart.
type OrderLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// LineItem is a validated line carrying the current catalog price and
// the frozen title/sku.
type LineItem struct {
	ProductID    uint
	ProductTitle string
	ProductSKU   string
	UnitPrice    decimal.Decimal
	Quantity     int
}

// ValidateOrderLines checks the shape of a submitted cart without
// touching the database: non-empty, at most 50 lines, no duplicate
// products, quantities within [1,999].
func ValidateOrderLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	if len(lines) > maxOrderLines {
		return ErrTooManyItems
	}
	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if seen[line.ProductID] {
			return ErrDuplicateProduct
		}
		seen[line.ProductID] = true
		if line.Quantity < minQuantity || line.Quantity > maxQuantity {
			return &InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity}
		}
	}
	return nil
}

// SnapshotCart validates submitted lines against the catalog and
// freezes the current price, title and sku into line items. It reads
// without locking; the assembler re-verifies stock under row locks
// before anything is written.
func SnapshotCart(db *gorm.DB, lines []OrderLine) ([]LineItem, error) {
	if err := ValidateOrderLines(lines); err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		var product models.Product
		if err := db.First(&product, "id = ?", line.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ProductNotFoundError{ProductID: line.ProductID}
			}
			return nil, err
		}
		if product.Stock < line.Quantity {
			return nil, &InsufficientStockError{
				ProductID: product.ID,
				Title:     product.Title,
				Available: product.Stock,
				Requested: line.Quantity,
			}
		}
		items = append(items, LineItem{
			ProductID:    product.ID,
			ProductTitle: product.Title,
			ProductSKU:   product.SKU,
			UnitPrice:    product.UnitPrice,
			Quantity:     line.Quantity,
		})
	}
	return items, nil
}

// sortItemsByProductID orders snapshot items ascending by product id
// so every transaction acquires product row locks in the same order.
func sortItemsByProductID(items []LineItem) []LineItem {
	sorted := make([]LineItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID < sorted[j].ProductID
	})
	return sorted
}
