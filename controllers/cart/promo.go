package cartControllers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/muhammadmasoud/amazon-clone/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Promo rules: a single percentage code with a minimum-subtotal gate.
// PROMO_CODE, PROMO_PERCENT and PROMO_MIN_SUBTOTAL override the
// defaults (SAVE10, 10% off, $50 minimum).
type promoRule struct {
	Code        string
	Percent     decimal.Decimal
	MinSubtotal decimal.Decimal
}

func promoFromEnv() promoRule {
	rule := promoRule{
		Code:        "SAVE10",
		Percent:     decimal.NewFromInt(10),
		MinSubtotal: decimal.NewFromInt(50),
	}
	if v := os.Getenv("PROMO_CODE"); v != "" {
		rule.Code = v
	}
	if v := os.Getenv("PROMO_PERCENT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			rule.Percent = d
		}
	}
	if v := os.Getenv("PROMO_MIN_SUBTOTAL"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			rule.MinSubtotal = d
		}
	}
	return rule
}

// POST /cart/promo
func ApplyPromoCode(db *gorm.DB) gin.HandlerFunc {
	rule := promoFromEnv()
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var input struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if !strings.EqualFold(input.Code, rule.Code) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid promo code"})
			return
		}

		cart, err := getOrCreateCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		subtotal := decimal.Zero
		for _, item := range cart.Items {
			subtotal = subtotal.Add(item.Subtotal())
		}
		if subtotal.LessThan(rule.MinSubtotal) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Cart subtotal must be at least $" + rule.MinSubtotal.StringFixed(2) + " to use this code",
			})
			return
		}

		cart.PromoCode = rule.Code
		cart.DiscountAmount = subtotal.Mul(rule.Percent).Div(decimal.NewFromInt(100)).Round(2)
		if err := db.Save(cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply promo code"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":         "Promo code applied",
			"promo_code":      cart.PromoCode,
			"discount_amount": cart.DiscountAmount,
		})
	}
}

// DELETE /cart/promo
func RemovePromoCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User cart not found"})
			return
		}

		cart.PromoCode = ""
		cart.DiscountAmount = decimal.Zero
		if err := db.Save(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove promo code"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Promo code removed"})
	}
}
