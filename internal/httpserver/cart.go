package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	// Quantity is a pointer so an explicit zero (remove the line) survives
	// required-field binding.
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.logger.Printf("get cart: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

func (h *handlers) setCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and quantity required"})
		return
	}
	cart, err := h.carts.SetItem(c.Request.Context(), currentUser(c).ID, req.ProductID, *req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), currentUser(c).ID); err != nil {
		h.logger.Printf("clear cart: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
