package httpserver

import (
	"errors"
	"io"
	"net/http"

	"zaoconnect/internal/domain"
	"zaoconnect/internal/mpesa"
	checkoutsvc "zaoconnect/internal/service/checkout"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxCallbackBytes bounds the provider callback body.
const maxCallbackBytes = 1 << 20

type initiateRequest struct {
	PhoneNumber string          `json:"phone_number" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

func (h *handlers) initiateCheckout(c *gin.Context) {
	u := currentUser(c)
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phone_number and amount required"})
		return
	}

	res, err := h.checkout.Initiate(c.Request.Context(), u.ID, req.PhoneNumber, req.Amount)
	if err != nil {
		var gwErr *checkoutsvc.GatewayError
		switch {
		case errors.As(err, &gwErr):
			c.JSON(http.StatusBadGateway, gin.H{
				"success":  false,
				"error":    "payment could not be started, please try again",
				"order_id": gwErr.OrderID,
			})
		case errors.Is(err, checkoutsvc.ErrEmptyCart),
			errors.Is(err, checkoutsvc.ErrAmountMismatch),
			errors.Is(err, mpesa.ErrInvalidPhone),
			errors.Is(err, mpesa.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		default:
			h.logger.Printf("initiate checkout for %s: %v", u.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not start payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"order_id":            res.OrderID,
		"checkout_request_id": res.CheckoutRequestID,
		"customer_message":    res.CustomerMessage,
	})
}

// paymentCallback receives the provider's settlement report. The response
// is always the provider's own acknowledgement envelope; anything else
// makes Daraja retry or, worse, give up silently.
func (h *handlers) paymentCallback(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBytes))
	if err != nil {
		h.logger.Printf("payment callback: read body: %v", err)
		payload = nil
	}
	h.checkout.Reconcile(c.Request.Context(), payload)
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func (h *handlers) checkoutStatus(c *gin.Context) {
	u := currentUser(c)
	ord, err := h.checkout.Status(c.Request.Context(), u.ID, c.Param("checkout_request_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		h.logger.Printf("checkout status for %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         ord.Status,
		"order_id":       ord.ID,
		"receipt_number": ord.MpesaReceiptNumber,
	})
}

func (h *handlers) listOrders(c *gin.Context) {
	u := currentUser(c)
	page, limit := pageQuery(c)
	if limit <= 0 {
		limit = 20
	}
	orders, err := h.checkout.Orders(c.Request.Context(), u.ID, limit, (page-1)*limit)
	if err != nil {
		h.logger.Printf("orders for %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load orders"})
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page})
}
