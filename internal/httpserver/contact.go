package httpserver

import (
	"net/http"

	contactsvc "zaoconnect/internal/service/contact"
	"github.com/gin-gonic/gin"
)

func (h *handlers) submitContact(c *gin.Context) {
	var in contactsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	msg, err := h.contact.Submit(c.Request.Context(), in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "your message has been sent", "contact": msg})
}
