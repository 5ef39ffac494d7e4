package httpserver

import (
	"errors"
	"net/http"

	"zaoconnect/internal/domain"
	"github.com/gin-gonic/gin"
)

func (h *handlers) adminDashboard(c *gin.Context) {
	if !requireStaff(c, currentUser(c)) {
		return
	}
	d, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		h.logger.Printf("admin dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) adminUsers(c *gin.Context) {
	if !requireStaff(c, currentUser(c)) {
		return
	}
	page, limit := pageQuery(c)
	users, err := h.admin.Users(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Printf("admin users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "page": page})
}

func (h *handlers) adminUserDetail(c *gin.Context) {
	if !requireStaff(c, currentUser(c)) {
		return
	}
	detail, err := h.admin.UserDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Printf("admin user detail %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *handlers) adminMessages(c *gin.Context) {
	if !requireStaff(c, currentUser(c)) {
		return
	}
	page, limit := pageQuery(c)
	if limit <= 0 {
		limit = 20
	}
	messages, err := h.contact.Recent(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		h.logger.Printf("admin messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	if messages == nil {
		messages = []domain.ContactMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "page": page})
}
