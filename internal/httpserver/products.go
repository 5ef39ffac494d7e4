package httpserver

import (
	"errors"
	"net/http"

	"zaoconnect/internal/domain"
	productsvc "zaoconnect/internal/service/product"
	"github.com/gin-gonic/gin"
)

func (h *handlers) listProducts(c *gin.Context) {
	page, limit := pageQuery(c)
	products, err := h.products.PublicList(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		h.logger.Printf("list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load products"})
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "page": page})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Printf("get product %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *handlers) sellerProducts(c *gin.Context) {
	u := currentUser(c)
	if !requireRole(c, u, domain.RoleSeller) {
		return
	}
	page, limit := pageQuery(c)
	if limit <= 0 {
		limit = productsvc.DefaultPageSize
	}
	products, err := h.products.ListForSeller(c.Request.Context(), u.ID, limit, (page-1)*limit)
	if err != nil {
		h.logger.Printf("seller products for %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load products"})
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "page": page})
}

func (h *handlers) createProduct(c *gin.Context) {
	u := currentUser(c)
	if !requireRole(c, u, domain.RoleSeller) {
		return
	}
	var in productsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := h.products.Create(c.Request.Context(), u, in)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "a product with that name already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *handlers) updateProduct(c *gin.Context) {
	u := currentUser(c)
	if !requireRole(c, u, domain.RoleSeller) {
		return
	}
	var in productsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := h.products.Update(c.Request.Context(), u, c.Param("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, domain.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "a product with that name already exists"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *handlers) deleteProduct(c *gin.Context) {
	u := currentUser(c)
	if !requireRole(c, u, domain.RoleSeller) {
		return
	}
	if err := h.products.Delete(c.Request.Context(), u, c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Printf("delete product %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
