package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/domain/search"
)

// SearchService is the product search behind the search endpoints
type SearchService interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error)
	Reindex(ctx context.Context) (int, error)
}

// SearchHandler handles search endpoints
type SearchHandler struct {
	search SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search handles GET /search?q=&category=&brand=&minPrice=&maxPrice=&page=&size=
func (h *SearchHandler) Search(c *gin.Context) {
	q := search.Query{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
	}

	var ok bool
	if q.MinPrice, ok = queryPrice(c, "minPrice"); !ok {
		return
	}
	if q.MaxPrice, ok = queryPrice(c, "maxPrice"); !ok {
		return
	}
	if q.Page, ok = queryInt(c, "page", 0); !ok {
		return
	}
	if q.Size, ok = queryInt(c, "size", 0); !ok {
		return
	}

	result, err := h.search.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Search completed successfully", result)
}

// Autocomplete handles GET /search/autocomplete?prefix=&limit=
func (h *SearchHandler) Autocomplete(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	suggestions, err := h.search.Autocomplete(c.Request.Context(), c.Query("prefix"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Suggestions retrieved successfully", suggestions)
}

// Reindex handles POST /search/reindex (admin)
func (h *SearchHandler) Reindex(c *gin.Context) {
	indexed, err := h.search.Reindex(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Reindex completed successfully", gin.H{"indexed": indexed})
}

func queryPrice(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		badRequest(c, "Invalid "+name, nil)
		return nil, false
	}
	return &v, true
}
