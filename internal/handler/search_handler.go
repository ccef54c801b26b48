package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tasktracker/backend/internal/errors"
	"tasktracker/backend/internal/search"
)

type SearchHandler struct {
	index search.Index
}

func NewSearchHandler(index search.Index) *SearchHandler {
	return &SearchHandler{index: index}
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Search queries the full-text index over titles, descriptions and
// comment bodies. Results may lag recent writes.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if req.Query == "" {
		writeError(c, apperrors.BadRequest("invalid_query", "query is required"))
		return
	}
	if req.Limit < 1 || req.Limit > 1000 {
		req.Limit = 20
	}

	c.JSON(http.StatusOK, gin.H{"results": h.index.Search(req.Query, req.Limit)})
}
