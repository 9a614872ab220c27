package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediafeed/api/internal/generate"
)

// Client-facing failure messages. Anything more specific stays in the
// server logs.
const (
	msgInvalidRequest = "Invalid request parameters"
	msgGenerateFailed = "Failed to generate image. Please try again later."
)

func (h HandlerSet) GenerateImage(c *gin.Context) {
	var req generate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, generate.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenerateFailed})
		return
	}

	c.JSON(http.StatusOK, result)
}
