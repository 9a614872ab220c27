package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mediafeed/api/internal/feed"
	"mediafeed/api/internal/models"
)

// GetMedia serves both feed reads: a point lookup when id is present,
// a paginated slice otherwise.
func (h HandlerSet) GetMedia(c *gin.Context) {
	if idParam := c.Query("id"); idParam != "" {
		h.getMediaByID(c, idParam)
		return
	}

	query := feed.ListQuery{
		Page:     intQuery(c, "page", 0),
		PageSize: intQuery(c, "pageSize", h.cfg.Feed.DefaultPageSize),
	}
	if query.Page < 0 {
		query.Page = 0
	}
	if query.PageSize < 1 {
		query.PageSize = 1
	}
	if query.PageSize > h.cfg.Feed.MaxPageSize {
		query.PageSize = h.cfg.Feed.MaxPageSize
	}

	// Only the two known type tags act as filters; anything else is
	// ignored rather than rejected.
	if t := c.Query("type"); models.ValidMediaType(t) {
		query.Type = t
	}

	page, err := h.store.List(c.Request.Context(), query)
	if err != nil {
		h.log.Error().Err(err).Msg("feed list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch media"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h HandlerSet) getMediaByID(c *gin.Context, idParam string) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	item, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, feed.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
			return
		}
		h.log.Error().Err(err).Int64("media_id", id).Msg("feed lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch media"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// intQuery parses a numeric query parameter, falling back to the
// default for missing or malformed values.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
