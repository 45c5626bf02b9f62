package catalog

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/logging"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/sync"
	"bookcatalog/pkg/models"
)

// Publisher receives change events after successful mutations.
type Publisher interface {
	BroadcastJSON(v any)
}

type Handler struct {
	Repo *Repo
	Hub  Publisher
	log  *slog.Logger
}

func NewHandler(repo *Repo, hub Publisher) *Handler {
	return &Handler{Repo: repo, Hub: hub, log: logging.WithComponent("catalog")}
}

// RegisterRoutes mounts the catalog. guard runs in front of every mutating
// route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	rg.GET("/books", h.browse)
	rg.GET("/books/search", h.search)
	rg.GET("/books/:id", h.getByID)
	rg.GET("/stats", h.stats)
	rg.GET("/genres", h.genres)

	write := rg.Group("/books", guard...)
	write.POST("", h.create)
	write.PUT("/:id", h.update)
	write.DELETE("/:id", h.delete)
}

func (h *Handler) browse(c *gin.Context) {
	opts := BrowseOptions{
		Query:     c.Query("q"),
		Genre:     strings.TrimSpace(c.Query("genre")),
		Language:  strings.TrimSpace(c.Query("language")),
		YearFrom:  parseInt(c.Query("year_from"), 0),
		YearTo:    parseInt(c.Query("year_to"), 0),
		MinRating: parseFloat(c.Query("min_rating"), 0),
		SortBy:    strings.ToLower(strings.TrimSpace(c.Query("sort"))),
	}
	switch strings.ToLower(c.DefaultQuery("order", "asc")) {
	case "asc":
	case "desc":
		opts.Desc = true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be asc or desc"})
		return
	}
	if !ValidSortKey(opts.SortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be one of: title, author, year, rating, added_date"})
		return
	}

	all, err := h.Repo.ListAll(c.Request.Context())
	if err != nil {
		h.storeFailed(c, "list", err)
		return
	}

	items := Browse(all, opts)
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q required"})
		return
	}

	items, err := h.Repo.Search(c.Request.Context(), q)
	if err != nil {
		h.storeFailed(c, "search", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query": q,
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeFailed(c, "get", err)
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) create(c *gin.Context) {
	f, ok := bindBook(c)
	if !ok {
		return
	}
	f = withCover(f, nil)

	id, err := h.Repo.Add(c.Request.Context(), f)
	if err != nil {
		h.storeFailed(c, "add", err)
		return
	}

	b, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil || b == nil {
		h.storeFailed(c, "get", err)
		return
	}

	h.publish(sync.EventBookCreated, b.ID, b.Title)
	h.log.Info("book added", slog.Int64("id", b.ID), slog.String("title", b.Title))
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f, ok := bindBook(c)
	if !ok {
		return
	}

	prev, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeFailed(c, "get", err)
		return
	}
	if prev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	f = withCover(f, prev)

	updated, err := h.Repo.Update(c.Request.Context(), id, f)
	if err != nil {
		h.storeFailed(c, "update", err)
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	b, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil || b == nil {
		h.storeFailed(c, "get", err)
		return
	}

	h.publish(sync.EventBookUpdated, b.ID, b.Title)
	h.log.Info("book updated", slog.Int64("id", b.ID), slog.String("title", b.Title))
	c.JSON(http.StatusOK, b)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.storeFailed(c, "delete", err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.publish(sync.EventBookDeleted, id, "")
	h.log.Info("book deleted", slog.Int64("id", id))
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": id})
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Repo.Statistics(c.Request.Context())
	if err != nil {
		h.storeFailed(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) genres(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": Genres})
}

func (h *Handler) publish(kind string, id int64, title string) {
	if h.Hub == nil {
		return
	}
	go h.Hub.BroadcastJSON(sync.CatalogEvent{
		Type:   kind,
		BookID: id,
		Title:  title,
		At:     time.Now().UTC(),
	})
}

// storeFailed reports backing-store trouble to the caller without ending the
// process.
func (h *Handler) storeFailed(c *gin.Context, op string, err error) {
	metrics.StoreError(op)
	h.log.Error("store operation failed", slog.String("op", op), slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
}

func bindBook(c *gin.Context) (models.BookFields, bool) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields, ok := fieldErrors(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
			return models.BookFields{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return models.BookFields{}, false
	}
	return req.fields(), true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
