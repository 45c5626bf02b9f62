package catalog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/sync"
	"bookcatalog/pkg/models"
)

type recorder struct {
	events chan sync.CatalogEvent
}

func (r *recorder) BroadcastJSON(v any) {
	if ev, ok := v.(sync.CatalogEvent); ok {
		r.events <- ev
	}
}

func (r *recorder) next(t *testing.T) sync.CatalogEvent {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return sync.CatalogEvent{}
	}
}

type listResp struct {
	Query string        `json:"query"`
	Total int           `json:"total"`
	Items []models.Book `json:"items"`
}

func newTestServer(t *testing.T, guard ...gin.HandlerFunc) (*gin.Engine, *Repo, *recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newRepo(t)
	pub := &recorder{events: make(chan sync.CatalogEvent, 8)}

	r := gin.New()
	NewHandler(repo, pub).RegisterRoutes(r.Group(""), guard...)
	return r, repo, pub
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandlerBrowse(t *testing.T) {
	r, _, _ := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[listResp](t, w)
	assert.Equal(t, 10, all.Total)
	assert.Equal(t, "1984", all.Items[0].Title)

	w = doJSON(r, http.MethodGet, "/books?genre=fantasy&sort=year&order=desc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"The Lord of the Rings", "The Hobbit"}, titles(decode[listResp](t, w).Items))

	w = doJSON(r, http.MethodGet, "/books?min_rating=4.4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"The Lord of the Rings"}, titles(decode[listResp](t, w).Items))
}

func TestHandlerBrowseRejectsBadOptions(t *testing.T) {
	r, _, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/books?order=sideways", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/books?sort=isbn", nil).Code)
}

func TestHandlerSearch(t *testing.T) {
	r, _, _ := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/books/search?q=tolkien", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[listResp](t, w)
	assert.Equal(t, "tolkien", res.Query)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"The Hobbit", "The Lord of the Rings"}, titles(res.Items))

	w = doJSON(r, http.MethodGet, "/books/search?q=+", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"q required"}`, w.Body.String())
}

func TestHandlerGetByID(t *testing.T) {
	r, _, _ := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/books/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "To Kill a Mockingbird", decode[models.Book](t, w).Title)

	w = doJSON(r, http.MethodGet, "/books/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/books/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/books/0", nil).Code)
}

func TestHandlerCreate(t *testing.T) {
	r, _, pub := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/books", gin.H{
		"title":  "  Dune ",
		"author": "Frank Herbert",
		"genre":  "Science Fiction",
		"year":   1965,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	b := decode[models.Book](t, w)
	assert.EqualValues(t, 11, b.ID)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, PlaceholderCover("Dune"), b.CoverURL)
	assert.Equal(t, "2024-03-01 12:30:00", b.AddedDate)

	ev := pub.next(t)
	assert.Equal(t, sync.EventBookCreated, ev.Type)
	assert.EqualValues(t, 11, ev.BookID)
	assert.Equal(t, "Dune", ev.Title)
}

func TestHandlerCreateValidation(t *testing.T) {
	r, repo, _ := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/books", gin.H{"title": "   ", "author": "Someone"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Error  string       `json:"error"`
		Fields []FieldError `json:"fields"`
	}](t, w)
	assert.Equal(t, "validation failed", body.Error)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "title", body.Fields[0].Field)
	assert.Equal(t, "title is required", body.Fields[0].Message)

	for _, bad := range []gin.H{
		{"title": "X", "author": "Y", "rating": 7},
		{"title": "X", "author": "Y", "year": 99},
		{"title": "X", "author": "Y", "pages": 0},
		{"title": "X"},
	} {
		assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/books", bad).Code, bad)
	}

	w = doJSON(r, http.MethodPost, "/books", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid json"}`, w.Body.String())

	assert.Len(t, mustList(t, repo), 10)
}

func TestHandlerUpdate(t *testing.T) {
	r, repo, pub := newTestServer(t)
	hobbit := findByTitle(t, repo, "The Hobbit")

	repo.Now = func() time.Time { return created.Add(time.Hour) }
	w := doJSON(r, http.MethodPut, "/books/"+itoa(hobbit.ID), gin.H{
		"title":     "The Hobbit, or There and Back Again",
		"author":    hobbit.Author,
		"cover_url": hobbit.CoverURL,
		"rating":    4.8,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	b := decode[models.Book](t, w)
	assert.Equal(t, "The Hobbit, or There and Back Again", b.Title)
	assert.Equal(t, 4.8, *b.Rating)
	assert.Equal(t, hobbit.AddedDate, b.AddedDate)
	assert.Equal(t, PlaceholderCover(b.Title), b.CoverURL)

	ev := pub.next(t)
	assert.Equal(t, sync.EventBookUpdated, ev.Type)
	assert.Equal(t, hobbit.ID, ev.BookID)

	w = doJSON(r, http.MethodPut, "/books/999", gin.H{"title": "X", "author": "Y"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerDelete(t *testing.T) {
	r, repo, pub := newTestServer(t)
	id := findByTitle(t, repo, "1984").ID

	w := doJSON(r, http.MethodDelete, "/books/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"deleted","id":`+itoa(id)+`}`, w.Body.String())

	ev := pub.next(t)
	assert.Equal(t, sync.EventBookDeleted, ev.Type)
	assert.Equal(t, id, ev.BookID)

	w = doJSON(r, http.MethodDelete, "/books/"+itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9, decode[models.Stats](t, w).TotalBooks)
}

func TestHandlerStatsAndGenres(t *testing.T) {
	r, _, _ := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[models.Stats](t, w)
	assert.Equal(t, 10, st.TotalBooks)
	assert.Equal(t, 9, st.TotalAuthors)
	assert.NotNil(t, st.AverageRating)

	w = doJSON(r, http.MethodGet, "/genres", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Genres, decode[struct {
		Items []string `json:"items"`
	}](t, w).Items)
}

func TestHandlerGuardCoversWritesOnly(t *testing.T) {
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
	}
	r, repo, _ := newTestServer(t, deny)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/books", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/books/1", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/books", gin.H{"title": "X", "author": "Y"}).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPut, "/books/1", gin.H{"title": "X", "author": "Y"}).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodDelete, "/books/1", nil).Code)
	assert.Len(t, mustList(t, repo), 10)
}

func TestHandlerStoreFailure(t *testing.T) {
	r, repo, _ := newTestServer(t)
	require.NoError(t, repo.DB.Close())

	w := doJSON(r, http.MethodGet, "/books", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"list failed"}`, w.Body.String())

	w = doJSON(r, http.MethodDelete, "/books/1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
