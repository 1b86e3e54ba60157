package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"picturebook/internal/catalog"
	"picturebook/internal/models"
	"picturebook/internal/storage/stubs"
)

func newTestAPI(t *testing.T, webhookMode bool) (*HTTPServer, *http.ServeMux) {
	t.Helper()
	bot, _ := newTestBot(t)
	hs := NewHTTPServer(bot, webhookMode)
	mux := http.NewServeMux()
	hs.RegisterRoutes(mux)
	return hs, mux
}

func doRequest(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBooks(t *testing.T, rec *httptest.ResponseRecorder) []models.Book {
	t.Helper()
	var books []models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
	return books
}

func TestHTTP_ListBooks(t *testing.T) {
	_, mux := newTestAPI(t, false)

	rec := doRequest(mux, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	books := decodeBooks(t, rec)
	require.Len(t, books, 6)
	assert.Equal(t, "book_001", books[0].ID)
	assert.Equal(t, "book_006", books[5].ID)

	rec = doRequest(mux, http.MethodGet, "/api/books?filter=favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = doRequest(mux, http.MethodGet, "/api/books?filter=unread", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_CreateBookRejectsOversizedBody(t *testing.T) {
	hs, mux := newTestAPI(t, false)

	body := `{"title":"` + strings.Repeat("a", maxRequestBody) + `"}`
	rec := doRequest(mux, http.MethodPost, "/api/books", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 6, hs.bot.catalog.Len())
}

func TestHTTP_CreateBook(t *testing.T) {
	_, mux := newTestAPI(t, false)

	rec := doRequest(mux, http.MethodPost, "/api/books", `{"title":"The Grateful Crane","cover_image_name":"tsuru"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var book models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.Equal(t, "generated-1", book.ID)
	assert.Equal(t, "The Grateful Crane", book.Title)
	assert.Equal(t, 0, book.ReadCount)
	assert.False(t, book.IsFavorite)

	rec = doRequest(mux, http.MethodPost, "/api/books", `{"id":"book_001","title":"Again"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(mux, http.MethodPost, "/api/books", `{"id":"x","title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(mux, http.MethodPost, "/api/books", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	books := decodeBooks(t, doRequest(mux, http.MethodGet, "/api/books", ""))
	require.Len(t, books, 7)
	assert.Equal(t, "generated-1", books[0].ID)
}

func TestHTTP_FavoriteAndRead(t *testing.T) {
	_, mux := newTestAPI(t, false)

	rec := doRequest(mux, http.MethodPost, "/api/books/book_003/favorite", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var book models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.True(t, book.IsFavorite)

	for i := 0; i < 2; i++ {
		rec = doRequest(mux, http.MethodPost, "/api/books/book_003/read", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.Equal(t, 2, book.ReadCount)
	assert.NotNil(t, book.LastReadAt)

	favorites := decodeBooks(t, doRequest(mux, http.MethodGet, "/api/books?filter=favorites", ""))
	require.Len(t, favorites, 1)
	assert.Equal(t, "book_003", favorites[0].ID)

	rec = doRequest(mux, http.MethodGet, "/api/books/book_003", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, doRequest(mux, http.MethodPost, "/api/books/missing/favorite", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(mux, http.MethodPost, "/api/books/missing/read", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(mux, http.MethodGet, "/api/books/missing", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(mux, http.MethodDelete, "/api/books/book_003", "").Code)
}

func TestHTTP_PersistenceFailure(t *testing.T) {
	hs, mux := newTestAPI(t, false)

	db := stubs.NewMockDB()
	db.FailWrites = true
	hs.bot.catalog = catalog.New(db, zap.NewNop())

	rec := doRequest(mux, http.MethodPost, "/api/books", `{"title":"Momotaro"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to update the library")
}

func signedInitData(token string, userID int64, authDate time.Time) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Test"}`)
	values.Set("hash", signInitData(token, values))
	return values.Encode()
}

func TestHTTP_Authentication(t *testing.T) {
	hs, mux := newTestAPI(t, true)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hs.now = func() time.Time { return now }

	get := func(auth string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, get(""))
	assert.Equal(t, http.StatusUnauthorized, get("Bearer abc"))
	assert.Equal(t, http.StatusOK, get("tma "+signedInitData("test-token", testUserID, now.Add(-time.Hour))))
	assert.Equal(t, http.StatusUnauthorized, get("tma "+signedInitData("other-token", testUserID, now)), "wrong signature")
	assert.Equal(t, http.StatusUnauthorized, get("tma "+signedInitData("test-token", 999, now)), "user not allowed")
	assert.Equal(t, http.StatusUnauthorized, get("tma "+signedInitData("test-token", testUserID, now.Add(-25*time.Hour))), "expired")
}
