package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"picturebook/internal/models"
	"picturebook/internal/storage"
)

// initDataMaxAge is how long a signed Telegram initData stays valid
const initDataMaxAge = 24 * time.Hour

// HTTPServer serves the JSON API over the catalog
type HTTPServer struct {
	bot         *Bot
	webhookMode bool // If false (polling mode), skip authentication for easier local dev
	now         func() time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(bot *Bot, webhookMode bool) *HTTPServer {
	return &HTTPServer{
		bot:         bot,
		webhookMode: webhookMode,
		now:         time.Now,
	}
}

// RegisterRoutes registers API routes on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", hs.authMiddleware(hs.handleListBooks))
	mux.HandleFunc("POST /api/books", hs.authMiddleware(hs.handleCreateBook))
	mux.HandleFunc("GET /api/books/{id}", hs.authMiddleware(hs.handleGetBook))
	mux.HandleFunc("POST /api/books/{id}/favorite", hs.authMiddleware(hs.handleToggleFavorite))
	mux.HandleFunc("POST /api/books/{id}/read", hs.authMiddleware(hs.handleRecordRead))
}

// validateTelegramInitData validates the Telegram Mini App initData
func (hs *HTTPServer) validateTelegramInitData(initData string) (int64, error) {
	if initData == "" {
		return 0, fmt.Errorf("missing initData")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("invalid initData format: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("missing hash in initData")
	}
	values.Del("hash")

	if !hmac.Equal([]byte(signInitData(hs.bot.token, values)), []byte(hash)) {
		return 0, fmt.Errorf("invalid hash")
	}

	authDateStr := values.Get("auth_date")
	if authDateStr == "" {
		return 0, fmt.Errorf("missing auth_date")
	}
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid auth_date: %w", err)
	}
	if hs.now().Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return 0, fmt.Errorf("initData is too old")
	}

	userStr := values.Get("user")
	if userStr == "" {
		return 0, fmt.Errorf("missing user data")
	}

	var userData struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userStr), &userData); err != nil {
		return 0, fmt.Errorf("invalid user data: %w", err)
	}

	if !hs.bot.allowedUsers[userData.ID] {
		return 0, fmt.Errorf("user not allowed")
	}

	return userData.ID, nil
}

// signInitData computes the hex HMAC Telegram attaches to initData: the
// sorted key=value lines signed with a key derived from the bot token
func signInitData(token string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheckString strings.Builder
	for i, k := range keys {
		if i > 0 {
			dataCheckString.WriteByte('\n')
		}
		dataCheckString.WriteString(k)
		dataCheckString.WriteByte('=')
		dataCheckString.WriteString(values.Get(k))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(token))
	secret := secretKey.Sum(nil)

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(dataCheckString.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// authMiddleware validates Telegram Mini App authentication
// In polling mode (webhookMode=false), authentication is skipped for easier local development
func (hs *HTTPServer) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hs.webhookMode {
			hs.bot.logger.Debug("Skipping authentication (polling mode)",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "tma ") {
			hs.bot.logger.Warn("Missing or invalid authorization header")
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := hs.validateTelegramInitData(strings.TrimPrefix(authHeader, "tma "))
		if err != nil {
			hs.bot.logger.Warn("Failed to validate initData",
				zap.Error(err),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		hs.bot.logger.Debug("Authenticated request",
			zap.Int64("user_id", userID),
			zap.String("path", r.URL.Path),
		)

		next(w, r)
	}
}

// handleListBooks returns the shelf listing for ?filter=all|favorites
func (hs *HTTPServer) handleListBooks(w http.ResponseWriter, r *http.Request) {
	filter, ok := models.ParseFilter(r.URL.Query().Get("filter"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Unknown filter")
		return
	}

	books := hs.bot.catalog.List(filter)
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

// handleGetBook returns one book
func (hs *HTTPServer) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := hs.bot.catalog.Get(r.PathValue("id"))
	if err != nil {
		hs.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// CreateBookRequest represents the request body for creating a book
type CreateBookRequest struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	CoverImageName string `json:"cover_image_name"`
}

// maxRequestBody caps JSON request bodies
const maxRequestBody = 1 << 20

// handleCreateBook adds a book; an id is generated when none is given
func (hs *HTTPServer) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		hs.bot.logger.Warn("Failed to decode request body", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = hs.bot.newID()
	}

	book, err := hs.bot.catalog.Create(r.Context(), id, req.Title, req.CoverImageName)
	if err != nil {
		hs.writeCatalogError(w, err)
		return
	}

	hs.bot.logger.Info("Book created via API",
		zap.String("book_id", book.ID),
		zap.String("title", book.Title),
	)
	writeJSON(w, http.StatusCreated, book)
}

// handleToggleFavorite flips the favorite flag of a book
func (hs *HTTPServer) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	book, err := hs.bot.catalog.ToggleFavorite(r.Context(), r.PathValue("id"))
	if err != nil {
		hs.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// handleRecordRead records one read of a book
func (hs *HTTPServer) handleRecordRead(w http.ResponseWriter, r *http.Request) {
	book, err := hs.bot.catalog.IncrementReadCount(r.Context(), r.PathValue("id"))
	if err != nil {
		hs.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// writeCatalogError maps catalog errors onto status codes
func (hs *HTTPServer) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, storage.ErrDuplicateID):
		writeJSONError(w, http.StatusConflict, "Book id already exists")
	case errors.Is(err, storage.ErrInvalidBook):
		writeJSONError(w, http.StatusBadRequest, "Book id and title are required")
	default:
		hs.bot.logger.Error("Catalog request failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Failed to update the library")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
