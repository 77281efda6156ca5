package httpapi

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.Health)

	// POST /content
	mux.HandleFunc("/content", h.RegisterUpload)

	// GET /content/{id}, POST /content/{id}/finish, POST /content/{id}/retry,
	// PATCH /content/{id}/status, GET /content/{id}/derivatives
	// Важно: trailing slash, чтобы handler мог TrimPrefix("/content/")
	mux.HandleFunc("/content/", h.ContentByID)

	return mux
}
