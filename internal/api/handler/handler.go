package handler

import "cardmeet/backend/internal/storage"

// Handler holds the dependencies shared by all HTTP endpoints.
type Handler struct {
	Storage storage.Storage
}

func NewHandler(s storage.Storage) *Handler {
	return &Handler{Storage: s}
}
