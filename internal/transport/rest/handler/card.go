package handler

import (
	"net/http"

	"bingohall/internal/bingo"
)

// CardHandler serves the card catalog
type CardHandler struct {
	catalog *bingo.Catalog
}

// NewCardHandler creates a new card handler
func NewCardHandler(catalog *bingo.Catalog) *CardHandler {
	return &CardHandler{catalog: catalog}
}

// List handles GET /v1/cards
// @Summary List the card catalog
// @Tags cards
// @Router /cards [get]
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Cards())
}
