package handler

import (
	"net/http"

	"github.com/dukerupert/groceryhub/internal/grocery"
)

// Catalog serves the predefined categories and their suggested items.
func Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": grocery.Catalog})
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
