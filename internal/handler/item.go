package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/groceryhub/internal/auth"
	"github.com/dukerupert/groceryhub/internal/grocery"
	"github.com/dukerupert/groceryhub/internal/metrics"
	"github.com/dukerupert/groceryhub/internal/model"
	"github.com/dukerupert/groceryhub/internal/store"
)

type ItemHandler struct {
	items    *store.ItemStore
	metrics  *metrics.Metrics
	validate *validator.Validate
	logger   *slog.Logger
}

func NewItemHandler(is *store.ItemStore, m *metrics.Metrics, v *validator.Validate, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: is, metrics: m, validate: v, logger: logger}
}

// Item ids share the path segment with the batch routes under /items.
type addItemRequest struct {
	ID        string     `json:"id" validate:"omitempty,max=64,ne=purchased,ne=by-name"`
	Name      string     `json:"name" validate:"required,max=120"`
	Quantity  float64    `json:"quantity" validate:"gte=0"`
	Unit      string     `json:"unit" validate:"max=20"`
	Category  string     `json:"category" validate:"max=60"`
	Purchased bool       `json:"purchased"`
	DateAdded *time.Time `json:"date_added"`
}

type replaceItemsRequest struct {
	Items []addItemRequest `json:"items" validate:"max=1000,dive"`
}

// item applies the add defaults: quantity 1 and a guessed category.
func (req addItemRequest) item(addedBy string) model.GroceryItem {
	item := model.GroceryItem{
		ID:        req.ID,
		Name:      strings.TrimSpace(req.Name),
		Quantity:  req.Quantity,
		Unit:      strings.TrimSpace(req.Unit),
		Category:  strings.TrimSpace(req.Category),
		Purchased: req.Purchased,
		AddedBy:   addedBy,
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Category == "" {
		item.Category = grocery.Classify(item.Name)
	}
	if req.DateAdded != nil {
		item.DateAdded = *req.DateAdded
	}
	return item
}

type setPurchasedRequest struct {
	Name      string `json:"name" validate:"required"`
	Purchased bool   `json:"purchased"`
}

type toggleRequest struct {
	Name string `json:"name" validate:"required"`
}

type snapshotResponse struct {
	Items []model.GroceryItem `json:"items"`
	View  grocery.View        `json:"view"`
}

type countResponse struct {
	Affected int64 `json:"affected"`
}

// List returns the current items together with their aggregated view.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.Snapshot(r.PathValue("list_id"))
	if err != nil {
		writeStoreError(w, h.logger, "snapshot items", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Items: items, View: grocery.BuildView(items)})
}

// Add upserts an item. Quantity defaults to 1; a missing category is
// guessed from the name.
func (h *ItemHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	saved, err := h.items.Add(r.PathValue("list_id"), req.item(auth.Username(r.Context())))
	if err != nil {
		writeStoreError(w, h.logger, "add item", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("add").Inc()
	writeJSON(w, http.StatusCreated, saved)
}

// Replace swaps the whole list for the posted items in one step.
func (h *ItemHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req replaceItemsRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	addedBy := auth.Username(r.Context())
	items := make([]model.GroceryItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, it.item(addedBy))
	}

	saved, err := h.items.ReplaceAll(r.PathValue("list_id"), items)
	if err != nil {
		writeStoreError(w, h.logger, "replace items", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("replace").Inc()
	writeJSON(w, http.StatusOK, snapshotResponse{Items: saved, View: grocery.BuildView(saved)})
}

func (h *ItemHandler) SetPurchased(w http.ResponseWriter, r *http.Request) {
	var req setPurchasedRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	n, err := h.items.SetPurchasedByName(r.PathValue("list_id"), req.Name, req.Purchased)
	if err != nil {
		writeStoreError(w, h.logger, "set purchased", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("set_purchased").Inc()
	writeJSON(w, http.StatusOK, countResponse{Affected: n})
}

// Toggle flips the aggregated purchased flag of name: when every item of
// that name is purchased they all become unpurchased, otherwise they all
// become purchased.
func (h *ItemHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")
	var req toggleRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	items, err := h.items.Snapshot(listID)
	if err != nil {
		writeStoreError(w, h.logger, "snapshot items", err)
		return
	}
	var target *grocery.AggregatedItem
	aggregated := grocery.Aggregate(items)
	for i := range aggregated {
		if aggregated[i].Name == req.Name {
			target = &aggregated[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "item not found")
		return
	}

	purchased := !target.Purchased
	n, err := h.items.SetPurchasedByName(listID, req.Name, purchased)
	if err != nil {
		writeStoreError(w, h.logger, "toggle purchased", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("toggle").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"name": req.Name, "purchased": purchased, "affected": n})
}

func (h *ItemHandler) DeleteByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "name is required")
		return
	}
	n, err := h.items.DeleteByName(r.PathValue("list_id"), name)
	if err != nil {
		writeStoreError(w, h.logger, "delete by name", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("delete_by_name").Inc()
	writeJSON(w, http.StatusOK, countResponse{Affected: n})
}

func (h *ItemHandler) DeletePurchased(w http.ResponseWriter, r *http.Request) {
	n, err := h.items.DeletePurchased(r.PathValue("list_id"))
	if err != nil {
		writeStoreError(w, h.logger, "delete purchased", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("delete_purchased").Inc()
	writeJSON(w, http.StatusOK, countResponse{Affected: n})
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.items.Delete(r.PathValue("list_id"), r.PathValue("id")); err != nil {
		writeStoreError(w, h.logger, "delete item", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.items.DeleteAll(r.PathValue("list_id"))
	if err != nil {
		writeStoreError(w, h.logger, "delete all items", err)
		return
	}
	h.metrics.ItemMutations.WithLabelValues("delete_all").Inc()
	writeJSON(w, http.StatusOK, countResponse{Affected: n})
}
