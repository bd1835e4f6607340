package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/eugenenazirov/opticalc/internal/knapsack"
	"github.com/eugenenazirov/opticalc/internal/planner"
	"github.com/eugenenazirov/opticalc/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	maxBodyBytes     = 1 << 20
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Handler wires the planner and catalog storage into HTTP handlers.
type Handler struct {
	planner *planner.Service
	storage storage.Storage

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(svc *planner.Service, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner: svc,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.storage.ListItems(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items, Count: len(items)})
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}

	stored, err := h.storage.AddItem(r.Context(), item)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}

	stored, err := h.storage.UpdateItem(r.Context(), r.PathValue("id"), item)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearItems(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.ClearItems(r.Context()); err != nil {
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Budget == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "budget is required")
		return
	}
	budget, err := knapsack.NormalizeBudget(*req.Budget)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	mode, err := knapsack.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	var items []knapsack.Item
	if req.Items != nil {
		items = make([]knapsack.Item, 0, len(req.Items))
		for idx, raw := range req.Items {
			item, err := raw.toItem()
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid item", fmt.Sprintf("items[%d]: %v", idx, err))
				return
			}
			items = append(items, item)
		}
	}

	outcome, err := h.planner.Optimize(r.Context(), planner.Request{Mode: mode, Budget: budget, Items: items})
	if err != nil {
		switch {
		case errors.Is(err, knapsack.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		case errors.Is(err, knapsack.ErrCapacityTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Problem too large", err.Error(),
				"Reduce the budget or the number of items and try again")
		case errors.Is(err, planner.ErrNoItems):
			writeError(w, http.StatusUnprocessableEntity, "Nothing to optimize", err.Error(),
				"Add items to the catalog or include them in the request")
		default:
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, newOptimizeResponse(outcome))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid request", "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	runs, err := h.planner.History(r.Context(), limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs, Count: len(runs)})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return false
	}
	return true
}

func decodeItem(w http.ResponseWriter, r *http.Request) (knapsack.Item, bool) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return knapsack.Item{}, false
	}
	item, err := req.toItem()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item", err.Error())
		return knapsack.Item{}, false
	}
	return item, true
}

func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "Invalid item", err.Error())
	case errors.Is(err, storage.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, storage.ErrCatalogFull):
		writeError(w, http.StatusConflict, "Catalog full", err.Error(), "Remove items you no longer consider before adding new ones")
	default:
		writeInternalError(w, err)
	}
}

type itemRequest struct {
	Name      string   `json:"name"`
	Cost      *float64 `json:"cost"`
	SellPrice *float64 `json:"sellPrice"`
}

func (r itemRequest) toItem() (knapsack.Item, error) {
	if r.Cost == nil || r.SellPrice == nil {
		return knapsack.Item{}, errors.New("cost and sellPrice are required")
	}
	return knapsack.NewItemFromAmounts(r.Name, *r.Cost, *r.SellPrice)
}

type optimizeRequest struct {
	Budget *float64      `json:"budget"`
	Mode   string        `json:"mode"`
	Items  []itemRequest `json:"items,omitempty"`
}

// planEntryResponse omits the unit fields when the row merges same-name items
// bought at different prices.
type planEntryResponse struct {
	Name          string `json:"name"`
	UnitCost      *int   `json:"unitCost,omitempty"`
	UnitSellPrice *int   `json:"unitSellPrice,omitempty"`
	UnitProfit    *int   `json:"unitProfit,omitempty"`
	Quantity      int    `json:"quantity"`
	TotalCost     int    `json:"totalCost"`
	TotalProfit   int    `json:"totalProfit"`
}

func newPlanEntryResponse(entry knapsack.PlanEntry) planEntryResponse {
	resp := planEntryResponse{
		Name:        entry.Item.Name,
		Quantity:    entry.Quantity,
		TotalCost:   entry.TotalCost,
		TotalProfit: entry.TotalProfit,
	}
	item := entry.Item
	if item.Cost*entry.Quantity != entry.TotalCost || item.Profit()*entry.Quantity != entry.TotalProfit {
		return resp
	}
	cost, sell, profit := item.Cost, item.SellPrice, item.Profit()
	resp.UnitCost = &cost
	resp.UnitSellPrice = &sell
	resp.UnitProfit = &profit
	return resp
}

type optimizeResponse struct {
	Mode              knapsack.Mode       `json:"mode"`
	Budget            int                 `json:"budget"`
	TotalProfit       int                 `json:"totalProfit"`
	TotalCost         int                 `json:"totalCost"`
	Remaining         int                 `json:"remaining"`
	ROI               float64             `json:"roi"`
	Units             int                 `json:"units"`
	Plan              []planEntryResponse `json:"plan"`
	Cached            bool                `json:"cached"`
	RunID             string              `json:"runId,omitempty"`
	CalculationTimeMs int64               `json:"calculationTimeMs"`
}

func newOptimizeResponse(out planner.Outcome) optimizeResponse {
	res := out.Result
	plan := make([]planEntryResponse, 0, len(res.Plan))
	for _, entry := range res.Plan {
		plan = append(plan, newPlanEntryResponse(entry))
	}
	return optimizeResponse{
		Mode:              res.Mode,
		Budget:            res.Budget,
		TotalProfit:       res.TotalProfit,
		TotalCost:         res.TotalCost(),
		Remaining:         res.Remaining(),
		ROI:               math.Round(res.ROI()*100) / 100,
		Units:             res.Units(),
		Plan:              plan,
		Cached:            out.Cached,
		RunID:             out.RunID,
		CalculationTimeMs: out.Elapsed.Milliseconds(),
	}
}

type itemsResponse struct {
	Items []storage.CatalogItem `json:"items"`
	Count int                   `json:"count"`
}

type runsResponse struct {
	Runs  []storage.Run `json:"runs"`
	Count int           `json:"count"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
