// Package api exposes the cached LVR views over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"brontes-lvr/internal/lvr"
	"brontes-lvr/internal/observability"
)

// Handler serves the LVR read views. Every data endpoint triggers a
// refresh attempt through the service before deriving its response;
// refresh failures degrade to the cached snapshot, so the only
// user-visible errors are a bad page number and an empty median cache.
type Handler struct {
	service *lvr.Service
	origin  string
	logger  *log.Logger
	started time.Time
}

// HandlerOptions contains configuration for creating a Handler.
type HandlerOptions struct {
	// Service is the LVR cache service. Required.
	Service *lvr.Service

	// AllowedOrigin is the CORS origin of the dashboard frontend
	// (default http://localhost:3000).
	AllowedOrigin string

	Logger *log.Logger
}

// NewHandler creates a new Handler.
func NewHandler(opts HandlerOptions) *Handler {
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "http://localhost:3000"
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		service: opts.Service,
		origin:  origin,
		logger:  logger,
		started: time.Now(),
	}
}

// Routes registers all endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/lvr_table", h.cors(h.handleTable))
	mux.HandleFunc("/lvr_running_total", h.cors(h.handleRunningTotal))
	mux.HandleFunc("/median_lvr", h.cors(h.handleMedian))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", h.handleStatus)
	mux.Handle("/metrics", observability.Handler())
}

// cors sets the response headers the dashboard origin needs and answers
// preflight requests directly.
func (h *Handler) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,PUT,POST,DELETE,OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

type tableRow struct {
	BlockNumber uint64  `json:"block_number"`
	TotalLVR    float64 `json:"total_lvr"`
}

type tableResponse struct {
	Data             []tableRow `json:"data"`
	TotalPages       int        `json:"total_pages"`
	CurrentPage      int        `json:"current_page"`
	LastQueriedBlock uint64     `json:"last_queried_block"`
}

// handleTable serves GET /lvr_table?page=N.
func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, "Invalid page number")
			return
		}
		page = parsed
	}

	result, err := h.service.TablePage(r.Context(), page)
	if err != nil {
		if errors.Is(err, lvr.ErrInvalidPage) {
			h.writeError(w, r, http.StatusBadRequest, "Invalid page number")
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	rows := make([]tableRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, tableRow{BlockNumber: row.BlockNumber, TotalLVR: row.TotalLVR})
	}

	h.writeJSON(w, r, http.StatusOK, tableResponse{
		Data:             rows,
		TotalPages:       result.TotalPages,
		CurrentPage:      result.CurrentPage,
		LastQueriedBlock: result.LastQueriedBlock,
	})
}

// handleRunningTotal serves GET /lvr_running_total.
func (h *Handler) handleRunningTotal(w http.ResponseWriter, r *http.Request) {
	points := h.service.RunningTotal(r.Context())
	h.writeJSON(w, r, http.StatusOK, points)
}

type medianRow struct {
	PoolAddress string  `json:"pool_address"`
	MedianLVR   float64 `json:"median_lvr"`
}

// handleMedian serves GET /median_lvr.
func (h *Handler) handleMedian(w http.ResponseWriter, r *http.Request) {
	medians, err := h.service.Medians(r.Context())
	if err != nil {
		if errors.Is(err, lvr.ErrNoData) {
			h.writeError(w, r, http.StatusInternalServerError, "No median LVR data available")
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	rows := make([]medianRow, 0, len(medians))
	for pool, median := range medians {
		rows = append(rows, medianRow{PoolAddress: pool, MedianLVR: median})
	}

	h.writeJSON(w, r, http.StatusOK, rows)
}

type statusResponse struct {
	Status string     `json:"status"`
	Uptime string     `json:"uptime"`
	Caches lvr.Status `json:"caches"`
}

// handleStatus serves GET /status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, statusResponse{
		Status: "running",
		Uptime: time.Since(h.started).String(),
		Caches: h.service.Status(),
	})
}

// writeJSON writes v as a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Printf("write response for %s: %v", r.URL.Path, err)
	}
	observability.RecordHTTPRequest(r.URL.Path, status)
}

// writeError writes the {"error": ...} body the dashboard expects.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, map[string]string{"error": msg})
}
