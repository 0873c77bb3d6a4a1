// Package api implements the HTTP handlers for the vacancy service.
//
// Routes:
//
//	GET  /health                      → liveness
//	POST /schema                      → create tables if absent
//	POST /vacancies/ingest            → ingest {"items": [...]}
//	GET  /companies                   → company name + vacancies_count
//	GET  /vacancies[?keyword=...]     → all vacancies, or keyword search
//	GET  /vacancies/average-salary    → mean salary
//	GET  /vacancies/above-average     → vacancies paid above the mean
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/logger"
	"jobmate/vacancy-service/internal/model"
)

const maxIngestBody = 10 << 20

// Store is the query surface the handlers need.
type Store interface {
	CreateSchema(ctx context.Context) error
	Ingest(ctx context.Context, records []model.VacancyRecord) (model.IngestStats, error)
	CompanyVacancyCounts(ctx context.Context) ([]model.CompanyCount, error)
	AllVacancies(ctx context.Context) ([]model.VacancyRow, error)
	AverageSalary(ctx context.Context) (float64, bool, error)
	AboveAverageSalary(ctx context.Context) ([]model.VacancyRow, error)
	SearchByKeyword(ctx context.Context, keyword string) ([]model.VacancyRow, error)
}

// Notifier is told about ingests made through the API.
type Notifier interface {
	Ingested(ctx context.Context, source string, employerID int64, stats model.IngestStats)
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	store    Store
	notifier Notifier
	version  string
	log      zerolog.Logger
}

// NewHandler returns a configured Handler. notifier may be nil.
func NewHandler(store Store, notifier Notifier, version string, log zerolog.Logger) *Handler {
	return &Handler{store: store, notifier: notifier, version: version, log: logger.Component(log, "api")}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.method(http.MethodGet, h.health))
	mux.HandleFunc("/schema", h.method(http.MethodPost, h.createSchema))
	mux.HandleFunc("/companies", h.method(http.MethodGet, h.companyCounts))
	mux.HandleFunc("/vacancies", h.method(http.MethodGet, h.vacancies))
	mux.HandleFunc("/vacancies/ingest", h.method(http.MethodPost, h.ingest))
	mux.HandleFunc("/vacancies/average-salary", h.method(http.MethodGet, h.averageSalary))
	mux.HandleFunc("/vacancies/above-average", h.method(http.MethodGet, h.aboveAverage))
}

func (h *Handler) method(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "vacancy-service",
		"version": h.version,
	})
}

func (h *Handler) createSchema(w http.ResponseWriter, r *http.Request) {
	if err := h.store.CreateSchema(r.Context()); err != nil {
		h.fail(w, "createSchema", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	var page model.Page
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&page); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := h.store.Ingest(r.Context(), page.Items)
	if err != nil {
		h.fail(w, "ingest", err)
		return
	}
	if h.notifier != nil && stats.Records > 0 {
		h.notifier.Ingested(r.Context(), "api", 0, stats)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) companyCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CompanyVacancyCounts(r.Context())
	if err != nil {
		h.fail(w, "companyCounts", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// vacancies serves GET /vacancies; a keyword parameter, even empty, switches
// to keyword search.
func (h *Handler) vacancies(w http.ResponseWriter, r *http.Request) {
	var (
		rows []model.VacancyRow
		err  error
	)
	if r.URL.Query().Has("keyword") {
		rows, err = h.store.SearchByKeyword(r.Context(), r.URL.Query().Get("keyword"))
	} else {
		rows, err = h.store.AllVacancies(r.Context())
	}
	if err != nil {
		h.fail(w, "vacancies", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) averageSalary(w http.ResponseWriter, r *http.Request) {
	avg, ok, err := h.store.AverageSalary(r.Context())
	if err != nil {
		h.fail(w, "averageSalary", err)
		return
	}

	resp := struct {
		Average *float64 `json:"average"`
	}{}
	if ok {
		resp.Average = &avg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) aboveAverage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.AboveAverageSalary(r.Context())
	if err != nil {
		h.fail(w, "aboveAverage", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// fail maps store errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrInvalidSalary):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Str("op", op).Msg("request failed")
		jsonError(w, "database error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
