package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/internal/finance/service"
	"github.com/gestor/backoffice/pkg/httputil"
	"github.com/gestor/backoffice/pkg/logger"
)

// FinanceHandler handles category, entry and summary endpoints
type FinanceHandler struct {
	service *service.FinanceService
	logger  *logger.Logger
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(svc *service.FinanceService, log *logger.Logger) *FinanceHandler {
	return &FinanceHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the handler under /api/v1/financial
func (h *FinanceHandler) Routes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Get("/{id}", h.GetCategory)
	})
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.ListEntries)
		r.Post("/", h.CreateEntry)
		r.Get("/{id}", h.GetEntry)
		r.Put("/{id}", h.UpdateEntry)
		r.Delete("/{id}", h.DeleteEntry)
	})
	r.Get("/summary", h.Summary)
}

type entryRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        domain.Kind     `json:"type"`
	Date        httputil.Date   `json:"date"`
	CategoryID  string          `json:"category_id"`
}

func (req entryRequest) input() service.EntryInput {
	return service.EntryInput{
		Description: req.Description,
		Amount:      req.Amount,
		Kind:        req.Type,
		Date:        req.Date.Time,
		CategoryID:  req.CategoryID,
	}
}

// ListCategories lists categories, optionally filtered by ?type=
func (h *FinanceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	kind := domain.Kind(r.URL.Query().Get("type"))

	categories, err := h.service.ListCategories(r.Context(), kind)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.List(w, categories, len(categories))
}

// CreateCategory creates a category
func (h *FinanceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	category, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, category)
}

// GetCategory gets a category by ID
func (h *FinanceHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, category)
}

// ListEntries lists entries. Query parameters: type, category_id, from, to,
// search, origin (none, vehicle_cost, employee_payment) and limit.
func (h *FinanceHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.EntryFilter{
		Kind:       domain.Kind(q.Get("type")),
		CategoryID: q.Get("category_id"),
		Search:     q.Get("search"),
	}

	var err error
	if filter.From, err = httputil.QueryDate(r, "from"); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if filter.To, err = httputil.QueryDate(r, "to"); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if filter.Limit, err = httputil.QueryInt(r, "limit", 0); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	switch origin := q.Get("origin"); origin {
	case "":
	case "none":
		kind := domain.OriginNone
		filter.OriginKind = &kind
	default:
		kind := domain.OriginKind(origin)
		filter.OriginKind = &kind
	}

	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.List(w, entries, len(entries))
}

// CreateEntry records a manual entry
func (h *FinanceHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, entry)
}

// GetEntry gets an entry by ID
func (h *FinanceHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// UpdateEntry rewrites a manual entry
func (h *FinanceHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	entry, err := h.service.UpdateEntry(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// DeleteEntry deletes a manual entry
func (h *FinanceHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// Summary totals income and expense. Without from/to it covers the current month.
func (h *FinanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := httputil.QueryDate(r, "from")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	to, err := httputil.QueryDate(r, "to")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	monthStart, monthEnd := domain.MonthRange(time.Now())
	if from == nil {
		from = &monthStart
	}
	if to == nil {
		to = &monthEnd
	}

	summary, err := h.service.Summary(r.Context(), *from, *to)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
