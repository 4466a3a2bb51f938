package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/internal/fleet/repository"
	"github.com/gestor/backoffice/internal/fleet/service"
	"github.com/gestor/backoffice/pkg/httputil"
	"github.com/gestor/backoffice/pkg/i18n"
	"github.com/gestor/backoffice/pkg/logger"
)

// FleetHandler handles vehicle and vehicle cost endpoints
type FleetHandler struct {
	service *service.FleetService
	logger  *logger.Logger
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(svc *service.FleetService, log *logger.Logger) *FleetHandler {
	return &FleetHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the handler under /api/v1/vehicles
func (h *FleetHandler) Routes(r chi.Router) {
	r.Get("/", h.ListVehicles)
	r.Post("/", h.CreateVehicle)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetVehicle)
		r.Put("/", h.UpdateVehicle)
		r.Delete("/", h.DeleteVehicle)

		r.Get("/costs", h.ListVehicleCosts)
		r.Post("/costs", h.CreateCost)
		r.Get("/costs/{costId}", h.GetCost)
		r.Put("/costs/{costId}", h.UpdateCost)
		r.Delete("/costs/{costId}", h.DeleteCost)
	})
}

// CostRoutes mounts the cross-vehicle cost listing under /api/v1/vehicle-costs
func (h *FleetHandler) CostRoutes(r chi.Router) {
	r.Get("/", h.ListCosts)
}

type costRequest struct {
	Type        repository.CostType `json:"type"`
	Description string              `json:"description"`
	Amount      decimal.Decimal     `json:"amount"`
	Date        httputil.Date       `json:"date"`
	Odometer    *int                `json:"odometer"`
	Location    *string             `json:"location"`
}

func (req costRequest) input() service.CostInput {
	return service.CostInput{
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date.Time,
		Odometer:    req.Odometer,
		Location:    req.Location,
	}
}

type costView struct {
	*repository.VehicleCost
	Date      httputil.Date `json:"date"`
	TypeLabel string        `json:"type_label"`
}

type costWithEntryView struct {
	costView
	Entry *domain.Entry `json:"financial_entry"`
}

type vehicleDetailView struct {
	*repository.Vehicle
	Costs      []costView      `json:"costs"`
	TotalCosts decimal.Decimal `json:"total_costs"`
}

func newCostView(r *http.Request, c *repository.VehicleCost) costView {
	locale := i18n.GetLocaleFromContext(r.Context())
	return costView{
		VehicleCost: c,
		Date:        httputil.NewDate(c.Date),
		TypeLabel:   service.CostTypeLabel(locale, c.Type),
	}
}

func newCostViews(r *http.Request, costs []*repository.VehicleCost) []costView {
	views := make([]costView, 0, len(costs))
	for _, c := range costs {
		views = append(views, newCostView(r, c))
	}
	return views
}

// ListVehicles lists vehicles. Query parameters: brand, model, search, limit.
func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	q := r.URL.Query()
	vehicles, err := h.service.ListVehicles(r.Context(), repository.VehicleFilter{
		Brand:  q.Get("brand"),
		Model:  q.Get("model"),
		Search: q.Get("search"),
		Limit:  limit,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.List(w, vehicles, len(vehicles))
}

// CreateVehicle registers a vehicle
func (h *FleetHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in service.VehicleInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	v, err := h.service.CreateVehicle(r.Context(), in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, v)
}

// GetVehicle gets a vehicle with its costs
func (h *FleetHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, vehicleDetailView{
		Vehicle:    detail.Vehicle,
		Costs:      newCostViews(r, detail.Costs),
		TotalCosts: detail.TotalCosts,
	})
}

// UpdateVehicle updates a vehicle
func (h *FleetHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var in service.VehicleInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	v, err := h.service.UpdateVehicle(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, v)
}

// DeleteVehicle deletes a vehicle without costs
func (h *FleetHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// ListVehicleCosts lists the costs of one vehicle
func (h *FleetHandler) ListVehicleCosts(w http.ResponseWriter, r *http.Request) {
	h.listCosts(w, r, chi.URLParam(r, "id"))
}

// ListCosts lists costs across vehicles. Query parameters: vehicle_id, type, from, to, limit.
func (h *FleetHandler) ListCosts(w http.ResponseWriter, r *http.Request) {
	h.listCosts(w, r, r.URL.Query().Get("vehicle_id"))
}

func (h *FleetHandler) listCosts(w http.ResponseWriter, r *http.Request, vehicleID string) {
	filter := repository.CostFilter{
		VehicleID: vehicleID,
		Type:      repository.CostType(r.URL.Query().Get("type")),
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

	costs, err := h.service.ListCosts(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.List(w, newCostViews(r, costs), len(costs))
}

// CreateCost records a cost and its expense entry
func (h *FleetHandler) CreateCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	result, err := h.service.CreateCost(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, costWithEntryView{costView: newCostView(r, result.VehicleCost), Entry: result.Entry})
}

// GetCost gets a cost of a vehicle
func (h *FleetHandler) GetCost(w http.ResponseWriter, r *http.Request) {
	cost, err := h.service.GetCost(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "costId"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newCostView(r, cost))
}

// UpdateCost rewrites a cost and its entry
func (h *FleetHandler) UpdateCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	result, err := h.service.UpdateCost(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "costId"), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, costWithEntryView{costView: newCostView(r, result.VehicleCost), Entry: result.Entry})
}

// DeleteCost deletes a cost and its entry
func (h *FleetHandler) DeleteCost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCost(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "costId")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
