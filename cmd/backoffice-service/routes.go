package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	dashhandler "github.com/gestor/backoffice/internal/dashboard/handler"
	dashservice "github.com/gestor/backoffice/internal/dashboard/service"
	finevents "github.com/gestor/backoffice/internal/finance/events"
	finhandler "github.com/gestor/backoffice/internal/finance/handler"
	finrepo "github.com/gestor/backoffice/internal/finance/repository"
	finservice "github.com/gestor/backoffice/internal/finance/service"
	fleetevents "github.com/gestor/backoffice/internal/fleet/events"
	fleethandler "github.com/gestor/backoffice/internal/fleet/handler"
	fleetrepo "github.com/gestor/backoffice/internal/fleet/repository"
	fleetservice "github.com/gestor/backoffice/internal/fleet/service"
	payrollevents "github.com/gestor/backoffice/internal/payroll/events"
	payrollhandler "github.com/gestor/backoffice/internal/payroll/handler"
	payrollrepo "github.com/gestor/backoffice/internal/payroll/repository"
	payrollservice "github.com/gestor/backoffice/internal/payroll/service"
	"github.com/gestor/backoffice/pkg/config"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/httputil"
	"github.com/gestor/backoffice/pkg/i18n"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/messaging"
)

const serviceName = "backoffice-service"

// handlers holds one HTTP handler per module, wired to a shared database
type handlers struct {
	finance   *finhandler.FinanceHandler
	fleet     *fleethandler.FleetHandler
	payroll   *payrollhandler.PayrollHandler
	dashboard *dashhandler.DashboardHandler
}

func newHandlers(db *database.DB, publisher messaging.EventPublisher, log *logger.Logger) *handlers {
	// Repositories
	categoryRepo := finrepo.NewCategoryRepository(db)
	entryRepo := finrepo.NewEntryRepository(db)
	vehicleRepo := fleetrepo.NewVehicleRepository(db)
	costRepo := fleetrepo.NewCostRepository(db)
	employeeRepo := payrollrepo.NewEmployeeRepository(db)
	paymentRepo := payrollrepo.NewPaymentRepository(db)
	receiptRepo := payrollrepo.NewReceiptRepository(db)

	// Event publishers
	financeEvents := finevents.NewFinanceEventPublisher(publisher, log)
	fleetEvents := fleetevents.NewFleetEventPublisher(publisher, log)
	payrollEvents := payrollevents.NewPayrollEventPublisher(publisher, log)

	// Services
	ledger := finservice.NewLedgerService(db, categoryRepo, entryRepo, financeEvents, log)
	financeService := finservice.NewFinanceService(categoryRepo, entryRepo, financeEvents, log)
	fleetService := fleetservice.NewFleetService(db, vehicleRepo, costRepo, ledger, fleetEvents, log)
	payrollService := payrollservice.NewPayrollService(db, employeeRepo, paymentRepo, receiptRepo, ledger, payrollEvents, log)
	receiptService := payrollservice.NewReceiptService(db, paymentRepo, receiptRepo, payrollEvents, log)
	dashboardService := dashservice.NewDashboardService(entryRepo, vehicleRepo, costRepo, paymentRepo, log)

	return &handlers{
		finance:   finhandler.NewFinanceHandler(financeService, log),
		fleet:     fleethandler.NewFleetHandler(fleetService, log),
		payroll:   payrollhandler.NewPayrollHandler(payrollService, receiptService, log),
		dashboard: dashhandler.NewDashboardHandler(dashboardService, log),
	}
}

// newRouter mounts every module under /api/v1. broker reports the message
// broker's health and may be nil when publishing is disabled.
func newRouter(h *handlers, db *database.DB, broker func() map[string]string, cfg config.CORSConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Language", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(i18n.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if broker != nil {
			status["rabbitmq"] = broker()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/financial", h.finance.Routes)
		r.Route("/vehicles", h.fleet.Routes)
		r.Route("/vehicle-costs", h.fleet.CostRoutes)
		r.Route("/employees", h.payroll.Routes)
		r.Route("/employee-payments", h.payroll.PaymentRoutes)
		r.Route("/receipts", h.payroll.ReceiptRoutes)
		r.Route("/dashboard", h.dashboard.Routes)
	})

	return r
}
