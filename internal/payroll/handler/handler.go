package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/internal/payroll/repository"
	"github.com/gestor/backoffice/internal/payroll/service"
	"github.com/gestor/backoffice/pkg/httputil"
	"github.com/gestor/backoffice/pkg/i18n"
	"github.com/gestor/backoffice/pkg/logger"
)

// PayrollHandler handles employee, payment and receipt endpoints
type PayrollHandler struct {
	payroll  *service.PayrollService
	receipts *service.ReceiptService
	logger   *logger.Logger
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(payroll *service.PayrollService, receipts *service.ReceiptService, log *logger.Logger) *PayrollHandler {
	return &PayrollHandler{
		payroll:  payroll,
		receipts: receipts,
		logger:   log,
	}
}

// Routes mounts the handler under /api/v1/employees
func (h *PayrollHandler) Routes(r chi.Router) {
	r.Get("/", h.ListEmployees)
	r.Post("/", h.CreateEmployee)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetEmployee)
		r.Put("/", h.UpdateEmployee)
		r.Delete("/", h.DeleteEmployee)

		r.Get("/payments", h.ListEmployeePayments)
		r.Post("/payments", h.CreatePayment)
		r.Route("/payments/{paymentId}", func(r chi.Router) {
			r.Get("/", h.GetPayment)
			r.Put("/", h.UpdatePayment)
			r.Delete("/", h.DeletePayment)

			r.Get("/receipts", h.ListPaymentReceipts)
			r.Post("/receipts", h.IssueReceipt)
			r.Get("/receipts/{receiptId}", h.GetReceipt)
		})
	})
}

// PaymentRoutes mounts the cross-employee payment listing under /api/v1/employee-payments
func (h *PayrollHandler) PaymentRoutes(r chi.Router) {
	r.Get("/", h.ListPayments)
}

// ReceiptRoutes mounts the receipt register under /api/v1/receipts
func (h *PayrollHandler) ReceiptRoutes(r chi.Router) {
	r.Get("/", h.ListReceipts)
}

type employeeRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    *string          `json:"phone"`
	Position string           `json:"position"`
	Salary   *decimal.Decimal `json:"salary"`
	HireDate httputil.Date    `json:"hire_date"`
}

func (req employeeRequest) input() service.EmployeeInput {
	return service.EmployeeInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Position: req.Position,
		Salary:   req.Salary,
		HireDate: req.HireDate.Time,
	}
}

type paymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   httputil.Date   `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Description   *string         `json:"description"`
}

func (req paymentRequest) input() service.PaymentInput {
	return service.PaymentInput{
		Amount:        req.Amount,
		PaymentDate:   req.PaymentDate.Time,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	}
}

type employeeView struct {
	*repository.Employee
	HireDate httputil.Date `json:"hire_date"`
}

type employeeDetailView struct {
	employeeView
	Payments  []paymentView   `json:"payments"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

type paymentView struct {
	*repository.Payment
	PaymentDate        httputil.Date `json:"payment_date"`
	PaymentMethodLabel string        `json:"payment_method_label"`
}

type paymentWithEntryView struct {
	paymentView
	Entry *domain.Entry `json:"financial_entry"`
}

type receiptView struct {
	*repository.Receipt
	IssueDate httputil.Date `json:"issue_date"`
}

func newEmployeeView(e *repository.Employee) employeeView {
	return employeeView{Employee: e, HireDate: httputil.NewDate(e.HireDate)}
}

func newPaymentView(r *http.Request, p *repository.Payment) paymentView {
	return paymentView{
		Payment:            p,
		PaymentDate:        httputil.NewDate(p.PaymentDate),
		PaymentMethodLabel: service.PaymentMethodLabel(i18n.GetLocaleFromContext(r.Context()), p.PaymentMethod),
	}
}

func newPaymentViews(r *http.Request, payments []*repository.Payment) []paymentView {
	views := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, newPaymentView(r, p))
	}
	return views
}

func newReceiptViews(receipts []*repository.Receipt) []receiptView {
	views := make([]receiptView, 0, len(receipts))
	for _, rc := range receipts {
		views = append(views, receiptView{Receipt: rc, IssueDate: httputil.NewDate(rc.IssueDate)})
	}
	return views
}

// ListEmployees lists employees. Query parameters: position, search, limit.
func (h *PayrollHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	q := r.URL.Query()
	employees, err := h.payroll.ListEmployees(r.Context(), repository.EmployeeFilter{
		Position: q.Get("position"),
		Search:   q.Get("search"),
		Limit:    limit,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	views := make([]employeeView, 0, len(employees))
	for _, e := range employees {
		views = append(views, newEmployeeView(e))
	}
	httputil.List(w, views, len(views))
}

// CreateEmployee hires an employee
func (h *PayrollHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	e, err := h.payroll.CreateEmployee(r.Context(), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, newEmployeeView(e))
}

// GetEmployee gets an employee with their payments
func (h *PayrollHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	detail, err := h.payroll.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employeeDetailView{
		employeeView: newEmployeeView(detail.Employee),
		Payments:     newPaymentViews(r, detail.Payments),
		TotalPaid:    detail.TotalPaid,
	})
}

// UpdateEmployee updates an employee
func (h *PayrollHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	e, err := h.payroll.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newEmployeeView(e))
}

// DeleteEmployee deletes an employee without payments
func (h *PayrollHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.payroll.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// ListEmployeePayments lists the payments of one employee
func (h *PayrollHandler) ListEmployeePayments(w http.ResponseWriter, r *http.Request) {
	h.listPayments(w, r, chi.URLParam(r, "id"))
}

// ListPayments lists payments across employees. Query parameters:
// employee_id, payment_method, from, to, limit.
func (h *PayrollHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	h.listPayments(w, r, r.URL.Query().Get("employee_id"))
}

func (h *PayrollHandler) listPayments(w http.ResponseWriter, r *http.Request, employeeID string) {
	filter := repository.PaymentFilter{
		EmployeeID:    employeeID,
		PaymentMethod: r.URL.Query().Get("payment_method"),
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

	payments, err := h.payroll.ListPayments(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.List(w, newPaymentViews(r, payments), len(payments))
}

// CreatePayment pays an employee and books the salary expense
func (h *PayrollHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	result, err := h.payroll.CreatePayment(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, paymentWithEntryView{paymentView: newPaymentView(r, result.Payment), Entry: result.Entry})
}

// GetPayment gets a payment of an employee
func (h *PayrollHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payroll.GetPayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentId"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newPaymentView(r, payment))
}

// UpdatePayment rewrites a payment and its entry
func (h *PayrollHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	result, err := h.payroll.UpdatePayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentId"), req.input())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, paymentWithEntryView{paymentView: newPaymentView(r, result.Payment), Entry: result.Entry})
}

// DeletePayment deletes a payment with its receipts and entry
func (h *PayrollHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.payroll.DeletePayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentId")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// ListPaymentReceipts lists the receipts of a payment
func (h *PayrollHandler) ListPaymentReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.receipts.ListPaymentReceipts(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentId"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.List(w, newReceiptViews(receipts), len(receipts))
}

// IssueReceipt issues the receipt of a payment
func (h *PayrollHandler) IssueReceipt(w http.ResponseWriter, r *http.Request) {
	var in service.ReceiptInput
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &in); err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
	}

	receipt, err := h.receipts.IssueReceipt(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentId"), in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, receiptView{Receipt: receipt, IssueDate: httputil.NewDate(receipt.IssueDate)})
}

// GetReceipt gets a receipt of a payment
func (h *PayrollHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.receipts.GetReceipt(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "paymentId"), chi.URLParam(r, "receiptId"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, receiptView{Receipt: receipt, IssueDate: httputil.NewDate(receipt.IssueDate)})
}

// ListReceipts lists receipts. Query parameters: payment_id, number, from, to, limit.
func (h *PayrollHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	filter := repository.ReceiptFilter{
		PaymentID:     r.URL.Query().Get("payment_id"),
		ReceiptNumber: r.URL.Query().Get("number"),
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

	receipts, err := h.receipts.ListReceipts(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.List(w, newReceiptViews(receipts), len(receipts))
}
