/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Users:
    GET    /api/orgs/{orgID}/users                   List users
    POST   /api/orgs/{orgID}/users                   Create/update user
    GET    /api/orgs/{orgID}/users/{id}              Get user
    GET    /api/orgs/{orgID}/users/{id}/balance      Computed balance
    GET    /api/orgs/{orgID}/users/{id}/requests     Request history
    POST   /api/orgs/{orgID}/users/{id}/requests     Submit a leave request

  Requests:
    GET    /api/orgs/{orgID}/requests/pending        Pending queue
    POST   /api/orgs/{orgID}/requests/{id}/approve   Approve
    POST   /api/orgs/{orgID}/requests/{id}/reject    Reject
    POST   /api/orgs/{orgID}/requests/{id}/cancel    Cancel

  Holidays:
    GET    /api/orgs/{orgID}/holidays                List
    POST   /api/orgs/{orgID}/holidays                Add
    POST   /api/orgs/{orgID}/holidays/national       Seed a country+year
    DELETE /api/orgs/{orgID}/holidays/{id}           Remove

  Categories:
    GET    /api/orgs/{orgID}/categories              Current table
    PUT    /api/orgs/{orgID}/categories              Replace table

  Admin:
    POST   /api/orgs/{orgID}/admin/reset-allocations Yearly reset

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator on the DTO)
  3. Call domain logic (booking service, resetter, calendar)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, rejected domain operations
  - 404: Resource not found
  - 409: Lifecycle conflicts (deciding a non-pending request)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/booking.go: Domain logic behind the request endpoints
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tidehr/leave-engine/calendar"
	"github.com/tidehr/leave-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    engine.TxStore
	Booking  *engine.BookingService
	Resetter *engine.AllocationResetter

	validate *validator.Validate
}

// NewHandler wires a handler around the given store.
func NewHandler(store engine.TxStore) *Handler {
	cal := calendar.New(store)
	return &Handler{
		Store: store,
		Booking: &engine.BookingService{
			Store:    store,
			Holidays: cal,
			Notifier: LogNotifier{},
		},
		Resetter: &engine.AllocationResetter{Store: store, Holidays: cal},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func orgID(r *http.Request) engine.OrgID {
	return engine.OrgID(chi.URLParam(r, "orgID"))
}

// decodeValid decodes the body into dst and runs struct validation.
func (h *Handler) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users in the org.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.Users(r.Context(), orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := engine.UserID(chi.URLParam(r, "id"))

	cfg, err := h.Store.User(r.Context(), orgID(r), id)
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(cfg))
}

// CreateUser creates or updates a user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sched, err := engine.ParseSchedule(req.WorkingDays, req.HalfDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return
	}
	allocation, err := decimal.NewFromString(req.Allocation)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allocation", err)
		return
	}

	cfg := engine.UserConfig{
		ID:         engine.UserID(req.ID),
		Name:       req.Name,
		Email:      req.Email,
		Schedule:   sched,
		Allocation: engine.Days{Value: allocation},
	}
	if err := h.Store.SaveUser(r.Context(), orgID(r), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(cfg))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the recomputed balance for a user.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := engine.UserID(chi.URLParam(r, "id"))

	bal, err := h.Booking.BalanceFor(r.Context(), orgID(r), id)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		UserID:          string(id),
		Total:           bal.Total.String(),
		Used:            bal.Used.String(),
		PendingReserved: bal.PendingReserved.String(),
		Remaining:       bal.Remaining.String(),
		AsOf:            time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// ListUserRequests returns a user's request history.
func (h *Handler) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	id := engine.UserID(chi.URLParam(r, "id"))

	reqs, err := h.Store.Requests(r.Context(), orgID(r), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// SubmitRequest books a leave request and returns the engine's verdict.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	user := engine.UserID(chi.URLParam(r, "id"))

	var dto SubmitRequestDTO
	if err := h.decodeValid(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	span, err := dto.span()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date span", err)
		return
	}

	req, decision, err := h.Booking.Submit(r.Context(), orgID(r), user, span, engine.Category(dto.Category))
	if err != nil {
		writeDomainError(w, "Failed to submit request", err)
		return
	}
	observeDecision(decision)

	resp := SubmitResponseDTO{
		Request:   toRequestDTO(req),
		Rationale: decision.Rationale,
	}
	if decision.LowBalance != nil {
		warning := "remaining balance after this request is " + decision.LowBalance.Remaining.String() + " days"
		resp.LowBalance = &warning
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListPendingRequests returns the org's pending approval queue.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Store.PendingRequests(r.Context(), orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// ApproveRequest approves a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx reviewCtx) error {
		return h.Booking.Approve(ctx.ctx, ctx.org, ctx.id, ctx.body.Reviewer)
	})
}

// RejectRequest rejects a pending request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx reviewCtx) error {
		return h.Booking.Reject(ctx.ctx, ctx.org, ctx.id, ctx.body.Reviewer, ctx.body.Rationale)
	})
}

// CancelRequest cancels a pending or approved request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx reviewCtx) error {
		return h.Booking.Cancel(ctx.ctx, ctx.org, ctx.id, ctx.body.Reviewer)
	})
}

type reviewCtx struct {
	ctx  context.Context
	org  engine.OrgID
	id   engine.RequestID
	body ReviewRequestDTO
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, apply func(reviewCtx) error) {
	id := engine.RequestID(chi.URLParam(r, "id"))

	var body ReviewRequestDTO
	if err := h.decodeValid(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := apply(reviewCtx{ctx: r.Context(), org: orgID(r), id: id, body: body}); err != nil {
		if errors.Is(err, engine.ErrRequestNotPending) {
			writeError(w, http.StatusConflict, "Request already decided", err)
			return
		}
		writeDomainError(w, "Failed to update request", err)
		return
	}

	req, err := h.Store.Request(r.Context(), orgID(r), id)
	if err != nil {
		writeDomainError(w, "Failed to reload request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the org's holiday records.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.Holidays(r.Context(), orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = toHolidayDTO(hd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday record.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	hd := engine.Holiday{
		ID:        uuid.NewString(),
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), orgID(r), hd); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hd))
}

// SeedNationalHolidays loads a country's official holidays for one year.
func (h *Handler) SeedNationalHolidays(w http.ResponseWriter, r *http.Request) {
	var req SeedNationalRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	holidays, err := calendar.NationalHolidays(req.Country, req.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown country", err)
		return
	}

	org := orgID(r)
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hd := range holidays {
		if err := h.Store.SaveHoliday(r.Context(), org, hd); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
			return
		}
		dtos = append(dtos, toHolidayDTO(hd))
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// DeleteHoliday removes a holiday record.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteHoliday(r.Context(), orgID(r), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// GetCategories returns the org's category table.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.Categories(r.Context(), orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load categories", err)
		return
	}

	out := make(map[string]string, policy.Len())
	for c, lt := range policy.Table() {
		out[string(c)] = string(lt)
	}
	writeJSON(w, http.StatusOK, CategoriesDTO{Categories: out})
}

// PutCategories replaces the org's category table.
func (h *Handler) PutCategories(w http.ResponseWriter, r *http.Request) {
	var req CategoriesDTO
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	table := make(map[engine.Category]engine.LedgerType, len(req.Categories))
	for name, lt := range req.Categories {
		table[engine.Category(name)] = engine.LedgerType(lt)
	}

	if err := h.Store.SaveCategories(r.Context(), orgID(r), engine.NewCategoryPolicy(table)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save categories", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetAllocations applies a yearly allocation reset, optionally carrying
// forward each user's unused remaining balance.
func (h *Handler) ResetAllocations(w http.ResponseWriter, r *http.Request) {
	var req ResetAllocationsRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	allocation, err := decimal.NewFromString(req.Allocation)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allocation", err)
		return
	}
	days := engine.Days{Value: allocation}
	org := orgID(r)

	if req.UserID != "" {
		outcome, err := h.Resetter.ResetUser(r.Context(), org, engine.UserID(req.UserID), days, req.CarryForward)
		if err != nil {
			writeDomainError(w, "Failed to reset allocation", err)
			return
		}
		writeJSON(w, http.StatusOK, ResetReportDTO{Outcomes: []ResetOutcomeDTO{toResetOutcomeDTO(outcome)}})
		return
	}

	report, err := h.Resetter.ResetAll(r.Context(), org, days, req.CarryForward)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset allocations", err)
		return
	}

	dto := ResetReportDTO{Outcomes: make([]ResetOutcomeDTO, len(report.Outcomes))}
	for i, o := range report.Outcomes {
		dto.Outcomes[i] = toResetOutcomeDTO(o)
	}
	for _, f := range report.Failures {
		dto.Failures = append(dto.Failures, ResetFailureDTO{UserID: string(f.UserID), Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, dto)
}

func toResetOutcomeDTO(o engine.ResetOutcome) ResetOutcomeDTO {
	return ResetOutcomeDTO{
		UserID:         string(o.UserID),
		Previous:       o.Previous.String(),
		CarriedForward: o.CarriedForward.String(),
		NewAllocation:  o.NewAllocation.String(),
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine error classes onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
