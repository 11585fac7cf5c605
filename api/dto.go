/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry go-playground/validator struct tags and are checked
  once in the handlers before any parsing. Domain-level parsing (dates,
  weekday tokens, day parts) still runs afterwards and produces 400s of
  its own.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain model these map onto
*/
package api

import (
	"time"

	"github.com/tidehr/leave-engine/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	WorkingDays []string `json:"working_days"`
	HalfDays    []string `json:"half_days,omitempty"`
	Allocation  string   `json:"allocation"`
}

// CreateUserRequest is the request to create or update a user.
type CreateUserRequest struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"omitempty,email"`
	WorkingDays []string `json:"working_days"`
	HalfDays    []string `json:"half_days"`
	Allocation  string   `json:"allocation" validate:"required"`
}

// BalanceDTO represents a user's computed balance.
type BalanceDTO struct {
	UserID          string `json:"user_id"`
	Total           string `json:"total"`
	Used            string `json:"used"`
	PendingReserved string `json:"pending_reserved"`
	Remaining       string `json:"remaining"`
	AsOf            string `json:"as_of"`
}

// SubmitRequestDTO is the body of a leave request submission.
type SubmitRequestDTO struct {
	From      string `json:"from" validate:"required"`
	To        string `json:"to" validate:"required"`
	Category  string `json:"category" validate:"required"`
	DayPart   string `json:"day_part" validate:"omitempty,oneof=full morning afternoon am pm"`
	StartPart string `json:"start_part" validate:"omitempty,oneof=full morning afternoon am pm"`
	EndPart   string `json:"end_part" validate:"omitempty,oneof=full morning afternoon am pm"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	DayPart       string `json:"day_part,omitempty"`
	StartPart     string `json:"start_part,omitempty"`
	EndPart       string `json:"end_part,omitempty"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	AdminResponse string `json:"admin_response,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	DecidedAt     string `json:"decided_at,omitempty"`
	DecidedBy     string `json:"decided_by,omitempty"`
}

// SubmitResponseDTO is the response after submitting a request.
type SubmitResponseDTO struct {
	Request    RequestDTO `json:"request"`
	Rationale  string     `json:"rationale,omitempty"`
	LowBalance *string    `json:"low_balance_warning,omitempty"`
}

// ReviewRequestDTO carries the reviewer's verdict details.
type ReviewRequestDTO struct {
	Reviewer  string `json:"reviewer" validate:"required"`
	Rationale string `json:"rationale"`
}

// HolidayDTO represents a holiday record.
type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// CreateHolidayRequest is the request to add a holiday.
type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Recurring bool   `json:"recurring"`
}

// SeedNationalRequest seeds a year of national holidays for a country.
type SeedNationalRequest struct {
	Country string `json:"country" validate:"required"`
	Year    int    `json:"year" validate:"required,min=1970,max=2200"`
}

// CategoriesDTO is the org's category table, category name -> ledger type.
type CategoriesDTO struct {
	Categories map[string]string `json:"categories" validate:"required,dive,oneof=deductable non_deductable"`
}

// ResetAllocationsRequest triggers a yearly allocation reset.
type ResetAllocationsRequest struct {
	Allocation   string `json:"allocation" validate:"required"`
	CarryForward bool   `json:"carry_forward"`
	UserID       string `json:"user_id,omitempty"` // empty = all users
}

// ResetOutcomeDTO is one user's reset result.
type ResetOutcomeDTO struct {
	UserID         string `json:"user_id"`
	Previous       string `json:"previous"`
	CarriedForward string `json:"carried_forward"`
	NewAllocation  string `json:"new_allocation"`
}

// ResetReportDTO is the bulk reset result.
type ResetReportDTO struct {
	Outcomes []ResetOutcomeDTO `json:"outcomes"`
	Failures []ResetFailureDTO `json:"failures,omitempty"`
}

// ResetFailureDTO is one user's failed reset.
type ResetFailureDTO struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(cfg engine.UserConfig) UserDTO {
	return UserDTO{
		ID:          string(cfg.ID),
		Name:        cfg.Name,
		Email:       cfg.Email,
		WorkingDays: cfg.Schedule.Working.Tokens(),
		HalfDays:    cfg.Schedule.Half.Tokens(),
		Allocation:  cfg.Allocation.String(),
	}
}

func toRequestDTO(req engine.LeaveRequest) RequestDTO {
	dto := RequestDTO{
		ID:            string(req.ID),
		UserID:        string(req.UserID),
		From:          req.Span.From.String(),
		To:            req.Span.To.String(),
		Category:      string(req.Category),
		Status:        string(req.Status),
		AdminResponse: req.AdminResponse,
		CreatedAt:     req.CreatedAt.Format(time.RFC3339),
		DecidedBy:     req.DecidedBy,
	}
	if req.Span.Part.IsHalf() {
		dto.DayPart = string(req.Span.Part)
	}
	if req.Span.StartPart.IsHalf() {
		dto.StartPart = string(req.Span.StartPart)
	}
	if req.Span.EndPart.IsHalf() {
		dto.EndPart = string(req.Span.EndPart)
	}
	if req.DecidedAt != nil {
		dto.DecidedAt = req.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toRequestDTOs(reqs []engine.LeaveRequest) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

func toHolidayDTO(h engine.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}

func (d SubmitRequestDTO) span() (engine.DateSpan, error) {
	var span engine.DateSpan
	var err error
	if span.From, err = engine.ParseDate(d.From); err != nil {
		return engine.DateSpan{}, err
	}
	if span.To, err = engine.ParseDate(d.To); err != nil {
		return engine.DateSpan{}, err
	}
	if span.Part, err = engine.ParseDayPart(d.DayPart); err != nil {
		return engine.DateSpan{}, err
	}
	if span.StartPart, err = engine.ParseDayPart(d.StartPart); err != nil {
		return engine.DateSpan{}, err
	}
	if span.EndPart, err = engine.ParseDayPart(d.EndPart); err != nil {
		return engine.DateSpan{}, err
	}
	return span, nil
}
