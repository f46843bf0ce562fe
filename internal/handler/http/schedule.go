package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	// Template
	CreateTemplate(w http.ResponseWriter, r *http.Request)
	GetTemplate(w http.ResponseWriter, r *http.Request)
	ListTemplates(w http.ResponseWriter, r *http.Request)
	UpdateTemplate(w http.ResponseWriter, r *http.Request)
	DeleteTemplate(w http.ResponseWriter, r *http.Request)

	// Weekly Day
	UpsertWeeklyDay(w http.ResponseWriter, r *http.Request)
	ReplicateDay(w http.ResponseWriter, r *http.Request)
	ResetDay(w http.ResponseWriter, r *http.Request)
	UpsertDayBlocks(w http.ResponseWriter, r *http.Request)

	// Exception
	ListExceptions(w http.ResponseWriter, r *http.Request)
	UpsertException(w http.ResponseWriter, r *http.Request)
	DeleteException(w http.ResponseWriter, r *http.Request)
	UpsertExceptionBlocks(w http.ResponseWriter, r *http.Request)

	// Recalculation
	Recalculate(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
	}
}

// decodeJSON writes a 400 and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", map[string]string{"body": err.Error()})
		return false
	}
	return true
}

// tenantFrom reads the tenant stored by middleware.RequireCompany.
func tenantFrom(w http.ResponseWriter, r *http.Request) (tenant.Context, bool) {
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return tenant.Context{}, false
	}
	return tc, true
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := schedule.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ==================== TEMPLATE HANDLERS ====================

func (h *scheduleHandlerImpl) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.CreateTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.scheduleService.CreateTemplate(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Schedule template created successfully", result)
}

func (h *scheduleHandlerImpl) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	result, err := h.scheduleService.GetTemplate(r.Context(), tc, chi.URLParam(r, "templateID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *scheduleHandlerImpl) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()

	filter := schedule.TemplateFilter{}

	// Name filter
	if name := query.Get("name"); name != "" {
		filter.Name = &name
	}

	// Active filter
	if activeStr := query.Get("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.IsActive = &active
		}
	}

	// Check if requesting all records (no pagination)
	if query.Get("all") == "true" {
		filter.All = true
	} else {
		if pageStr := query.Get("page"); pageStr != "" {
			if p, err := strconv.Atoi(pageStr); err == nil {
				filter.Page = p
			}
		}
		if limitStr := query.Get("limit"); limitStr != "" {
			if l, err := strconv.Atoi(limitStr); err == nil {
				filter.Limit = l
			}
		}
	}

	filter.SortBy = query.Get("sort_by")
	filter.SortOrder = query.Get("sort_order")

	results, err := h.scheduleService.ListTemplates(r.Context(), tc, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func (h *scheduleHandlerImpl) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.UpdateTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "templateID")

	result, err := h.scheduleService.UpdateTemplate(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule template updated successfully", result)
}

func (h *scheduleHandlerImpl) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteTemplate(r.Context(), tc, chi.URLParam(r, "templateID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule template deleted successfully", nil)
}

// ==================== WEEKLY DAY HANDLERS ====================

func (h *scheduleHandlerImpl) UpsertWeeklyDay(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.UpsertWeeklyDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TemplateID = chi.URLParam(r, "templateID")
	// A non-numeric weekday stays 0 and fails validation.
	req.Weekday, _ = strconv.Atoi(chi.URLParam(r, "weekday"))

	result, err := h.scheduleService.UpsertWeeklyDay(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Weekly day saved successfully", result)
}

func (h *scheduleHandlerImpl) ReplicateDay(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.ReplicateDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TemplateID = chi.URLParam(r, "templateID")

	result, err := h.scheduleService.ReplicateDay(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Weekly day replicated successfully", result)
}

func (h *scheduleHandlerImpl) ResetDay(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	result, err := h.scheduleService.ResetDay(r.Context(), tc, chi.URLParam(r, "dayID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Weekly day reset successfully", result)
}

func (h *scheduleHandlerImpl) UpsertDayBlocks(w http.ResponseWriter, r *http.Request) {
	h.upsertBlocks(w, r, schedule.DayParent(chi.URLParam(r, "dayID")))
}

// ==================== EXCEPTION HANDLERS ====================

func (h *scheduleHandlerImpl) ListExceptions(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	from, err := queryDate(r, "from")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.scheduleService.ListExceptions(r.Context(), tc, chi.URLParam(r, "templateID"), schedule.ExceptionFilter{From: from, To: to})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func (h *scheduleHandlerImpl) UpsertException(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.UpsertExceptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TemplateID = chi.URLParam(r, "templateID")
	req.Date = chi.URLParam(r, "date")

	result, err := h.scheduleService.UpsertException(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule exception saved successfully", result)
}

func (h *scheduleHandlerImpl) DeleteException(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteException(r.Context(), tc, chi.URLParam(r, "exceptionID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule exception deleted successfully", nil)
}

func (h *scheduleHandlerImpl) UpsertExceptionBlocks(w http.ResponseWriter, r *http.Request) {
	h.upsertBlocks(w, r, schedule.ExceptionParent(chi.URLParam(r, "exceptionID")))
}

// ==================== BLOCK HANDLERS ====================

func (h *scheduleHandlerImpl) upsertBlocks(w http.ResponseWriter, r *http.Request, parent schedule.BlockParent) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.UpsertBlocksRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Parent = parent

	result, err := h.scheduleService.UpsertBlocks(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Blocks saved successfully", result)
}

// ==================== RECALCULATION HANDLERS ====================

func (h *scheduleHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	date, err := queryDate(r, "date")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.scheduleService.Recalculate(r.Context(), tc, chi.URLParam(r, "templateID"), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
