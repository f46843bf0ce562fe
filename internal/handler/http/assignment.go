package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AssignmentHandler interface {
	Assign(w http.ResponseWriter, r *http.Request)
	GetAssignment(w http.ResponseWriter, r *http.Request)
	ListAssignments(w http.ResponseWriter, r *http.Request)
	UpdateAssignment(w http.ResponseWriter, r *http.Request)
	DeleteAssignment(w http.ResponseWriter, r *http.Request)

	// Employee scoped
	ListEmployeeAssignments(w http.ResponseWriter, r *http.Request)
	Unassign(w http.ResponseWriter, r *http.Request)
}

type assignmentHandlerImpl struct {
	assignmentService schedule.AssignmentService
}

func NewAssignmentHandler(assignmentService schedule.AssignmentService) AssignmentHandler {
	return &assignmentHandlerImpl{
		assignmentService: assignmentService,
	}
}

func (h *assignmentHandlerImpl) Assign(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.AssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.assignmentService.Assign(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Schedule assigned successfully", result)
}

func (h *assignmentHandlerImpl) GetAssignment(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	result, err := h.assignmentService.GetAssignment(r.Context(), tc, chi.URLParam(r, "assignmentID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *assignmentHandlerImpl) ListAssignments(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()

	filter := schedule.AssignmentFilter{}

	if employeeID := query.Get("empleado_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if templateID := query.Get("plantilla_id"); templateID != "" {
		filter.TemplateID = &templateID
	}
	if clientID := query.Get("cliente_id"); clientID != "" {
		filter.ClientID = &clientID
	}
	if unassigned, err := strconv.ParseBool(query.Get("sin_empleado")); err == nil {
		filter.Unassigned = unassigned
	}

	activeOn, err := queryDate(r, "vigente")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	filter.ActiveOn = activeOn

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

	results, err := h.assignmentService.ListAssignments(r.Context(), tc, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func (h *assignmentHandlerImpl) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req schedule.UpdateAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "assignmentID")

	result, err := h.assignmentService.UpdateAssignment(r.Context(), tc, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Assignment updated successfully", result)
}

func (h *assignmentHandlerImpl) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	if err := h.assignmentService.DeleteAssignment(r.Context(), tc, chi.URLParam(r, "assignmentID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Assignment deleted successfully", nil)
}

func (h *assignmentHandlerImpl) ListEmployeeAssignments(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	results, err := h.assignmentService.ListEmployeeAssignments(r.Context(), tc, chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func (h *assignmentHandlerImpl) Unassign(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	result, err := h.assignmentService.Unassign(r.Context(), tc, chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee unassigned successfully", result)
}
