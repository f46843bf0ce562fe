package http

import (
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
)

type PlanHandler interface {
	GetPlan(w http.ResponseWriter, r *http.Request)
	GetPlanRange(w http.ResponseWriter, r *http.Request)
}

type planHandlerImpl struct {
	planService schedule.PlanService
	clock       schedule.Clock
}

func NewPlanHandler(planService schedule.PlanService, clock schedule.Clock) PlanHandler {
	return &planHandlerImpl{
		planService: planService,
		clock:       clock,
	}
}

// GetPlan resolves one day. The date defaults to today in the engine's zone.
func (h *planHandlerImpl) GetPlan(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	employeeID := r.URL.Query().Get("employee")
	if employeeID == "" {
		response.BadRequest(w, "employee is required", nil)
		return
	}

	date, err := queryDate(r, "date")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	on := h.clock.Today()
	if date != nil {
		on = *date
	}

	result, err := h.planService.GetPlan(r.Context(), tc, employeeID, on)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *planHandlerImpl) GetPlanRange(w http.ResponseWriter, r *http.Request) {
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
	if from == nil || to == nil {
		response.BadRequest(w, "from and to are required", nil)
		return
	}

	results, err := h.planService.GetPlanRange(r.Context(), tc, schedule.PlanRangeRequest{
		EmployeeID: r.URL.Query().Get("employee"),
		From:       *from,
		To:         *to,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
