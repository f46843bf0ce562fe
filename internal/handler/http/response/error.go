package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrCompanyIDRequired), errors.Is(err, tenant.ErrCompanyRequired):
		Forbidden(w, "Company membership required")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Validation outside struct checks
	case errors.Is(err, schedule.ErrInvalidDateFormat):
		ValidationError(w, map[string]string{"fecha": err.Error()})
	case errors.Is(err, schedule.ErrInvalidRequestData):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, client.ErrClientInactive):
		ValidationError(w, map[string]string{"cliente_id": "Client is inactive"})

	// Not found
	case errors.Is(err, schedule.ErrTemplateNotFound):
		NotFound(w, "Schedule template not found")
	case errors.Is(err, schedule.ErrWeeklyDayNotFound):
		NotFound(w, "Weekly day not found")
	case errors.Is(err, schedule.ErrExceptionNotFound):
		NotFound(w, "Schedule exception not found")
	case errors.Is(err, schedule.ErrAssignmentNotFound):
		NotFound(w, "Schedule assignment not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, client.ErrClientNotFound):
		NotFound(w, "Client not found")

	// Conflict
	case errors.Is(err, schedule.ErrTemplateNameExists):
		Conflict(w, "Schedule template name already exists")
	case errors.Is(err, schedule.ErrTimelineConflict):
		slog.Error("assignment timeline conflict", "error", err)
		Conflict(w, err.Error())

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
