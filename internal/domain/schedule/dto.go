package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

// ==================== TEMPLATE ====================

type CreateTemplateRequest struct {
	Name        string `json:"nombre" validate:"max=255"`
	Description string `json:"descripcion"`
	Kind        string `json:"tipo" validate:"omitempty,oneof=weekly monthly daily"`
	IsActive    *bool  `json:"activo"`
}

func (r *CreateTemplateRequest) Validate() error {
	errs := validator.Struct(r)

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "nombre",
			Message: "nombre is required",
		})
	}
	if r.Kind == "" {
		r.Kind = string(TemplateKindWeekly)
	}

	return errs.OrNil()
}

type UpdateTemplateRequest struct {
	ID          string  `json:"-"`
	Name        *string `json:"nombre" validate:"omitempty,max=255"`
	Description *string `json:"descripcion"`
	Kind        *string `json:"tipo" validate:"omitempty,oneof=weekly monthly daily"`
	IsActive    *bool   `json:"activo"`
}

func (r *UpdateTemplateRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
		if trimmed == "" {
			errs = append(errs, validator.ValidationError{
				Field:   "nombre",
				Message: "nombre must not be empty",
			})
		}
	}

	return errs.OrNil()
}

type TemplateFilter struct {
	// Search & Filter
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`

	// Pagination
	Page  int  `json:"page"`
	Limit int  `json:"limit"`
	All   bool `json:"all"`

	// Sorting
	SortBy    string `json:"sort_by"`    // name, kind, created_at
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *TemplateFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	// Sort validation
	if f.SortBy != "" {
		validSortFields := []string{"name", "kind", "created_at"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: name, kind, created_at",
			})
		}
	} else {
		f.SortBy = "name" // Default sort
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "asc" // Default ascending
	}

	return errs.OrNil()
}

type TemplateResponse struct {
	ID          string              `json:"id"`
	CompanyID   string              `json:"empresa_id"`
	Name        string              `json:"nombre"`
	Description string              `json:"descripcion"`
	Kind        string              `json:"tipo"`
	IsActive    bool                `json:"activo"`
	Days        []WeeklyDayResponse `json:"dias,omitempty"`
	Exceptions  []ExceptionResponse `json:"excepciones,omitempty"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

type ListTemplatesResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Showing    string             `json:"showing"`
	Templates  []TemplateResponse `json:"plantillas"`
}

func NewTemplateResponse(t Template) TemplateResponse {
	resp := TemplateResponse{
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		Name:        t.Name,
		Description: t.Description,
		Kind:        string(t.Kind),
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	for _, d := range t.Days {
		resp.Days = append(resp.Days, NewWeeklyDayResponse(d))
	}
	for _, e := range t.Exceptions {
		resp.Exceptions = append(resp.Exceptions, NewExceptionResponse(e))
	}
	return resp
}

// ==================== TIME RANGE & BLOCKS ====================

type TimeRangeRequest struct {
	Start string `json:"inicio"`
	End   string `json:"fin"`
}

func (r *TimeRangeRequest) toRange() *TimeRange {
	if r == nil {
		return nil
	}
	return &TimeRange{Start: r.Start, End: r.End}
}

type RangeResponse struct {
	Start string `json:"inicio"`
	End   string `json:"fin"`
}

func newRangeResponse(r *TimeRange) *RangeResponse {
	if r == nil {
		return nil
	}
	return &RangeResponse{Start: r.Start, End: r.End}
}

type BlockRequest struct {
	Type       string  `json:"tipo"`
	Start      string  `json:"inicio"`
	End        string  `json:"fin"`
	IsRequired *bool   `json:"obligatorio"`
	ClientID   *string `json:"cliente_id"`
}

type UpsertBlocksRequest struct {
	Parent BlockParent    `json:"-"`
	Blocks []BlockRequest `json:"bloques"`
}

// ToBlocks converts the request into unvalidated blocks. Required defaults
// to true.
func (r *UpsertBlocksRequest) ToBlocks() []Block {
	blocks := make([]Block, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		required := true
		if b.IsRequired != nil {
			required = *b.IsRequired
		}
		clientID := b.ClientID
		if clientID != nil && validator.IsEmpty(*clientID) {
			clientID = nil
		}
		blocks = append(blocks, Block{
			Type:       BlockType(b.Type),
			Start:      b.Start,
			End:        b.End,
			IsRequired: required,
			ClientID:   clientID,
		})
	}
	return blocks
}

type BlockResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"tipo"`
	Start      string  `json:"inicio"`
	End        string  `json:"fin"`
	IsRequired bool    `json:"obligatorio"`
	ClientID   *string `json:"cliente_id"`
	ClientName *string `json:"cliente_nombre"`
}

func NewBlockResponses(blocks []Block) []BlockResponse {
	out := make([]BlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, BlockResponse{
			ID:         b.ID,
			Type:       string(b.Type),
			Start:      b.Start,
			End:        b.End,
			IsRequired: b.IsRequired,
			ClientID:   b.ClientID,
			ClientName: b.ClientName,
		})
	}
	return out
}

// ==================== WEEKLY DAY ====================

type UpsertWeeklyDayRequest struct {
	TemplateID string            `json:"-"`
	Weekday    int               `json:"-"`
	Range      *TimeRangeRequest `json:"rango"`
	IsActive   *bool             `json:"activo"`

	parsedRange *TimeRange
}

func (r *UpsertWeeklyDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Weekday < 1 || r.Weekday > 7 {
		errs = append(errs, validator.ValidationError{
			Field:   "dia_semana",
			Message: "dia_semana must be between 1 (Monday) and 7 (Sunday)",
		})
	}

	parsed, err := ValidateRange("rango", r.Range.toRange())
	if err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	r.parsedRange = parsed

	return errs.OrNil()
}

// ToWeeklyDay must be called after Validate. A day is active by default when
// it has a range.
func (r *UpsertWeeklyDayRequest) ToWeeklyDay() WeeklyDay {
	active := r.parsedRange != nil
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return WeeklyDay{
		TemplateID: r.TemplateID,
		Weekday:    r.Weekday,
		Range:      r.parsedRange,
		IsActive:   active,
	}
}

type WeeklyDayResponse struct {
	ID         string          `json:"id"`
	TemplateID string          `json:"plantilla_id"`
	Weekday    int             `json:"dia_semana"`
	Range      *RangeResponse  `json:"rango"`
	IsActive   bool            `json:"activo"`
	Blocks     []BlockResponse `json:"bloques"`
	UpdatedAt  string          `json:"updated_at"`
}

func NewWeeklyDayResponse(d WeeklyDay) WeeklyDayResponse {
	return WeeklyDayResponse{
		ID:         d.ID,
		TemplateID: d.TemplateID,
		Weekday:    d.Weekday,
		Range:      newRangeResponse(d.Range),
		IsActive:   d.IsActive,
		Blocks:     NewBlockResponses(d.Blocks),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}

type ReplicateDayRequest struct {
	TemplateID     string `json:"-"`
	SourceWeekday  int    `json:"dia_origen" validate:"min=1,max=7"`
	TargetWeekdays []int  `json:"dias_destino" validate:"required,min=1,dive,min=1,max=7"`
	Overwrite      bool   `json:"sobrescribir"`
}

func (r *ReplicateDayRequest) Validate() error {
	errs := validator.Struct(r)

	seen := make(map[int]bool)
	targets := make([]int, 0, len(r.TargetWeekdays))
	for _, wd := range r.TargetWeekdays {
		if wd == r.SourceWeekday {
			errs = append(errs, validator.ValidationError{
				Field:   "dias_destino",
				Message: "dias_destino must not contain dia_origen",
			})
			continue
		}
		if !seen[wd] {
			seen[wd] = true
			targets = append(targets, wd)
		}
	}
	sort.Ints(targets)
	r.TargetWeekdays = targets

	return errs.OrNil()
}

type ReplicateDayResponse struct {
	SourceWeekday int   `json:"dia_origen"`
	Replicated    []int `json:"replicados"`
	Skipped       []int `json:"omitidos"`
}

// ==================== EXCEPTION ====================

type UpsertExceptionRequest struct {
	TemplateID string            `json:"-"`
	Date       string            `json:"-"`
	Range      *TimeRangeRequest `json:"rango"`
	IsActive   *bool             `json:"activo"`
	Note       string            `json:"nota"`

	parsedDate  time.Time
	parsedRange *TimeRange
}

func (r *UpsertExceptionRequest) Validate() error {
	var errs validator.ValidationErrors

	date, ok := validator.IsValidDate(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "fecha",
			Message: "fecha must be a valid date in YYYY-MM-DD format",
		})
	}
	r.parsedDate = date

	parsed, err := ValidateRange("rango", r.Range.toRange())
	if err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	r.parsedRange = parsed

	return errs.OrNil()
}

// ToException must be called after Validate. Exceptions are active by default.
func (r *UpsertExceptionRequest) ToException() Exception {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return Exception{
		TemplateID: r.TemplateID,
		Date:       r.parsedDate,
		Range:      r.parsedRange,
		IsActive:   active,
		Note:       strings.TrimSpace(r.Note),
	}
}

type ExceptionFilter struct {
	From *time.Time
	To   *time.Time
}

type ExceptionResponse struct {
	ID         string          `json:"id"`
	TemplateID string          `json:"plantilla_id"`
	Date       string          `json:"fecha"`
	Range      *RangeResponse  `json:"rango"`
	IsActive   bool            `json:"activo"`
	Note       string          `json:"nota"`
	Blocks     []BlockResponse `json:"bloques"`
	UpdatedAt  string          `json:"updated_at"`
}

func NewExceptionResponse(e Exception) ExceptionResponse {
	return ExceptionResponse{
		ID:         e.ID,
		TemplateID: e.TemplateID,
		Date:       FormatDate(e.Date),
		Range:      newRangeResponse(e.Range),
		IsActive:   e.IsActive,
		Note:       e.Note,
		Blocks:     NewBlockResponses(e.Blocks),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

// ==================== ASSIGNMENT ====================

type AssignRequest struct {
	EmployeeID     *string `json:"empleado_id" validate:"omitempty,uuid"`
	TemplateID     string  `json:"plantilla_id" validate:"required,uuid"`
	ClientID       *string `json:"cliente_id" validate:"omitempty,uuid"`
	StartDate      string  `json:"fecha_inicio" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string `json:"fecha_fin" validate:"omitempty,datetime=2006-01-02"`
	Alias          *string `json:"alias" validate:"omitempty,max=255"`
	Color          *string `json:"color" validate:"omitempty,hexcolor"`
	IgnoreHolidays bool    `json:"ignorar_festivos"`
}

func (r *AssignRequest) Validate() error {
	r.EmployeeID = blankToNil(r.EmployeeID)
	r.ClientID = blankToNil(r.ClientID)
	r.EndDate = blankToNil(r.EndDate)
	r.Alias = blankToNil(r.Alias)
	r.Color = blankToNil(r.Color)

	errs := validator.Struct(r)
	if len(errs) > 0 {
		return errs
	}

	if r.StartDate != "" && r.EndDate != nil && *r.EndDate < r.StartDate {
		errs = append(errs, validator.ValidationError{
			Field:   "fecha_fin",
			Message: "fecha_fin must not be before fecha_inicio",
		})
	}

	return errs.OrNil()
}

type UpdateAssignmentRequest struct {
	ID             string  `json:"-"`
	EndDate        *string `json:"fecha_fin"` // "" reopens the assignment
	Alias          *string `json:"alias" validate:"omitempty,max=255"`
	Color          *string `json:"color"` // "" clears it
	IgnoreHolidays *bool   `json:"ignorar_festivos"`
}

func (r *UpdateAssignmentRequest) Validate() error {
	errs := validator.Struct(r)

	if r.EndDate != nil && !validator.IsEmpty(*r.EndDate) {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "fecha_fin",
				Message: "fecha_fin must match the format 2006-01-02",
			})
		}
	}
	if r.Color != nil && !validator.IsEmpty(*r.Color) {
		errs = append(errs, validator.Var("color", *r.Color, "hexcolor")...)
	}

	return errs.OrNil()
}

type AssignmentFilter struct {
	EmployeeID *string
	TemplateID *string
	ClientID   *string
	Unassigned bool
	ActiveOn   *time.Time

	Page  int
	Limit int
}

func (f *AssignmentFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}
	if f.Unassigned && f.EmployeeID != nil {
		errs = append(errs, validator.ValidationError{Field: "sin_empleado", Message: "sin_empleado cannot be combined with empleado_id"})
	}

	return errs.OrNil()
}

type AssignmentResponse struct {
	ID             string  `json:"id"`
	EmployeeID     *string `json:"empleado_id"`
	EmployeeName   *string `json:"empleado_nombre,omitempty"`
	TemplateID     string  `json:"plantilla_id"`
	TemplateName   string  `json:"plantilla_nombre,omitempty"`
	ClientID       *string `json:"cliente_id"`
	ClientName     *string `json:"cliente_nombre,omitempty"`
	StartDate      string  `json:"fecha_inicio"`
	EndDate        *string `json:"fecha_fin"`
	Alias          *string `json:"alias"`
	Color          *string `json:"color"`
	IgnoreHolidays bool    `json:"ignorar_festivos"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func NewAssignmentResponse(a Assignment) AssignmentResponse {
	var end *string
	if a.EndDate != nil {
		s := FormatDate(*a.EndDate)
		end = &s
	}
	return AssignmentResponse{
		ID:             a.ID,
		EmployeeID:     a.EmployeeID,
		EmployeeName:   a.EmployeeName,
		TemplateID:     a.TemplateID,
		TemplateName:   a.TemplateName,
		ClientID:       a.ClientID,
		ClientName:     a.ClientName,
		StartDate:      FormatDate(a.StartDate),
		EndDate:        end,
		Alias:          a.Alias,
		Color:          a.Color,
		IgnoreHolidays: a.IgnoreHolidays,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.Format(time.RFC3339),
	}
}

type TruncationResponse struct {
	AssignmentID string `json:"asignacion_id"`
	EndDate      string `json:"fecha_fin"`
}

type AssignResponse struct {
	Assignment AssignmentResponse   `json:"asignacion"`
	Truncated  []TruncationResponse `json:"recortadas"`
	Deleted    []string             `json:"eliminadas"`
	ShiftType  *string              `json:"tipo_turno,omitempty"`
}

type UnassignResponse struct {
	EmployeeID string               `json:"empleado_id"`
	Truncated  []TruncationResponse `json:"recortadas"`
	Deleted    []string             `json:"eliminadas"`
}

func newTruncationResponses(ts []Truncation) []TruncationResponse {
	out := make([]TruncationResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, TruncationResponse{AssignmentID: t.AssignmentID, EndDate: FormatDate(t.EndDate)})
	}
	return out
}

// NewAssignResponse describes an inserted assignment and the edits made to
// the rest of the timeline.
func NewAssignResponse(a Assignment, change TimelineChange) AssignResponse {
	deleted := change.Delete
	if deleted == nil {
		deleted = []string{}
	}
	return AssignResponse{
		Assignment: NewAssignmentResponse(a),
		Truncated:  newTruncationResponses(change.Truncate),
		Deleted:    deleted,
	}
}

func NewUnassignResponse(employeeID string, change TimelineChange) UnassignResponse {
	deleted := change.Delete
	if deleted == nil {
		deleted = []string{}
	}
	return UnassignResponse{
		EmployeeID: employeeID,
		Truncated:  newTruncationResponses(change.Truncate),
		Deleted:    deleted,
	}
}

type ListAssignmentsResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Assignments []AssignmentResponse `json:"asignaciones"`
}

// ==================== PLAN ====================

type PlanClientResponse struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

type PlanBlockResponse struct {
	Type       string  `json:"tipo"`
	Start      string  `json:"inicio"`
	End        string  `json:"fin"`
	IsRequired bool    `json:"obligatorio"`
	ClientID   *string `json:"cliente_id"`
	ClientName *string `json:"cliente_nombre"`
}

type PlanResponse struct {
	TemplateID   *string             `json:"plantilla_id"`
	TemplateName *string             `json:"plantilla_nombre"`
	Client       *PlanClientResponse `json:"cliente"`
	Date         string              `json:"fecha"`
	Mode         string              `json:"modo"`
	Range        *RangeResponse      `json:"rango"`
	Blocks       []PlanBlockResponse `json:"bloques"`
	Note         *string             `json:"nota,omitempty"`
	ShiftType    string              `json:"tipo_turno"`
}

// Wire names of the plan modes.
const (
	PlanModeNoneJSON      = "sin_plantilla"
	PlanModeWeeklyJSON    = "semanal"
	PlanModeExceptionJSON = "excepcion"
)

func NewPlanResponse(plan Plan) PlanResponse {
	resp := PlanResponse{
		Date:      FormatDate(plan.Date()),
		Blocks:    make([]PlanBlockResponse, 0, len(plan.Blocks())),
		ShiftType: string(Classify(plan)),
	}
	for _, b := range plan.Blocks() {
		resp.Blocks = append(resp.Blocks, PlanBlockResponse{
			Type:       string(b.Type),
			Start:      b.Start,
			End:        b.End,
			IsRequired: b.IsRequired,
			ClientID:   b.ClientID,
			ClientName: b.ClientName,
		})
	}

	var day *DayPlan
	switch p := plan.(type) {
	case WeeklyPlan:
		resp.Mode = PlanModeWeeklyJSON
		day = &p.DayPlan
	case ExceptionPlan:
		resp.Mode = PlanModeExceptionJSON
		day = &p.DayPlan
		if p.Note != "" {
			note := p.Note
			resp.Note = &note
		}
	default:
		resp.Mode = PlanModeNoneJSON
	}

	if day != nil {
		id, name := day.Template.ID, day.Template.Name
		resp.TemplateID, resp.TemplateName = &id, &name
		resp.Range = newRangeResponse(day.Range)
		if day.Client != nil {
			resp.Client = &PlanClientResponse{ID: day.Client.ID, Name: day.Client.Name}
		}
	}
	return resp
}

// MaxPlanRangeDays bounds the plan preview window.
const MaxPlanRangeDays = 62

type PlanRangeRequest struct {
	EmployeeID string
	From       time.Time
	To         time.Time
}

func (r *PlanRangeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee", Message: "employee is required"})
	}
	if r.To.Before(r.From) {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "to must not be before from"})
	} else if days := int(r.To.Sub(r.From).Hours()/24) + 1; days > MaxPlanRangeDays {
		errs = append(errs, validator.ValidationError{Field: "to", Message: fmt.Sprintf("range must not exceed %d days", MaxPlanRangeDays)})
	}
	return errs.OrNil()
}

// ==================== RECALCULATION ====================

type RecalculationFailure struct {
	EmployeeID string `json:"empleado_id"`
	Error      string `json:"error"`
}

type RecalculationResult struct {
	TemplateID string                 `json:"plantilla_id"`
	Date       string                 `json:"fecha"`
	Processed  int                    `json:"procesados"`
	Updated    int                    `json:"actualizados"`
	Failures   []RecalculationFailure `json:"fallos"`
}

func blankToNil(s *string) *string {
	if s == nil || validator.IsEmpty(*s) {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
