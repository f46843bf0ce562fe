package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// store is an in-memory stand-in for the schedule tables. Each fake
// repository is a view over the same store.
type store struct {
	mu sync.Mutex

	templates   map[string]schedule.Template
	days        map[string]schedule.WeeklyDay
	exceptions  map[string]schedule.Exception
	blocks      map[schedule.BlockParent][]schedule.Block
	assignments map[string]schedule.Assignment
	employees   map[string]employee.Employee
	clients     map[string]client.Client
	// employee id -> client id
	employeeClients map[string]string

	weekdayLookups   int
	activeOnLookups  int
	timelineLocks    int
	shiftTypeFailFor map[string]error

	lockedParents []schedule.BlockParent
	// onLockParent runs with mu held once the parent row is locked.
	onLockParent func(parent schedule.BlockParent)
}

func newStore() *store {
	return &store{
		templates:        map[string]schedule.Template{},
		days:             map[string]schedule.WeeklyDay{},
		exceptions:       map[string]schedule.Exception{},
		blocks:           map[schedule.BlockParent][]schedule.Block{},
		assignments:      map[string]schedule.Assignment{},
		employees:        map[string]employee.Employee{},
		clients:          map[string]client.Client{},
		employeeClients:  map[string]string{},
		shiftTypeFailFor: map[string]error{},
	}
}

// ===== TEMPLATES =====

type fakeTemplates struct{ s *store }

func (f fakeTemplates) Create(_ context.Context, t schedule.Template) (schedule.Template, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.templates {
		if existing.CompanyID == t.CompanyID && existing.Name == t.Name {
			return schedule.Template{}, schedule.ErrTemplateNameExists
		}
	}
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	f.s.templates[t.ID] = t
	return t, nil
}

func (f fakeTemplates) GetByID(_ context.Context, id string, companyID string) (schedule.Template, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.templates[id]
	if !ok || t.CompanyID != companyID {
		return schedule.Template{}, schedule.ErrTemplateNotFound
	}
	return t, nil
}

func (f fakeTemplates) List(_ context.Context, companyID string, filter schedule.TemplateFilter) ([]schedule.Template, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []schedule.Template
	for _, t := range f.s.templates {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (f fakeTemplates) Update(_ context.Context, t schedule.Template) (schedule.Template, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.templates {
		if existing.ID != t.ID && existing.CompanyID == t.CompanyID && existing.Name == t.Name {
			return schedule.Template{}, schedule.ErrTemplateNameExists
		}
	}
	t.UpdatedAt = time.Now()
	f.s.templates[t.ID] = t
	return t, nil
}

// Delete cascades the way the foreign keys do.
func (f fakeTemplates) Delete(_ context.Context, id string, companyID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.templates[id]
	if !ok || t.CompanyID != companyID {
		return schedule.ErrTemplateNotFound
	}
	delete(f.s.templates, id)
	for dayID, d := range f.s.days {
		if d.TemplateID == id {
			delete(f.s.blocks, schedule.DayParent(dayID))
			delete(f.s.days, dayID)
		}
	}
	for exID, e := range f.s.exceptions {
		if e.TemplateID == id {
			delete(f.s.blocks, schedule.ExceptionParent(exID))
			delete(f.s.exceptions, exID)
		}
	}
	for aID, a := range f.s.assignments {
		if a.TemplateID == id {
			delete(f.s.assignments, aID)
		}
	}
	return nil
}

// ===== WEEKLY DAYS =====

type fakeDays struct{ s *store }

func (f fakeDays) Upsert(_ context.Context, d schedule.WeeklyDay) (schedule.WeeklyDay, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, existing := range f.s.days {
		if existing.TemplateID == d.TemplateID && existing.Weekday == d.Weekday {
			d.ID, d.CreatedAt = id, existing.CreatedAt
			d.UpdatedAt = time.Now()
			f.s.days[id] = d
			return d, nil
		}
	}
	d.ID = uuid.NewString()
	d.CreatedAt, d.UpdatedAt = time.Now(), time.Now()
	f.s.days[d.ID] = d
	return d, nil
}

func (f fakeDays) GetByID(_ context.Context, id string) (schedule.WeeklyDay, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.days[id]
	if !ok {
		return schedule.WeeklyDay{}, schedule.ErrWeeklyDayNotFound
	}
	return d, nil
}

func (f fakeDays) GetByWeekday(_ context.Context, templateID string, weekday int) (schedule.WeeklyDay, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.weekdayLookups++
	for _, d := range f.s.days {
		if d.TemplateID == templateID && d.Weekday == weekday {
			return d, nil
		}
	}
	return schedule.WeeklyDay{}, schedule.ErrWeeklyDayNotFound
}

func (f fakeDays) ListByTemplate(_ context.Context, templateID string) ([]schedule.WeeklyDay, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []schedule.WeeklyDay{}
	for _, d := range f.s.days {
		if d.TemplateID == templateID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (f fakeDays) Reset(_ context.Context, id string) (schedule.WeeklyDay, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.days[id]
	if !ok {
		return schedule.WeeklyDay{}, schedule.ErrWeeklyDayNotFound
	}
	d.Range, d.IsActive = nil, false
	d.UpdatedAt = time.Now()
	f.s.days[id] = d
	return d, nil
}

// ===== EXCEPTIONS =====

type fakeExceptions struct{ s *store }

func (f fakeExceptions) Upsert(_ context.Context, e schedule.Exception) (schedule.Exception, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e.Date = schedule.DateOnly(e.Date)
	for id, existing := range f.s.exceptions {
		if existing.TemplateID == e.TemplateID && existing.Date.Equal(e.Date) {
			e.ID, e.CreatedAt = id, existing.CreatedAt
			e.UpdatedAt = time.Now()
			f.s.exceptions[id] = e
			return e, nil
		}
	}
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = time.Now(), time.Now()
	f.s.exceptions[e.ID] = e
	return e, nil
}

func (f fakeExceptions) GetByID(_ context.Context, id string) (schedule.Exception, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.exceptions[id]
	if !ok {
		return schedule.Exception{}, schedule.ErrExceptionNotFound
	}
	return e, nil
}

func (f fakeExceptions) GetByDate(_ context.Context, templateID string, date time.Time) (schedule.Exception, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, e := range f.s.exceptions {
		if e.TemplateID == templateID && e.Date.Equal(schedule.DateOnly(date)) {
			return e, nil
		}
	}
	return schedule.Exception{}, schedule.ErrExceptionNotFound
}

func (f fakeExceptions) ListByTemplate(_ context.Context, templateID string, filter schedule.ExceptionFilter) ([]schedule.Exception, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []schedule.Exception{}
	for _, e := range f.s.exceptions {
		if e.TemplateID != templateID {
			continue
		}
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Date.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f fakeExceptions) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.exceptions[id]; !ok {
		return schedule.ErrExceptionNotFound
	}
	delete(f.s.exceptions, id)
	delete(f.s.blocks, schedule.ExceptionParent(id))
	return nil
}

// ===== BLOCKS =====

type fakeBlocks struct{ s *store }

func (f fakeBlocks) LockParent(_ context.Context, parent schedule.BlockParent) (schedule.LockedParent, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.lockedParents = append(f.s.lockedParents, parent)
	if f.s.onLockParent != nil {
		f.s.onLockParent(parent)
	}
	switch parent.Kind {
	case schedule.BlockParentDay:
		d, ok := f.s.days[parent.ID]
		if !ok {
			return schedule.LockedParent{}, schedule.ErrWeeklyDayNotFound
		}
		return schedule.LockedParent{TemplateID: d.TemplateID, Range: d.Range}, nil
	default:
		e, ok := f.s.exceptions[parent.ID]
		if !ok {
			return schedule.LockedParent{}, schedule.ErrExceptionNotFound
		}
		return schedule.LockedParent{TemplateID: e.TemplateID, Range: e.Range}, nil
	}
}

func (f fakeBlocks) ListByParent(_ context.Context, parent schedule.BlockParent) ([]schedule.Block, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]schedule.Block, 0, len(f.s.blocks[parent]))
	for _, b := range f.s.blocks[parent] {
		if b.ClientID != nil {
			if c, ok := f.s.clients[*b.ClientID]; ok {
				name := c.Name
				b.ClientName = &name
			}
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (f fakeBlocks) ReplaceAll(_ context.Context, parent schedule.BlockParent, blocks []schedule.Block) ([]schedule.Block, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	saved := make([]schedule.Block, 0, len(blocks))
	for _, b := range blocks {
		b.ID = uuid.NewString()
		parentID := parent.ID
		if parent.Kind == schedule.BlockParentDay {
			b.DayID, b.ExceptionID = &parentID, nil
		} else {
			b.DayID, b.ExceptionID = nil, &parentID
		}
		b.CreatedAt = time.Now()
		saved = append(saved, b)
	}
	f.s.blocks[parent] = saved
	return saved, nil
}

func (f fakeBlocks) DeleteByParent(_ context.Context, parent schedule.BlockParent) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.blocks, parent)
	return nil
}

// ===== ASSIGNMENTS =====

type fakeAssignments struct{ s *store }

func sameEmployee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f fakeAssignments) withJoins(a schedule.Assignment) schedule.Assignment {
	if t, ok := f.s.templates[a.TemplateID]; ok {
		a.TemplateName = t.Name
	}
	if a.ClientID != nil {
		if c, ok := f.s.clients[*a.ClientID]; ok {
			name := c.Name
			a.ClientName = &name
		}
	}
	return a
}

func (f fakeAssignments) Create(_ context.Context, a schedule.Assignment) (schedule.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	f.s.assignments[a.ID] = a
	return f.withJoins(a), nil
}

func (f fakeAssignments) GetByID(_ context.Context, id string, companyID string) (schedule.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.assignments[id]
	if !ok || a.CompanyID != companyID {
		return schedule.Assignment{}, schedule.ErrAssignmentNotFound
	}
	return f.withJoins(a), nil
}

func (f fakeAssignments) LockTimeline(context.Context, string, *string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.timelineLocks++
	return nil
}

func (f fakeAssignments) sorted(keep func(schedule.Assignment) bool) []schedule.Assignment {
	out := []schedule.Assignment{}
	for _, a := range f.s.assignments {
		if keep(a) {
			out = append(out, f.withJoins(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (f fakeAssignments) ListTimeline(_ context.Context, companyID string, employeeID *string) ([]schedule.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.sorted(func(a schedule.Assignment) bool {
		return a.CompanyID == companyID && sameEmployee(a.EmployeeID, employeeID)
	}), nil
}

func (f fakeAssignments) ListActiveOn(_ context.Context, companyID string, employeeID string, date time.Time) ([]schedule.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.activeOnLookups++
	return f.sorted(func(a schedule.Assignment) bool {
		return a.CompanyID == companyID &&
			(a.EmployeeID == nil || *a.EmployeeID == employeeID) &&
			a.ActiveOn(date)
	}), nil
}

func (f fakeAssignments) ListActiveByTemplate(_ context.Context, companyID string, templateID string, date time.Time) ([]schedule.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.sorted(func(a schedule.Assignment) bool {
		return a.CompanyID == companyID && a.TemplateID == templateID && a.EmployeeID != nil && a.ActiveOn(date)
	}), nil
}

func (f fakeAssignments) List(_ context.Context, companyID string, filter schedule.AssignmentFilter) ([]schedule.Assignment, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := f.sorted(func(a schedule.Assignment) bool {
		switch {
		case a.CompanyID != companyID:
			return false
		case filter.EmployeeID != nil && !sameEmployee(a.EmployeeID, filter.EmployeeID):
			return false
		case filter.Unassigned && a.EmployeeID != nil:
			return false
		case filter.TemplateID != nil && a.TemplateID != *filter.TemplateID:
			return false
		case filter.ActiveOn != nil && !a.ActiveOn(*filter.ActiveOn):
			return false
		}
		return true
	})
	return out, int64(len(out)), nil
}

func (f fakeAssignments) Update(_ context.Context, a schedule.Assignment) (schedule.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.assignments[a.ID]; !ok {
		return schedule.Assignment{}, schedule.ErrAssignmentNotFound
	}
	a.UpdatedAt = time.Now()
	f.s.assignments[a.ID] = a
	return f.withJoins(a), nil
}

func (f fakeAssignments) UpdateEnd(_ context.Context, id string, companyID string, endDate time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.assignments[id]
	if !ok || a.CompanyID != companyID {
		return schedule.ErrAssignmentNotFound
	}
	end := endDate
	a.EndDate = &end
	f.s.assignments[id] = a
	return nil
}

func (f fakeAssignments) Delete(_ context.Context, id string, companyID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.assignments[id]
	if !ok || a.CompanyID != companyID {
		return schedule.ErrAssignmentNotFound
	}
	delete(f.s.assignments, id)
	return nil
}

func (f fakeAssignments) DeleteMany(_ context.Context, companyID string, ids []string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, id := range ids {
		if a, ok := f.s.assignments[id]; ok && a.CompanyID == companyID {
			delete(f.s.assignments, id)
		}
	}
	return nil
}

// ===== EMPLOYEES & CLIENTS =====

type fakeEmployees struct{ s *store }

func (f fakeEmployees) GetByID(_ context.Context, id string, companyID string) (employee.Employee, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f fakeEmployees) UpdateShiftType(_ context.Context, id string, companyID string, shiftType employee.ShiftType) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.shiftTypeFailFor[id]; err != nil {
		return err
	}
	e, ok := f.s.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.ErrEmployeeNotFound
	}
	st := shiftType
	e.ShiftType = &st
	f.s.employees[id] = e
	return nil
}

func (f fakeEmployees) ListScheduled(_ context.Context, _ time.Time) ([]employee.Employee, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]employee.Employee, 0, len(f.s.employees))
	for _, e := range f.s.employees {
		out = append(out, e)
	}
	return out, nil
}

type fakeClients struct{ s *store }

func (f fakeClients) GetByID(_ context.Context, id string, companyID string) (client.Client, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.clients[id]
	if !ok || c.CompanyID != companyID {
		return client.Client{}, client.ErrClientNotFound
	}
	return c, nil
}

func (f fakeClients) GetActiveForEmployee(_ context.Context, employeeID string, companyID string, _ time.Time) (client.Client, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.clients[f.s.employeeClients[employeeID]]
	if !ok || c.CompanyID != companyID || !c.IsActive {
		return client.Client{}, client.ErrClientNotFound
	}
	return c, nil
}

// ===== GUARD =====

type fakeGuard struct{ s *store }

func (f fakeGuard) Ensure(_ context.Context, companyID string, kind schedule.EntityKind, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	templateCompany := func(templateID string) string {
		return f.s.templates[templateID].CompanyID
	}

	var owner string
	switch kind {
	case schedule.EntityTemplate:
		owner = templateCompany(id)
	case schedule.EntityWeeklyDay:
		if d, ok := f.s.days[id]; ok {
			owner = templateCompany(d.TemplateID)
		}
	case schedule.EntityException:
		if e, ok := f.s.exceptions[id]; ok {
			owner = templateCompany(e.TemplateID)
		}
	case schedule.EntityAssignment:
		owner = f.s.assignments[id].CompanyID
	case schedule.EntityEmployee:
		owner = f.s.employees[id].CompanyID
	case schedule.EntityClient:
		owner = f.s.clients[id].CompanyID
	}
	if owner == "" || owner != companyID {
		return kind.NotFoundErr()
	}
	return nil
}

// ===== INFRASTRUCTURE =====

type passThroughTx struct{}

func (passThroughTx) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct{ today time.Time }

func (c fixedClock) Today() time.Time { return c.today }

// countingCache mirrors the Redis cache: one version counter per company
// that is part of every key.
type countingCache struct {
	mu            sync.Mutex
	entries       map[string]schedule.PlanResponse
	versions      map[string]int64
	invalidations int
	// beforeSet runs (unlocked) before each Set.
	beforeSet func()
}

func newCountingCache() *countingCache {
	return &countingCache{
		entries:  map[string]schedule.PlanResponse{},
		versions: map[string]int64{},
	}
}

func cacheKey(companyID string, version int64, employeeID string, date time.Time) string {
	return fmt.Sprintf("%s|v%d|%s|%s", companyID, version, employeeID, schedule.FormatDate(date))
}

func (c *countingCache) Get(_ context.Context, companyID, employeeID string, date time.Time) (schedule.PlanResponse, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.versions[companyID]
	p, ok := c.entries[cacheKey(companyID, v, employeeID, date)]
	return p, v, ok
}

func (c *countingCache) Set(_ context.Context, companyID, employeeID string, date time.Time, version int64, plan schedule.PlanResponse) {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(companyID, version, employeeID, date)] = plan
}

func (c *countingCache) Invalidate(_ context.Context, companyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.versions[companyID]++
}

// recordingTrigger forwards to next and remembers the templates it saw.
type recordingTrigger struct {
	next  schedule.RecalculationTrigger
	calls []string
}

func (r *recordingTrigger) OnTemplateBlocksChanged(ctx context.Context, tc tenant.Context, templateID string, date *time.Time) error {
	r.calls = append(r.calls, templateID)
	if r.next == nil {
		return nil
	}
	return r.next.OnTemplateBlocksChanged(ctx, tc, templateID, date)
}

type capturePublisher struct {
	bodies [][]byte
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

// ===== TEST ENVIRONMENT =====

var (
	companyA = uuid.NewString()
	companyB = uuid.NewString()
	tcA      = tenant.Context{CompanyID: companyA, UserID: "manager-a"}
	tcB      = tenant.Context{CompanyID: companyB, UserID: "manager-b"}
)

// 2025-03-10 is a Monday.
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	store        *store
	cache        *countingCache
	trigger      *recordingTrigger
	repos        Repositories
	resolver     *Resolver
	recalculator *Recalculator
	schedules    schedule.ScheduleService
	assignments  schedule.AssignmentService
	plans        schedule.PlanService
}

func newTestEnv(t *testing.T, today time.Time) *testEnv {
	t.Helper()
	s := newStore()
	repos := Repositories{
		Templates:   fakeTemplates{s},
		Days:        fakeDays{s},
		Exceptions:  fakeExceptions{s},
		Blocks:      fakeBlocks{s},
		Assignments: fakeAssignments{s},
		Employees:   fakeEmployees{s},
		Clients:     fakeClients{s},
		Guard:       fakeGuard{s},
	}
	clock := fixedClock{today: today}
	cache := newCountingCache()
	resolver := NewResolver(repos)
	recalculator := NewRecalculator(resolver, repos, clock)
	trigger := &recordingTrigger{next: NewSyncTrigger(recalculator)}

	return &testEnv{
		store:        s,
		cache:        cache,
		trigger:      trigger,
		repos:        repos,
		resolver:     resolver,
		recalculator: recalculator,
		schedules:    NewScheduleService(passThroughTx{}, repos, cache, trigger, recalculator, clock),
		assignments:  NewAssignmentService(passThroughTx{}, repos, cache, recalculator, clock),
		plans:        NewPlanService(resolver, fakeGuard{s}, cache),
	}
}

func (e *testEnv) addEmployee(companyID, name string) string {
	id := uuid.NewString()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.employees[id] = employee.Employee{ID: id, CompanyID: companyID, FullName: name}
	return id
}

func (e *testEnv) addClient(companyID, name string, active bool) string {
	id := uuid.NewString()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.clients[id] = client.Client{ID: id, CompanyID: companyID, Name: name, IsActive: active}
	return id
}

func (e *testEnv) shiftTypeOf(employeeID string) *employee.ShiftType {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.employees[employeeID].ShiftType
}

func (e *testEnv) createTemplate(t *testing.T, tc tenant.Context, name string) string {
	t.Helper()
	resp, err := e.schedules.CreateTemplate(context.Background(), tc, schedule.CreateTemplateRequest{Name: name})
	require.NoError(t, err)
	return resp.ID
}

// configureDay sets the weekday's range and blocks and returns the day id.
func (e *testEnv) configureDay(t *testing.T, tc tenant.Context, templateID string, weekday int, start, end string, blocks ...schedule.BlockRequest) string {
	t.Helper()
	ctx := context.Background()
	day, err := e.schedules.UpsertWeeklyDay(ctx, tc, schedule.UpsertWeeklyDayRequest{
		TemplateID: templateID,
		Weekday:    weekday,
		Range:      &schedule.TimeRangeRequest{Start: start, End: end},
	})
	require.NoError(t, err)
	if len(blocks) > 0 {
		_, err = e.schedules.UpsertBlocks(ctx, tc, schedule.UpsertBlocksRequest{
			Parent: schedule.DayParent(day.ID),
			Blocks: blocks,
		})
		require.NoError(t, err)
	}
	return day.ID
}

// seedAssignment writes an assignment directly, bypassing reconciliation.
func (e *testEnv) seedAssignment(companyID string, employeeID *string, templateID string, start time.Time, end *time.Time) string {
	a, _ := e.repos.Assignments.Create(context.Background(), schedule.Assignment{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		TemplateID: templateID,
		StartDate:  start,
		EndDate:    end,
	})
	return a.ID
}

func (e *testEnv) assignment(id string) (schedule.Assignment, bool) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	a, ok := e.store.assignments[id]
	return a, ok
}

func block(kind, start, end string) schedule.BlockRequest {
	return schedule.BlockRequest{Type: kind, Start: start, End: end}
}

func date(s string) time.Time {
	d, err := schedule.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func strPtr(s string) *string { return &s }
