// Package memory is an in-process storage backend. It backs local
// development (STORE=memory) and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	employees  map[string]employee.Employee
	users      map[string]user.User
	attendance map[string]attendance.Record
	dayIndex   map[string]string
	lates      map[string]late.Event
	policy     *late.Policy
	payrolls   map[string]payroll.Snapshot
	holidays   map[string]holiday.Holiday
	leaveApps  map[string]leave.Application
}

func newState() *state {
	return &state{
		employees:  map[string]employee.Employee{},
		users:      map[string]user.User{},
		attendance: map[string]attendance.Record{},
		dayIndex:   map[string]string{},
		lates:      map[string]late.Event{},
		payrolls:   map[string]payroll.Snapshot{},
		holidays:   map[string]holiday.Holiday{},
		leaveApps:  map[string]leave.Application{},
	}
}

func (st *state) clone() *state {
	out := newState()
	for k, v := range st.employees {
		out.employees[k] = cloneEmployee(v)
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.attendance {
		out.attendance[k] = cloneRecord(v)
	}
	for k, v := range st.dayIndex {
		out.dayIndex[k] = v
	}
	for k, v := range st.lates {
		out.lates[k] = v
	}
	if st.policy != nil {
		p := *st.policy
		out.policy = &p
	}
	for k, v := range st.payrolls {
		out.payrolls[k] = cloneSnapshot(v)
	}
	for k, v := range st.holidays {
		out.holidays[k] = v
	}
	for k, v := range st.leaveApps {
		out.leaveApps[k] = v
	}
	return out
}

// Store holds every entity in memory. Transactions are serialized and
// roll back by restoring a copy of the state taken when they began.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

type txMarker struct{}

// WithinTx implements database.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	backup := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(backup)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		s.restore(backup)
		return err
	}
	return nil
}

func (s *Store) restore(backup *state) {
	s.mu.Lock()
	s.data = backup
	s.mu.Unlock()
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func dayIndexKey(employeeID string, day time.Time) string {
	return employeeID + "|" + day.Format(timeutil.DateLayout)
}

// Seed helpers

func (s *Store) PutEmployee(e employee.Employee) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.UpdatedAt = s.now()
	s.data.employees[e.ID] = cloneEmployee(e)
	return e
}

func (s *Store) PutUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	s.data.users[u.ID] = u
	return u
}

func (s *Store) PutLeaveApplication(a leave.Application) leave.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	s.data.leaveApps[a.ID] = a
	return a
}

func cloneEmployee(e employee.Employee) employee.Employee {
	e.Allowances = e.Allowances.Clone()
	e.LeaveBalance = e.LeaveBalance.Clone()
	return e
}

func cloneRecord(r attendance.Record) attendance.Record {
	r.Punches = append([]attendance.Punch(nil), r.Punches...)
	if r.AuditLog != nil {
		log := make([]attendance.AuditEntry, len(r.AuditLog))
		for i, e := range r.AuditLog {
			e.PreviousPunches = append([]attendance.Punch(nil), e.PreviousPunches...)
			log[i] = e
		}
		r.AuditLog = log
	}
	return r
}

func cloneSnapshot(s payroll.Snapshot) payroll.Snapshot {
	allowances := make(map[string]decimal.Decimal, len(s.Allowances))
	for k, v := range s.Allowances {
		allowances[k] = v
	}
	s.Allowances = allowances
	s.Adjustments = append([]payroll.Adjustment(nil), s.Adjustments...)
	if s.RegenerationHistory != nil {
		history := make([]payroll.Regeneration, len(s.RegenerationHistory))
		for i, h := range s.RegenerationHistory {
			if h.Changes != nil {
				changes := make([]payroll.FieldChange, len(h.Changes))
				copy(changes, h.Changes)
				h.Changes = changes
			}
			history[i] = h
		}
		s.RegenerationHistory = history
	}
	return s
}
