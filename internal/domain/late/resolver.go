package late

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved" // forgiven by approval
	OutcomeGrace    Outcome = "grace"    // forgiven by a monthly grace slot
	OutcomeDisabled Outcome = "disabled" // policy switched off
	OutcomeDeducted Outcome = "deducted"
)

// Charge is what one deductible unit (a late event or a half-day pair) costs.
type Charge struct {
	Type         DeductionType   `json:"type"`
	SalaryAmount decimal.Decimal `json:"salary_amount"`
	LeaveUnits   decimal.Decimal `json:"leave_units"`
}

type EventResolution struct {
	EventID     string    `json:"event_id"`
	Date        time.Time `json:"date"`
	LateMinutes int       `json:"late_minutes"`
	Status      Status    `json:"status"`
	Outcome     Outcome   `json:"outcome"`
	Charge      Charge    `json:"charge"`
}

type HalfDayPair struct {
	Dates  []time.Time `json:"dates"`
	Charge Charge      `json:"charge"`
}

type Resolution struct {
	PerDaySalary   decimal.Decimal   `json:"per_day_salary"`
	Events         []EventResolution `json:"events"`
	HalfDayPairs   []HalfDayPair     `json:"half_day_pairs"`
	UnpairedHalves int               `json:"unpaired_half_days"`

	LateSalaryDeduction    decimal.Decimal `json:"late_salary_deduction"`
	HalfDaySalaryDeduction decimal.Decimal `json:"half_day_salary_deduction"`
	LateLeaveUnits         decimal.Decimal `json:"late_leave_units"`
	HalfDayLeaveUnits      decimal.Decimal `json:"half_day_leave_units"`

	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

func (r Resolution) TotalSalaryDeduction() decimal.Decimal {
	return r.LateSalaryDeduction.Add(r.HalfDaySalaryDeduction)
}

func (r Resolution) TotalLeaveUnits() decimal.Decimal {
	return r.LateLeaveUnits.Add(r.HalfDayLeaveUnits)
}

// ForEvent returns the resolution of the event with id.
func (r Resolution) ForEvent(id string) (EventResolution, bool) {
	for _, e := range r.Events {
		if e.EventID == id {
			return e, true
		}
	}
	return EventResolution{}, false
}

type ResolveInput struct {
	Events      []Event
	HalfDays    []HalfDay
	Policy      Policy
	BasicSalary decimal.Decimal
	// LeaveBalance is the opening balance of Policy.LeaveBucket.
	LeaveBalance decimal.Decimal
	// LeaveOnly disables the salary fallback of a leave charge.
	LeaveOnly bool
}

// Resolve decides, for one employee-month, which late events and half-day
// pairs are forgiven and what the rest cost. It is a pure function of its
// input: the same input always yields the same assignment.
func Resolve(in ResolveInput) (Resolution, error) {
	perDay := in.BasicSalary.DivRound(decimal.NewFromInt(30), 2)
	c := &charger{
		preference: in.Policy.DeductionPreference,
		perDay:     perDay,
		balance:    in.LeaveBalance,
		leaveOnly:  in.LeaveOnly,
	}
	if c.balance.IsNegative() {
		c.balance = decimal.Zero
	}

	res := Resolution{
		PerDaySalary:           perDay,
		Events:                 []EventResolution{},
		HalfDayPairs:           []HalfDayPair{},
		LateSalaryDeduction:    decimal.Zero,
		HalfDaySalaryDeduction: decimal.Zero,
		LateLeaveUnits:         decimal.Zero,
		HalfDayLeaveUnits:      decimal.Zero,
		OpeningBalance:         c.balance,
	}

	events := make([]Event, 0, len(in.Events))
	for _, e := range in.Events {
		if e.Status != StatusRejected {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})

	// Only pending events compete for grace slots.
	pendingSeen := 0
	for _, e := range events {
		er := EventResolution{
			EventID:     e.ID,
			Date:        e.Date,
			LateMinutes: e.LateMinutes,
			Status:      e.Status,
			Charge:      noCharge(),
		}

		switch {
		case e.Status == StatusApproved:
			er.Outcome = OutcomeApproved
		case !in.Policy.IsEnabled:
			er.Outcome = OutcomeDisabled
		case pendingSeen < in.Policy.GraceDaysPerMonth:
			er.Outcome = OutcomeGrace
		default:
			charge, err := c.charge()
			if err != nil {
				return Resolution{}, err
			}
			er.Outcome = OutcomeDeducted
			er.Charge = charge
			res.LateSalaryDeduction = res.LateSalaryDeduction.Add(charge.SalaryAmount)
			res.LateLeaveUnits = res.LateLeaveUnits.Add(charge.LeaveUnits)
		}
		if e.Status == StatusPending {
			pendingSeen++
		}
		res.Events = append(res.Events, er)
	}

	halves := make([]HalfDay, len(in.HalfDays))
	copy(halves, in.HalfDays)
	sort.SliceStable(halves, func(i, j int) bool { return halves[i].Date.Before(halves[j].Date) })

	perPair := in.Policy.HalfDaysToFullDay
	if perPair < 1 {
		perPair = 2
	}
	for i := 0; i+perPair <= len(halves); i += perPair {
		pair := HalfDayPair{Dates: make([]time.Time, 0, perPair)}
		for _, h := range halves[i : i+perPair] {
			pair.Dates = append(pair.Dates, h.Date)
		}
		pair.Charge = noCharge()
		if !in.Policy.IsEnabled {
			res.HalfDayPairs = append(res.HalfDayPairs, pair)
			continue
		}
		charge, err := c.charge()
		if err != nil {
			return Resolution{}, err
		}
		pair.Charge = charge
		res.HalfDaySalaryDeduction = res.HalfDaySalaryDeduction.Add(charge.SalaryAmount)
		res.HalfDayLeaveUnits = res.HalfDayLeaveUnits.Add(charge.LeaveUnits)
		res.HalfDayPairs = append(res.HalfDayPairs, pair)
	}
	res.UnpairedHalves = len(halves) % perPair

	res.ClosingBalance = c.balance
	return res, nil
}

func noCharge() Charge {
	return Charge{Type: DeductionNone, SalaryAmount: decimal.Zero, LeaveUnits: decimal.Zero}
}

type charger struct {
	preference DeductionPreference
	perDay     decimal.Decimal
	balance    decimal.Decimal
	leaveOnly  bool
}

var one = decimal.NewFromInt(1)

// charge costs one full day. A leave charge takes a whole unit when the
// running balance allows; a fractional balance is used up and the rest of
// the day falls back to salary.
func (c *charger) charge() (Charge, error) {
	if c.preference == PreferSalary {
		return Charge{Type: DeductionSalary, SalaryAmount: c.perDay, LeaveUnits: decimal.Zero}, nil
	}

	if c.balance.GreaterThanOrEqual(one) {
		c.balance = c.balance.Sub(one)
		return Charge{Type: DeductionLeave, SalaryAmount: decimal.Zero, LeaveUnits: one}, nil
	}
	if c.leaveOnly {
		return Charge{}, ErrInsufficientLeaveBalance
	}
	if c.balance.IsPositive() {
		units := c.balance
		c.balance = decimal.Zero
		remainder := c.perDay.Mul(one.Sub(units)).Round(2)
		return Charge{Type: DeductionLeave, SalaryAmount: remainder, LeaveUnits: units}, nil
	}
	return Charge{Type: DeductionSalary, SalaryAmount: c.perDay, LeaveUnits: decimal.Zero}, nil
}
