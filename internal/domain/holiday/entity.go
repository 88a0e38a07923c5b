package holiday

import "time"

type Type string

const (
	TypeGovernment Type = "government"
	TypeReligious  Type = "religious"
	TypeCompany    Type = "company"
)

func (t Type) IsValid() bool {
	return t == TypeGovernment || t == TypeReligious || t == TypeCompany
}

type Holiday struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Type      Type      `json:"type"`
	IsPaid    bool      `json:"is_paid"`
	CreatedAt time.Time `json:"created_at"`
}

// DayKind tells whether a calendar day is a working day or an off-day.
type DayKind string

const (
	DayWorking DayKind = "working"
	DayWeekend DayKind = "weekend"
	DayHoliday DayKind = "holiday"
)

func (k DayKind) IsOffDay() bool {
	return k != DayWorking
}
