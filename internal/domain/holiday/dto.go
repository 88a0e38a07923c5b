package holiday

import (
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

type CreateHolidayRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=100"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Type   string `json:"type" validate:"required,oneof=government religious company"`
	IsPaid *bool  `json:"is_paid,omitempty"`
}

func (r *CreateHolidayRequest) Validate() error {
	return validator.Struct(r)
}
