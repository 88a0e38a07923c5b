package device

import (
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

type PushLogsRequest struct {
	DeviceID string   `json:"device_id" validate:"required"`
	Logs     []RawLog `json:"logs" validate:"required,min=1,max=5000"`
}

func (r *PushLogsRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	var errs validator.ValidationErrors
	for _, l := range r.Logs {
		if validator.IsEmpty(l.DeviceUserID) || l.Timestamp.IsZero() {
			errs.Add("logs", "every log needs device_user_id and timestamp")
			break
		}
	}
	return errs.Err()
}
