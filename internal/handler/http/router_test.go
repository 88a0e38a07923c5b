package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/app"
	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		TotalItems int64 `json:"total_items"`
	} `json:"meta"`
}

type testServer struct {
	app     *app.App
	handler http.Handler
	emp     employee.Employee
	other   employee.Employee
	manager string
	staff   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dhaka, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Store: config.StoreMemory, LogLevel: "error"},
		JWT: config.JWTConfig{Secret: "test-secret-key-for-jwt", AccessExpiration: "1h"},
		Org: config.OrgConfig{
			Timezone:          "Asia/Dhaka",
			Location:          dhaka,
			WeekendDays:       []time.Weekday{time.Friday, time.Saturday},
			DefaultShiftStart: "09:00",
			DefaultShiftEnd:   "18:00",
		},
		Lock: config.LockConfig{Backend: config.LockMemory},
		Jobs: config.JobsConfig{DeviceSyncInterval: time.Minute},
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	newEmployee := func(code string) employee.Employee {
		return a.Store.PutEmployee(employee.Employee{
			EmployeeCode: code,
			FullName:     "Employee " + code,
			ShiftStart:   "09:00",
			ShiftEnd:     "18:00",
			BasicSalary:  decimal.NewFromInt(30000),
			Allowances:   employee.Allowances{"hra": decimal.NewFromInt(10000)},
			LeaveBalance: leave.Balance{leave.BucketAnnual: decimal.NewFromInt(5)},
			IsActive:     true,
		})
	}

	s := &testServer{app: a, handler: a.Router(), emp: newEmployee("EMP-001"), other: newEmployee("EMP-002")}

	s.manager, _, err = a.JWT.GenerateAccessToken("user-hr", nil, user.RoleManager)
	require.NoError(t, err)
	s.staff, _, err = a.JWT.GenerateAccessToken("user-emp", &s.emp.ID, user.RoleEmployee)
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) punch(t *testing.T, employeeID, ts string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/attendance/punches", s.manager, map[string]string{
		"employee_id": employeeID,
		"timestamp":   ts,
	})
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/payrolls", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/payrolls", s.staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/payrolls", s.manager, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAttendanceAndLateFlow(t *testing.T) {
	s := newTestServer(t)

	// Monday 4 March 2024, 45 minutes late.
	rec := s.punch(t, s.emp.ID, "2024-03-04T09:45:00+06:00")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var punched struct {
		Record struct {
			ID          string `json:"id"`
			Verdict     string `json:"verdict"`
			LateMinutes int    `json:"late_minutes"`
		} `json:"record"`
		Duplicate bool `json:"duplicate"`
	}
	decode(t, rec, &punched)
	assert.Equal(t, 45, punched.Record.LateMinutes)
	assert.False(t, punched.Duplicate)

	rec = s.punch(t, s.emp.ID, "2024-03-04T09:45:30+06:00")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &punched)
	assert.True(t, punched.Duplicate)

	rec = s.punch(t, s.emp.ID, "2024-03-04T18:30:00+06:00")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("employee reads own day only", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/attendance/"+s.emp.ID+"/2024-03-04", s.staff, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var day struct {
			OvertimeMinutes int `json:"overtime_minutes"`
		}
		decode(t, rec, &day)
		assert.Equal(t, 30, day.OvertimeMinutes)

		rec = s.do(t, http.MethodGet, "/api/v1/attendance/"+s.other.ID+"/2024-03-04", s.staff, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("employee cannot record punches", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/attendance/punches", s.staff, map[string]string{
			"employee_id": s.emp.ID,
			"timestamp":   "2024-03-05T09:00:00+06:00",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("employee files and manager approves", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/lates", s.staff, map[string]string{
			"attendance_id": punched.Record.ID,
			"reason":        "traffic",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var filed struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		decode(t, rec, &filed)
		assert.Equal(t, "pending", filed.Status)

		rec = s.do(t, http.MethodPost, "/api/v1/lates", s.staff, map[string]string{"attendance_id": punched.Record.ID})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = s.do(t, http.MethodPut, "/api/v1/lates/"+filed.ID+"/status", s.staff, map[string]string{"status": "approved"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, http.MethodPut, "/api/v1/lates/"+filed.ID+"/status", s.manager, map[string]string{"status": "approved"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &filed)
		assert.Equal(t, "approved", filed.Status)
	})

	t.Run("employee cannot file for a colleague", func(t *testing.T) {
		rec := s.punch(t, s.other.ID, "2024-03-05T10:00:00+06:00")
		require.Equal(t, http.StatusCreated, rec.Code)
		decode(t, rec, &punched)

		rec = s.do(t, http.MethodPost, "/api/v1/lates", s.staff, map[string]string{"attendance_id": punched.Record.ID})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestPayrollFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/payrolls/generate", s.manager, map[string]interface{}{
		"month":        "2024-03",
		"employee_ids": []string{s.emp.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var batch struct {
		Generated []string `json:"generated"`
	}
	decode(t, rec, &batch)
	assert.Equal(t, []string{s.emp.ID}, batch.Generated)

	rec = s.do(t, http.MethodGet, "/api/v1/payrolls?month=2024-03", s.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		ID        string          `json:"id"`
		NetSalary decimal.Decimal `json:"net_salary"`
	}
	env := decode(t, rec, &list)
	require.Len(t, list, 1)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.TotalItems)
	assert.True(t, decimal.NewFromInt(40000).Equal(list[0].NetSalary))
	id := list[0].ID

	rec = s.do(t, http.MethodPost, "/api/v1/payrolls/"+id+"/adjustments", s.manager, map[string]string{
		"amount":      "-500",
		"description": "canteen advance",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/payrolls/"+id+"/adjustments", s.manager, map[string]string{
		"amount":      "100",
		"description": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/payrolls/"+id+"/payslip", s.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-EMP-001-2024-03.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(t, http.MethodPut, "/api/v1/payrolls/"+id+"/status", s.manager, map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/payrolls/"+id+"/adjustments", s.manager, map[string]string{
		"amount":      "200",
		"description": "late bonus",
	})
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/payrolls/missing", s.manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLateReportFormats(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/lates/report/2024-03", s.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Month string `json:"month"`
	}
	decode(t, rec, &report)
	assert.Equal(t, "2024-03", report.Month)

	rec = s.do(t, http.MethodGet, "/api/v1/lates/report/2024-03?format=xlsx", s.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/vnd.openxmlformats"))

	rec = s.do(t, http.MethodGet, "/api/v1/lates/report/March", s.manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDevicePushAndDeactivate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/devices/logs", s.manager, map[string]interface{}{
		"device_id": "gate-1",
		"logs": []map[string]string{
			{"device_user_id": "EMP-001", "timestamp": "2024-03-04T09:00:00+06:00"},
			{"device_user_id": "EMP-001", "timestamp": "2024-03-04T18:00:00+06:00"},
			{"device_user_id": "UNKNOWN", "timestamp": "2024-03-04T09:00:00+06:00"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Processed int `json:"processed"`
		Skipped   int `json:"skipped"`
	}
	decode(t, rec, &result)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Skipped)

	rec = s.do(t, http.MethodPost, "/api/v1/devices/sync", s.manager, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/employees/"+s.emp.ID, s.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		EmployeeCode string `json:"employee_code"`
		IsActive     bool   `json:"is_active"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, "EMP-001", profile.EmployeeCode)
	assert.True(t, profile.IsActive)

	rec = s.do(t, http.MethodGet, "/api/v1/employees/"+s.other.ID, s.staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/employees/"+s.emp.ID+"/deactivate", s.staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/employees/"+s.emp.ID+"/deactivate", s.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/employees/"+s.emp.ID+"/deactivate", s.manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// streamRecorder is a ResponseWriter that can be read while the handler
// is still writing.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	body   bytes.Buffer
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *streamRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(b)
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func TestAttendanceStream(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/stream/attendance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream/attendance?token="+s.manager, nil).WithContext(ctx)
	stream := &streamRecorder{header: http.Header{}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handler.ServeHTTP(stream, req)
	}()

	require.Eventually(t, func() bool {
		return s.app.Hub.SubscriberCount(sse.TopicAttendance) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusCreated, s.punch(t, s.emp.ID, "2024-03-04T09:10:00+06:00").Code)

	require.Eventually(t, func() bool {
		return strings.Contains(stream.String(), "event: punch.recorded")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, stream.String(), s.emp.ID)

	cancel()
	<-done
	assert.Equal(t, "text/event-stream", stream.Header().Get("Content-Type"))
}
