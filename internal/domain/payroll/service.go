package payroll

import (
	"context"
	"io"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type PayrollService interface {
	// Generate builds or regenerates one employee-month snapshot atomically.
	Generate(ctx context.Context, req GenerateOne) (GenerateResult, error)
	// GenerateBatch runs Generate for every requested (or active) employee and
	// never aborts on a single employee's failure.
	GenerateBatch(ctx context.Context, req GeneratePayrollRequest) (BatchResult, error)

	GetSnapshot(ctx context.Context, id string) (Snapshot, error)
	ListSnapshots(ctx context.Context, req ListPayrollRequest) (ListPayrollResponse, error)

	AddAdjustment(ctx context.Context, req AddAdjustmentRequest) (Snapshot, error)
	RemoveAdjustment(ctx context.Context, payrollID, adjustmentID string) (Snapshot, error)
	SetStatus(ctx context.Context, req SetStatusRequest) (Snapshot, error)

	PreviewDeductions(ctx context.Context, employeeID string, month timeutil.Month) (late.Resolution, error)
	DeductionReport(ctx context.Context, month timeutil.Month) (DeductionReport, error)
	WriteDeductionReportXLSX(ctx context.Context, month timeutil.Month, w io.Writer) error
	WritePayslipPDF(ctx context.Context, id string, w io.Writer) (filename string, err error)
}
