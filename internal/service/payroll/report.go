package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Late Deductions"

// PreviewDeductions implements payroll.PayrollService. Nothing is written.
func (s *PayrollServiceImpl) PreviewDeductions(ctx context.Context, employeeID string, month timeutil.Month) (late.Resolution, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return late.Resolution{}, err
	}
	_, res, err := s.preview(ctx, emp, month)
	return res, err
}

func (s *PayrollServiceImpl) preview(ctx context.Context, emp employee.Employee, month timeutil.Month) (late.MonthInput, late.Resolution, error) {
	policy, err := s.lateService.GetPolicy(ctx)
	if err != nil {
		return late.MonthInput{}, late.Resolution{}, err
	}

	var existing *payroll.Snapshot
	snap, err := s.payrollRepo.GetByEmployeeMonth(ctx, emp.ID, month)
	switch {
	case err == nil:
		existing = &snap
	case !errors.Is(err, payroll.ErrPayrollNotFound):
		return late.MonthInput{}, late.Resolution{}, fmt.Errorf("failed to get payroll: %w", err)
	}

	return s.lateService.ResolveMonth(ctx, late.ResolveMonthRequest{
		Employee:       emp,
		Month:          month,
		OpeningBalance: previewBalance(emp, existing, policy.LeaveBucket),
		Policy:         policy,
	})
}

// DeductionReport implements payroll.PayrollService. Rows are ordered by
// total cost, leave units valued at the employee's per-day salary.
func (s *PayrollServiceImpl) DeductionReport(ctx context.Context, month timeutil.Month) (payroll.DeductionReport, error) {
	employees, err := s.employeeRepo.ListActive(ctx)
	if err != nil {
		return payroll.DeductionReport{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	report := payroll.DeductionReport{
		Month:       month.String(),
		Rows:        []payroll.DeductionReportRow{},
		TotalSalary: decimal.Zero,
		TotalLeave:  decimal.Zero,
	}
	for _, emp := range employees {
		input, res, err := s.preview(ctx, emp, month)
		if err != nil {
			report.EmployeeErrors = append(report.EmployeeErrors, payroll.EmployeeError{EmployeeID: emp.ID, Error: err.Error()})
			continue
		}

		row := payroll.DeductionReportRow{
			EmployeeID:       emp.ID,
			EmployeeCode:     emp.EmployeeCode,
			FullName:         emp.FullName,
			LateCount:        len(res.Events),
			HalfDayCount:     len(input.HalfDays),
			SalaryDeduction:  res.TotalSalaryDeduction(),
			LeaveUnits:       res.TotalLeaveUnits(),
			RemainingBalance: res.ClosingBalance,
		}
		for _, e := range res.Events {
			switch e.Outcome {
			case late.OutcomeApproved:
				row.ApprovedCount++
			case late.OutcomeGrace, late.OutcomeDisabled:
				row.ForgivenCount++
			case late.OutcomeDeducted:
				row.DeductedCount++
			}
		}
		row.TotalCost = row.SalaryDeduction.Add(row.LeaveUnits.Mul(res.PerDaySalary)).Round(2)

		report.Rows = append(report.Rows, row)
		report.TotalSalary = report.TotalSalary.Add(row.SalaryDeduction)
		report.TotalLeave = report.TotalLeave.Add(row.LeaveUnits)
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		if c := report.Rows[i].TotalCost.Cmp(report.Rows[j].TotalCost); c != 0 {
			return c > 0
		}
		return report.Rows[i].EmployeeCode < report.Rows[j].EmployeeCode
	})
	return report, nil
}

// WriteDeductionReportXLSX implements payroll.PayrollService.
func (s *PayrollServiceImpl) WriteDeductionReportXLSX(ctx context.Context, month timeutil.Month, w io.Writer) error {
	report, err := s.DeductionReport(ctx, month)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}

	header := []interface{}{
		"Employee Code", "Name", "Lates", "Approved", "Forgiven", "Deducted",
		"Half Days", "Salary Deduction", "Leave Units", "Total Cost", "Remaining Balance",
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(reportSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range report.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.EmployeeCode, r.FullName, r.LateCount, r.ApprovedCount, r.ForgivenCount, r.DeductedCount,
			r.HalfDayCount, r.SalaryDeduction.InexactFloat64(), r.LeaveUnits.InexactFloat64(),
			r.TotalCost.InexactFloat64(), r.RemainingBalance.InexactFloat64(),
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return err
		}
	}

	totalCell, err := excelize.CoordinatesToCellName(1, len(report.Rows)+3)
	if err != nil {
		return err
	}
	totals := []interface{}{"Total", "", "", "", "", "", "", report.TotalSalary.InexactFloat64(), report.TotalLeave.InexactFloat64()}
	if err := f.SetSheetRow(reportSheet, totalCell, &totals); err != nil {
		return err
	}

	return f.Write(w)
}
