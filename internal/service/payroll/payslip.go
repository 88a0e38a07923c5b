package payroll

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// WritePayslipPDF implements payroll.PayrollService.
func (s *PayrollServiceImpl) WritePayslipPDF(ctx context.Context, id string, w io.Writer) (string, error) {
	snap, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	emp, err := s.employeeRepo.GetByID(ctx, snap.EmployeeID)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	title := "Payslip"
	if s.companyName != "" {
		title = s.companyName + " - Payslip"
	}
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", emp.FullName, emp.EmployeeCode))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s", snap.Month))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s    Version: %d", snap.Status, snap.Version))
	pdf.Ln(10)

	section := func(name string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, name)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(120, 7, label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, amount.StringFixed(2), "B", 1, "R", false, 0, "")
	}

	section("Earnings")
	line("Basic salary", snap.BasicSalary)
	names := make([]string, 0, len(snap.Allowances))
	for name := range snap.Allowances {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		line("Allowance: "+name, snap.Allowances[name])
	}
	line("Gross salary", snap.GrossSalary)
	pdf.Ln(4)

	section("Deductions")
	line(fmt.Sprintf("Absent (%d days)", snap.Attendance.Absent), snap.Deductions.Absent)
	line(fmt.Sprintf("Half days (%d)", snap.Attendance.HalfDay), snap.Deductions.HalfDay)
	line(fmt.Sprintf("Late (%d)", snap.Attendance.Late), snap.Deductions.Late)
	line("Total deductions", snap.TotalDeductions)
	if snap.LeaveUnitsDebited.IsPositive() {
		pdf.Cell(0, 7, fmt.Sprintf("Leave debited: %s day(s) of %s leave", snap.LeaveUnitsDebited.String(), snap.LeaveBucket))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	if len(snap.Adjustments) > 0 {
		section("Adjustments")
		for _, a := range snap.Adjustments {
			line(a.Description, a.Amount)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 9, "Net salary", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 9, snap.NetSalary.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Overtime (not included in net pay): %s h, %s", snap.Overtime.Hours.StringFixed(2), snap.Overtime.Amount.StringFixed(2)))

	if err := pdf.Output(w); err != nil {
		return "", fmt.Errorf("failed to render payslip: %w", err)
	}
	return payslipFilename(emp.EmployeeCode, snap), nil
}

func payslipFilename(employeeCode string, snap payroll.Snapshot) string {
	return fmt.Sprintf("payslip-%s-%s.pdf", employeeCode, snap.Month)
}
