package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/backend"
	"github.com/relabs-tech/rentdesk/core/resource"
)

type object = map[string]interface{}

// seedLedger seeds a small rental business. Today is 2024-06-15, the default
// report range is 2024-05-17 to 2024-06-15.
func seedLedger(t *testing.T, s *testService) {
	s.seed(t, "branches",
		object{"id": 1, "name": "Chi nhánh 1"},
		object{"id": 2, "name": "Chi nhánh 2"},
	)
	s.seed(t, "rooms",
		object{"id": 1, "room_number": "A-101", "branch_id": 1, "status": "occupied"},
		object{"id": 2, "room_number": "B-201", "branch_id": 2, "status": "available"},
		object{"id": 3, "room_number": "C-301"},
	)
	s.seed(t, "tenants",
		object{"id": 1, "full_name": "Nguyen Van A"},
		object{"id": 2, "full_name": "Tran Thi B"},
	)
	s.seed(t, "contracts",
		object{"id": 1, "tenant_id": 1, "room_id": 1, "status": "active", "created_at": "2024-01-01T00:00:00.000Z", "start_date": "2024-01-01"},
		object{"id": 2, "tenant_id": 2, "room_id": 2, "status": "Active", "created_at": "2024-03-01T00:00:00.000Z"},
		object{"id": 3, "tenant_id": 99, "room_id": 1, "status": "expired", "created_at": "2023-12-01T00:00:00.000Z"},
	)
	s.seed(t, "transaction_categories",
		object{"id": 1, "code": "RENT", "name": "Tiền phòng"},
		object{"id": 2, "code": "ELEC", "name": "Tiền điện"},
		object{"id": 3, "code": "REPAIR", "name": "Sửa chữa"},
		object{"id": 4, "name": "without code"},
	)
	s.seed(t, "accounts",
		object{"id": 1, "name": "Tiền mặt", "balance": 1000000, "is_active": true},
		object{"id": 2, "name": "Vietcombank", "balance": "2500000.50"},
		object{"id": 3, "name": "Closed", "balance": 999, "is_active": false},
	)
	s.seed(t, "transactions",
		object{"id": 1, "type": "income", "amount": 3000000, "category_id": 1, "account_id": 1, "invoice_id": 1, "transaction_date": "2024-06-01", "description": "Tiền phòng tháng 6"},
		object{"id": 2, "type": "income", "amount": "500000", "category_id": 2, "account_id": 2, "transaction_date": "2024-06-01T08:00:00Z"},
		object{"id": 3, "type": "expense", "amount": 200000, "category_id": 3, "account_id": 1, "transaction_date": "2024-06-10"},
		object{"id": 4, "type": "income", "amount": 100000, "transaction_date": "2024-06-12"},
		object{"id": 5, "type": "income", "amount": 700000, "category_id": 4, "transaction_date": "2024-06-12"},
		object{"id": 6, "type": "income", "amount": 9999, "category_id": 1, "transaction_date": "2024-04-01"},
		object{"id": 7, "type": "transfer", "amount": 5555, "transaction_date": "2024-06-12"},
		object{"id": 8, "type": "expense", "amount": 50000, "category_id": 99, "created_at": "2024-06-14T10:00:00.000Z"},
	)
	s.seed(t, "invoices",
		object{"id": 1, "invoice_number": "INV-001", "contract_id": 1, "due_date": "2024-06-01", "total_amount": 3000000, "paid_amount": 1000000},
		object{"id": 2, "invoice_number": "INV-002", "contract_id": 2, "due_date": "2024-06-15", "total_amount": 2000000, "paid_amount": 0},
		object{"id": 3, "invoice_number": "INV-003", "contract_id": 2, "due_date": "2024-06-10", "total_amount": 2500000, "paid_amount": 2500000},
		object{"id": 4, "invoice_number": "INV-004", "contract_id": 2, "due_date": "2024-06-14", "total_amount": 1000000, "remaining_amount": 400000},
		object{"id": 5, "invoice_number": "INV-005", "contract_id": 3, "due_date": "2024-05-15", "total_amount": 500000},
		object{"id": 6, "invoice_number": "INV-006", "branch_id": 2, "due_date": "2024-06-05T23:00:00.000Z", "total_amount": 100000},
		object{"id": 7, "invoice_number": "INV-007", "contract_id": 1, "total_amount": 100000},
	)
}

func (s *testService) report(t *testing.T, path string) (interface{}, error) {
	return s.backend.Do(context.Background(), backend.Request{Verb: core.VerbRead, Path: path})
}

func TestProfitLoss(t *testing.T) {
	s := newTestService(t)
	seedLedger(t, s)

	result, err := s.report(t, "/reports/profit-loss")
	require.NoError(t, err)
	report := result.(*backend.ProfitLoss)
	assert.Equal(t, resource.DateRange{Start: "2024-05-17", End: "2024-06-15"}, report.Range)
	assert.Equal(t, "4300000", report.Summary.TotalIncome.String())
	assert.Equal(t, "250000", report.Summary.TotalExpense.String())
	assert.Equal(t, "4050000", report.Summary.NetProfit.String())

	codes := []string{}
	for _, c := range report.ByCategory {
		codes = append(codes, c.CategoryCode)
	}
	assert.Equal(t, []string{"ELEC", "OTHER", "RENT", "REPAIR"}, codes)
	other := report.ByCategory[1]
	assert.Equal(t, "Khác", other.CategoryName, "uncategorized entries and unknown categories are reported as other")
	assert.Equal(t, "800000", other.Income.String())
	assert.Equal(t, "50000", other.Expense.String())

	require.Len(t, report.Daily, 4, "only days with entries")
	assert.Equal(t, "2024-06-01", report.Daily[0].Date)
	assert.Equal(t, "3500000", report.Daily[0].Income.String())
	assert.Equal(t, "2024-06-14", report.Daily[3].Date)
	assert.Equal(t, "-50000", report.Daily[3].Net.String())

	result, err = s.report(t, "/reports/profit-loss?startDate=2024-06-10&endDate=2024-06-12")
	require.NoError(t, err)
	report = result.(*backend.ProfitLoss)
	assert.Equal(t, "800000", report.Summary.TotalIncome.String())
	assert.Equal(t, "200000", report.Summary.TotalExpense.String())

	_, err = s.report(t, "/reports/profit-loss?startDate=yesterday")
	assert.ErrorIs(t, err, backend.ErrInvalidParameter)
	_, err = s.report(t, "/reports/profit-loss?startDate=2024-06-12&endDate=2024-06-10")
	assert.ErrorIs(t, err, backend.ErrInvalidParameter)

	result, err = newTestService(t).report(t, "/reports/profit-loss")
	require.NoError(t, err)
	report = result.(*backend.ProfitLoss)
	assert.Equal(t, "0", report.Summary.NetProfit.String())
	assert.Empty(t, report.ByCategory)
	assert.NotNil(t, report.Daily)
}

func TestAccountsReceivable(t *testing.T) {
	s := newTestService(t)
	seedLedger(t, s)

	result, err := s.report(t, "/reports/accounts-receivable")
	require.NoError(t, err)
	report := result.(*backend.AccountsReceivable)
	assert.Equal(t, "2024-06-15", report.AsOf)

	numbers := []string{}
	for _, item := range report.Items {
		numbers = append(numbers, item.InvoiceNumber)
	}
	assert.Equal(t, []string{"INV-005", "INV-001", "INV-006", "INV-004"}, numbers,
		"due today, paid and undated invoices are not receivable")

	oldest := report.Items[0]
	assert.Equal(t, 31, oldest.OverdueDays)
	assert.Equal(t, "N/A", oldest.TenantName)
	assert.Equal(t, "A-101", oldest.RoomNumber)
	assert.Equal(t, "Chi nhánh 1", oldest.BranchName)

	first := report.Items[1]
	assert.Equal(t, "Nguyen Van A", first.TenantName)
	assert.Equal(t, "2000000", first.RemainingAmount.String())
	assert.Equal(t, 14, first.OverdueDays)

	assert.Equal(t, "N/A", report.Items[2].TenantName)
	assert.Equal(t, "Chi nhánh 2", report.Items[2].BranchName)
	assert.Equal(t, "2024-06-05", report.Items[2].DueDate)

	assert.Equal(t, "400000", report.Items[3].RemainingAmount.String(), "stored remaining amounts win")
	assert.Equal(t, 1, report.Items[3].OverdueDays)

	assert.Equal(t, 4, report.Summary.Count)
	assert.Equal(t, "4600000", report.Summary.TotalAmount.String())
	assert.Equal(t, "3000000", report.Summary.OutstandingAmount.String())
	assert.Equal(t, 31, report.Summary.MaxOverdueDays)

	result, err = s.report(t, "/reports/accounts-receivable?minOverdueDays=11")
	require.NoError(t, err)
	assert.Len(t, result.(*backend.AccountsReceivable).Items, 2)

	result, err = s.report(t, "/reports/accounts-receivable?branchId=2")
	require.NoError(t, err)
	numbers = []string{}
	for _, item := range result.(*backend.AccountsReceivable).Items {
		numbers = append(numbers, item.InvoiceNumber)
	}
	assert.Equal(t, []string{"INV-006", "INV-004"}, numbers)

	result, err = s.report(t, "/reports/accounts-receivable?minOverdueDays=0")
	require.NoError(t, err)
	assert.Len(t, result.(*backend.AccountsReceivable).Items, 4, "invoices due today never count")

	_, err = s.report(t, "/reports/accounts-receivable?minOverdueDays=-1")
	assert.ErrorIs(t, err, backend.ErrInvalidParameter)
	_, err = s.report(t, "/reports/accounts-receivable?branchId=main")
	assert.ErrorIs(t, err, backend.ErrInvalidParameter)
}

func TestRevenueAnalysis(t *testing.T) {
	s := newTestService(t)
	seedLedger(t, s)

	result, err := s.report(t, "/reports/revenue-analysis")
	require.NoError(t, err)
	report := result.(*backend.RevenueAnalysis)
	assert.Equal(t, "4300000", report.TotalRevenue.String())
	require.Len(t, report.ByCategory, 3)
	assert.Equal(t, "RENT", report.ByCategory[0].CategoryCode, "largest revenue first")
	assert.Equal(t, "OTHER", report.ByCategory[1].CategoryCode)
	assert.Equal(t, 2, report.ByCategory[1].Count)
	assert.Equal(t, "ELEC", report.ByCategory[2].CategoryCode)
	require.Len(t, report.ByPeriod, 1)
	assert.Equal(t, "2024-06", report.ByPeriod[0].Period)
	assert.Equal(t, "4300000", report.ByPeriod[0].Total.String())
	assert.Equal(t, 4, report.ByPeriod[0].Count)

	result, err = s.report(t, "/reports/revenue-analysis?startDate=2024-04-01")
	require.NoError(t, err)
	report = result.(*backend.RevenueAnalysis)
	require.Len(t, report.ByPeriod, 2)
	assert.Equal(t, "2024-04", report.ByPeriod[0].Period)
	assert.Equal(t, "9999", report.ByPeriod[0].Total.String())
	assert.Equal(t, "3009999", report.ByCategory[0].Total.String())
}

func TestCashflowDetail(t *testing.T) {
	s := newTestService(t)
	seedLedger(t, s)

	result, err := s.report(t, "/reports/cashflow-detail")
	require.NoError(t, err)
	report := result.(*backend.CashflowDetail)
	ids := []int64{}
	for _, e := range report.Entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{8, 5, 4, 3, 2, 1}, ids, "newest first")
	assert.Equal(t, 6, report.Totals.Count)
	assert.Equal(t, "4300000", report.Totals.Income.String())
	assert.Equal(t, "250000", report.Totals.Expense.String())
	assert.Equal(t, "4050000", report.Totals.Net.String())

	assert.Equal(t, "Khác", report.Entries[0].CategoryName)
	assert.Equal(t, "2024-06-14", report.Entries[0].Date, "falls back to created_at")
	assert.Equal(t, "N/A", report.Entries[2].AccountName)
	assert.Nil(t, report.Entries[2].AccountID)
	assert.Equal(t, "Tiền mặt", report.Entries[5].AccountName)
	assert.Equal(t, "Tiền phòng tháng 6", report.Entries[5].Description)

	result, err = s.report(t, "/reports/cashflow-detail?type=expense")
	require.NoError(t, err)
	report = result.(*backend.CashflowDetail)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "0", report.Totals.Income.String())

	result, err = s.report(t, "/reports/cashflow-detail?categoryId=1&type=INCOME")
	require.NoError(t, err)
	report = result.(*backend.CashflowDetail)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, int64(1), report.Entries[0].ID)

	_, err = s.report(t, "/reports/cashflow-detail?type=transfer")
	assert.ErrorIs(t, err, backend.ErrInvalidParameter)
	_, err = s.report(t, "/reports/cashflow-detail?categoryId=rent")
	assert.ErrorIs(t, err, backend.ErrInvalidParameter)
}

func TestDashboard(t *testing.T) {
	s := newTestService(t)
	seedLedger(t, s)

	result, err := s.report(t, "/dashboard/stats")
	require.NoError(t, err)
	stats := result.(*backend.DashboardStats)
	assert.Equal(t, 2, stats.TotalBranches)
	assert.Equal(t, 3, stats.TotalRooms)
	assert.Equal(t, 2, stats.TotalTenants)
	assert.Equal(t, map[string]int{"occupied": 1, "available": 1, "unknown": 1}, stats.RoomsByStatus)
	assert.Equal(t, 2, stats.ActiveContracts, "status is compared case insensitively")
	assert.Equal(t, "4300000", stats.MonthlyRevenue.String())
	assert.Equal(t, "4309999", stats.TotalRevenue.String())

	result, err = s.report(t, "/dashboard/recent")
	require.NoError(t, err)
	recent := result.(*backend.DashboardRecent)
	require.Len(t, recent.RecentContracts, 3)
	assert.Equal(t, int64(2), recent.RecentContracts[0].ID)
	assert.Equal(t, "Tran Thi B", recent.RecentContracts[0].TenantName)
	assert.Equal(t, "B-201", recent.RecentContracts[0].RoomNumber)
	assert.Equal(t, "Chi nhánh 2", recent.RecentContracts[0].BranchName)
	assert.Equal(t, "N/A", recent.RecentContracts[2].TenantName)

	ids := []int64{}
	for _, p := range recent.RecentPayments {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{5, 4, 2, 1, 6}, ids)
	payment := recent.RecentPayments[3]
	assert.Equal(t, "INV-001", payment.InvoiceNumber)
	assert.Equal(t, "Nguyen Van A", payment.TenantName)
	assert.Equal(t, "A-101", payment.RoomNumber)
	assert.Equal(t, "N/A", recent.RecentPayments[0].InvoiceNumber)

	result, err = s.report(t, "/accounts/total-balance")
	require.NoError(t, err)
	balance := result.(*backend.TotalBalance)
	assert.Equal(t, "3500000.5", balance.TotalBalance.String())
	assert.Equal(t, 2, balance.AccountCount, "inactive accounts are skipped")
}
