package backend

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/relabs-tech/rentdesk/core/resource"
)

// ProfitLossSummary are the totals of a profit and loss report
type ProfitLossSummary struct {
	TotalIncome  Money `json:"total_income"`
	TotalExpense Money `json:"total_expense"`
	NetProfit    Money `json:"net_profit"`
}

// CategoryAmounts is the income and expense of one category
type CategoryAmounts struct {
	CategoryCode string `json:"category_code"`
	CategoryName string `json:"category_name"`
	Income       Money  `json:"income"`
	Expense      Money  `json:"expense"`
}

// DailyAmounts is the income and expense of one day
type DailyAmounts struct {
	Date    string `json:"date"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
	Net     Money  `json:"net"`
}

// ProfitLoss is the response of GET /reports/profit-loss
type ProfitLoss struct {
	Range      resource.DateRange `json:"range"`
	Summary    ProfitLossSummary  `json:"summary"`
	ByCategory []CategoryAmounts  `json:"by_category"`
	Daily      []DailyAmounts     `json:"daily"`
}

// ReceivableItem is one overdue invoice
type ReceivableItem struct {
	InvoiceID       int64  `json:"invoice_id"`
	InvoiceNumber   string `json:"invoice_number"`
	TenantName      string `json:"tenant_name"`
	RoomNumber      string `json:"room_number"`
	BranchName      string `json:"branch_name"`
	DueDate         string `json:"due_date"`
	TotalAmount     Money  `json:"total_amount"`
	PaidAmount      Money  `json:"paid_amount"`
	RemainingAmount Money  `json:"remaining_amount"`
	OverdueDays     int    `json:"overdue_days"`
}

// ReceivableSummary are the totals of an accounts receivable report
type ReceivableSummary struct {
	Count             int   `json:"count"`
	TotalAmount       Money `json:"total_amount"`
	OutstandingAmount Money `json:"outstanding_amount"`
	MaxOverdueDays    int   `json:"max_overdue_days"`
}

// AccountsReceivable is the response of GET /reports/accounts-receivable
type AccountsReceivable struct {
	AsOf    string            `json:"as_of"`
	Summary ReceivableSummary `json:"summary"`
	Items   []ReceivableItem  `json:"items"`
}

// CategoryRevenue is the revenue of one category
type CategoryRevenue struct {
	CategoryCode string `json:"category_code"`
	CategoryName string `json:"category_name"`
	Total        Money  `json:"total"`
	Count        int    `json:"count"`
}

// PeriodRevenue is the revenue of one month, Period is "YYYY-MM"
type PeriodRevenue struct {
	Period string `json:"period"`
	Total  Money  `json:"total"`
	Count  int    `json:"count"`
}

// RevenueAnalysis is the response of GET /reports/revenue-analysis
type RevenueAnalysis struct {
	Range        resource.DateRange `json:"range"`
	TotalRevenue Money              `json:"total_revenue"`
	ByCategory   []CategoryRevenue  `json:"by_category"`
	ByPeriod     []PeriodRevenue    `json:"by_period"`
}

// CashflowEntry is one ledger entry of a cashflow report
type CashflowEntry struct {
	ID           int64       `json:"id"`
	Date         string      `json:"date"`
	Type         string      `json:"type"`
	Amount       Money       `json:"amount"`
	Description  string      `json:"description"`
	CategoryID   interface{} `json:"category_id"`
	CategoryName string      `json:"category_name"`
	AccountID    interface{} `json:"account_id"`
	AccountName  string      `json:"account_name"`
	InvoiceID    interface{} `json:"invoice_id"`
}

// CashflowTotals are the totals of a cashflow report
type CashflowTotals struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Net     Money `json:"net"`
	Count   int   `json:"count"`
}

// CashflowDetail is the response of GET /reports/cashflow-detail
type CashflowDetail struct {
	Range   resource.DateRange `json:"range"`
	Totals  CashflowTotals     `json:"totals"`
	Entries []CashflowEntry    `json:"entries"`
}

// ledgerEntry is a ledger record reduced to what the reports need
type ledgerEntry struct {
	record   resource.Record
	date     string
	kind     string
	amount   decimal.Decimal
	category category
}

// ledger returns the income and expense entries within r
func ledger(transactions []resource.Record, categories map[int64]resource.Record, r resource.DateRange) []ledgerEntry {
	entries := []ledgerEntry{}
	for _, t := range transactions {
		kind := t.String("type")
		if kind != typeIncome && kind != typeExpense {
			continue
		}
		date, ok := entryDate(t)
		if !ok || !r.Contains(date) {
			continue
		}
		entries = append(entries, ledgerEntry{
			record:   t,
			date:     date,
			kind:     kind,
			amount:   t.AmountOf("amount"),
			category: categoryOf(t, categories),
		})
	}
	return entries
}

// profitLoss is GET /reports/profit-loss
func (b *Backend) profitLoss(ctx context.Context, c *call) (interface{}, error) {
	dateRange, err := b.dateRange(c)
	if err != nil {
		return nil, err
	}
	data, err := b.collections(ctx, collectionTransactions, collectionCategories)
	if err != nil {
		return nil, err
	}

	type amounts struct{ income, expense decimal.Decimal }
	income, expense := decimal.Zero, decimal.Zero
	byCategory := map[string]*amounts{}
	names := map[string]string{}
	byDay := map[string]*amounts{}
	for _, e := range ledger(data[collectionTransactions], resource.Index(data[collectionCategories]), dateRange) {
		ca, ok := byCategory[e.category.code]
		if !ok {
			ca = &amounts{}
			byCategory[e.category.code] = ca
			names[e.category.code] = e.category.name
		}
		da, ok := byDay[e.date]
		if !ok {
			da = &amounts{}
			byDay[e.date] = da
		}
		if e.kind == typeIncome {
			income = income.Add(e.amount)
			ca.income = ca.income.Add(e.amount)
			da.income = da.income.Add(e.amount)
		} else {
			expense = expense.Add(e.amount)
			ca.expense = ca.expense.Add(e.amount)
			da.expense = da.expense.Add(e.amount)
		}
	}

	report := &ProfitLoss{
		Range: dateRange,
		Summary: ProfitLossSummary{
			TotalIncome:  money(income),
			TotalExpense: money(expense),
			NetProfit:    money(income.Sub(expense)),
		},
		ByCategory: []CategoryAmounts{},
		Daily:      []DailyAmounts{},
	}
	for code, a := range byCategory {
		report.ByCategory = append(report.ByCategory, CategoryAmounts{
			CategoryCode: code,
			CategoryName: names[code],
			Income:       money(a.income),
			Expense:      money(a.expense),
		})
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].CategoryCode < report.ByCategory[j].CategoryCode
	})
	for day, a := range byDay {
		report.Daily = append(report.Daily, DailyAmounts{
			Date:    day,
			Income:  money(a.income),
			Expense: money(a.expense),
			Net:     money(a.income.Sub(a.expense)),
		})
	}
	sort.Slice(report.Daily, func(i, j int) bool {
		return report.Daily[i].Date < report.Daily[j].Date
	})
	return report, nil
}

// accountsReceivable is GET /reports/accounts-receivable. It lists invoices
// which are due before today and not fully paid.
func (b *Backend) accountsReceivable(ctx context.Context, c *call) (interface{}, error) {
	p, err := b.receivableParameters(c)
	if err != nil {
		return nil, err
	}
	data, err := b.collections(ctx, collectionInvoices, collectionContracts, collectionTenants, collectionRooms, collectionBranches)
	if err != nil {
		return nil, err
	}
	contracts := resource.Index(data[collectionContracts])
	tenants := resource.Index(data[collectionTenants])
	rooms := resource.Index(data[collectionRooms])
	branches := resource.Index(data[collectionBranches])

	today := resource.Today(b.now())
	report := &AccountsReceivable{AsOf: today, Items: []ReceivableItem{}}
	total, outstanding := decimal.Zero, decimal.Zero

	for _, invoice := range data[collectionInvoices] {
		due, ok := invoice.Date("due_date")
		if !ok || due >= today {
			continue
		}
		totalAmount := invoice.AmountOf("total_amount")
		paidAmount := invoice.AmountOf("paid_amount")
		remaining := totalAmount.Sub(paidAmount)
		if _, ok := invoice.Get("remaining_amount"); ok {
			remaining = invoice.AmountOf("remaining_amount")
		}
		if !remaining.IsPositive() {
			continue
		}
		overdue := resource.DaysBetween(due, today)
		if overdue < 0 {
			overdue = 0
		}
		if int64(overdue) < p.MinOverdueDays {
			continue
		}

		var contract, room resource.Record
		var hasContract, hasRoom bool
		if contractID, ok := invoice.Int("contract_id"); ok {
			contract, hasContract = contracts[contractID]
		}
		if hasContract {
			if roomID, ok := contract.Int("room_id"); ok {
				room, hasRoom = rooms[roomID]
			}
		}
		branchID, hasBranch := invoice.Int("branch_id")
		if !hasBranch && hasRoom {
			branchID, hasBranch = room.Int("branch_id")
		}
		if p.HasBranch && (!hasBranch || branchID != p.BranchID) {
			continue
		}

		item := ReceivableItem{
			InvoiceID:       invoice.ID,
			InvoiceNumber:   invoice.String("invoice_number"),
			TenantName:      notAvailable,
			RoomNumber:      notAvailable,
			BranchName:      nameOf(branches, branchID, hasBranch, "name"),
			DueDate:         due,
			TotalAmount:     money(totalAmount),
			PaidAmount:      money(paidAmount),
			RemainingAmount: money(remaining),
			OverdueDays:     overdue,
		}
		if hasContract {
			tenantID, hasTenant := contract.Int("tenant_id")
			item.TenantName = nameOf(tenants, tenantID, hasTenant, "full_name")
		}
		if hasRoom {
			item.RoomNumber = nameOf(rooms, room.ID, true, "room_number")
		}
		report.Items = append(report.Items, item)

		total = total.Add(totalAmount)
		outstanding = outstanding.Add(remaining)
		if overdue > report.Summary.MaxOverdueDays {
			report.Summary.MaxOverdueDays = overdue
		}
	}
	sort.SliceStable(report.Items, func(i, j int) bool {
		a, b := report.Items[i], report.Items[j]
		if a.DueDate != b.DueDate {
			return a.DueDate < b.DueDate
		}
		return a.InvoiceID < b.InvoiceID
	})
	report.Summary.Count = len(report.Items)
	report.Summary.TotalAmount = money(total)
	report.Summary.OutstandingAmount = money(outstanding)
	return report, nil
}

// revenueAnalysis is GET /reports/revenue-analysis
func (b *Backend) revenueAnalysis(ctx context.Context, c *call) (interface{}, error) {
	dateRange, err := b.dateRange(c)
	if err != nil {
		return nil, err
	}
	data, err := b.collections(ctx, collectionTransactions, collectionCategories)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	byCategory := map[string]*CategoryRevenue{}
	byPeriod := map[string]*PeriodRevenue{}
	for _, e := range ledger(data[collectionTransactions], resource.Index(data[collectionCategories]), dateRange) {
		if e.kind != typeIncome {
			continue
		}
		total = total.Add(e.amount)
		cr, ok := byCategory[e.category.code]
		if !ok {
			cr = &CategoryRevenue{CategoryCode: e.category.code, CategoryName: e.category.name}
			byCategory[e.category.code] = cr
		}
		cr.Total = money(cr.Total.Add(e.amount))
		cr.Count++

		period := e.date[:len("2006-01")]
		pr, ok := byPeriod[period]
		if !ok {
			pr = &PeriodRevenue{Period: period}
			byPeriod[period] = pr
		}
		pr.Total = money(pr.Total.Add(e.amount))
		pr.Count++
	}

	report := &RevenueAnalysis{
		Range:        dateRange,
		TotalRevenue: money(total),
		ByCategory:   []CategoryRevenue{},
		ByPeriod:     []PeriodRevenue{},
	}
	for _, cr := range byCategory {
		report.ByCategory = append(report.ByCategory, *cr)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		a, b := report.ByCategory[i], report.ByCategory[j]
		if c := a.Total.Cmp(b.Total.Decimal); c != 0 {
			return c > 0
		}
		return a.CategoryCode < b.CategoryCode
	})
	for _, pr := range byPeriod {
		report.ByPeriod = append(report.ByPeriod, *pr)
	}
	sort.Slice(report.ByPeriod, func(i, j int) bool {
		return report.ByPeriod[i].Period < report.ByPeriod[j].Period
	})
	return report, nil
}

// cashflowDetail is GET /reports/cashflow-detail
func (b *Backend) cashflowDetail(ctx context.Context, c *call) (interface{}, error) {
	dateRange, err := b.dateRange(c)
	if err != nil {
		return nil, err
	}
	p, err := b.cashflowParameters(c)
	if err != nil {
		return nil, err
	}
	data, err := b.collections(ctx, collectionTransactions, collectionCategories, collectionAccounts)
	if err != nil {
		return nil, err
	}
	categories := resource.Index(data[collectionCategories])
	accounts := resource.Index(data[collectionAccounts])

	report := &CashflowDetail{Range: dateRange, Entries: []CashflowEntry{}}
	income, expense := decimal.Zero, decimal.Zero
	for _, e := range ledger(data[collectionTransactions], categories, dateRange) {
		if p.Type != "" && e.kind != p.Type {
			continue
		}
		categoryID, hasCategory := e.record.Int("category_id")
		if p.HasCategoryID && (!hasCategory || categoryID != p.CategoryID) {
			continue
		}
		accountID, hasAccount := e.record.Int("account_id")
		entry := CashflowEntry{
			ID:           e.record.ID,
			Date:         e.date,
			Type:         e.kind,
			Amount:       money(e.amount),
			Description:  e.record.String("description"),
			CategoryName: e.category.name,
			AccountName:  nameOf(accounts, accountID, hasAccount, "name"),
		}
		entry.CategoryID, _ = e.record.Get("category_id")
		entry.AccountID, _ = e.record.Get("account_id")
		entry.InvoiceID, _ = e.record.Get("invoice_id")
		report.Entries = append(report.Entries, entry)
		if e.kind == typeIncome {
			income = income.Add(e.amount)
		} else {
			expense = expense.Add(e.amount)
		}
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.ID > b.ID
	})
	report.Totals = CashflowTotals{
		Income:  money(income),
		Expense: money(expense),
		Net:     money(income.Sub(expense)),
		Count:   len(report.Entries),
	}
	return report, nil
}
