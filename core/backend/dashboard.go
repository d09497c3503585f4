package backend

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/relabs-tech/rentdesk/core/resource"
)

// recentLimit is the length of the recent activity lists
const recentLimit = 5

// DashboardStats is the response of GET /dashboard/stats
type DashboardStats struct {
	TotalBranches   int            `json:"total_branches"`
	TotalRooms      int            `json:"total_rooms"`
	TotalTenants    int            `json:"total_tenants"`
	RoomsByStatus   map[string]int `json:"rooms_by_status"`
	ActiveContracts int            `json:"active_contracts"`
	MonthlyRevenue  Money          `json:"monthly_revenue"`
	TotalRevenue    Money          `json:"total_revenue"`
}

// RecentContract is an entry of the recent contracts list
type RecentContract struct {
	ID         int64       `json:"id"`
	TenantName string      `json:"tenant_name"`
	RoomNumber string      `json:"room_number"`
	BranchName string      `json:"branch_name"`
	Status     string      `json:"status"`
	StartDate  interface{} `json:"start_date"`
	CreatedAt  interface{} `json:"created_at"`
}

// RecentPayment is an entry of the recent payments list
type RecentPayment struct {
	ID              int64       `json:"id"`
	Amount          Money       `json:"amount"`
	TransactionDate interface{} `json:"transaction_date"`
	Description     string      `json:"description"`
	InvoiceNumber   string      `json:"invoice_number"`
	TenantName      string      `json:"tenant_name"`
	RoomNumber      string      `json:"room_number"`
}

// DashboardRecent is the response of GET /dashboard/recent
type DashboardRecent struct {
	RecentContracts []RecentContract `json:"recent_contracts"`
	RecentPayments  []RecentPayment  `json:"recent_payments"`
}

// TotalBalance is the response of GET /accounts/total-balance
type TotalBalance struct {
	TotalBalance Money `json:"total_balance"`
	AccountCount int   `json:"account_count"`
}

// dashboardStats is GET /dashboard/stats
func (b *Backend) dashboardStats(ctx context.Context, c *call) (interface{}, error) {
	data, err := b.collections(ctx, collectionBranches, collectionRooms, collectionTenants, collectionContracts, collectionTransactions)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{
		TotalBranches: len(data[collectionBranches]),
		TotalRooms:    len(data[collectionRooms]),
		TotalTenants:  len(data[collectionTenants]),
		RoomsByStatus: map[string]int{},
	}
	for _, room := range data[collectionRooms] {
		status := room.String("status")
		if status == "" {
			status = "unknown"
		}
		stats.RoomsByStatus[status]++
	}
	for _, contract := range data[collectionContracts] {
		if strings.EqualFold(contract.String("status"), "active") {
			stats.ActiveContracts++
		}
	}

	month := resource.Today(b.now())[:len("2006-01")]
	monthly, total := decimal.Zero, decimal.Zero
	for _, entry := range data[collectionTransactions] {
		if entry.String("type") != typeIncome {
			continue
		}
		amount := entry.AmountOf("amount")
		total = total.Add(amount)
		if date, ok := entryDate(entry); ok && strings.HasPrefix(date, month) {
			monthly = monthly.Add(amount)
		}
	}
	stats.MonthlyRevenue = money(monthly)
	stats.TotalRevenue = money(total)
	return stats, nil
}

// dashboardRecent is GET /dashboard/recent
func (b *Backend) dashboardRecent(ctx context.Context, c *call) (interface{}, error) {
	data, err := b.collections(ctx, collectionContracts, collectionTenants, collectionRooms,
		collectionBranches, collectionTransactions, collectionInvoices)
	if err != nil {
		return nil, err
	}
	tenants := resource.Index(data[collectionTenants])
	rooms := resource.Index(data[collectionRooms])
	branches := resource.Index(data[collectionBranches])
	contracts := resource.Index(data[collectionContracts])
	invoices := resource.Index(data[collectionInvoices])

	roomAndBranch := func(contract resource.Record) (string, string) {
		roomID, ok := contract.Int("room_id")
		room, found := rooms[roomID]
		if !ok || !found {
			return notAvailable, notAvailable
		}
		branchID, hasBranch := room.Int("branch_id")
		return nameOf(rooms, roomID, true, "room_number"), nameOf(branches, branchID, hasBranch, "name")
	}

	recent := &DashboardRecent{RecentContracts: []RecentContract{}, RecentPayments: []RecentPayment{}}

	sorted := append([]resource.Record{}, data[collectionContracts]...)
	sortNewestFirst(sorted, "created_at", "start_date")
	for i := 0; i < len(sorted) && i < recentLimit; i++ {
		contract := sorted[i]
		tenantID, hasTenant := contract.Int("tenant_id")
		roomNumber, branchName := roomAndBranch(contract)
		startDate, _ := contract.Get("start_date")
		createdAt, _ := contract.Get("created_at")
		recent.RecentContracts = append(recent.RecentContracts, RecentContract{
			ID:         contract.ID,
			TenantName: nameOf(tenants, tenantID, hasTenant, "full_name"),
			RoomNumber: roomNumber,
			BranchName: branchName,
			Status:     contract.String("status"),
			StartDate:  startDate,
			CreatedAt:  createdAt,
		})
	}

	income := []resource.Record{}
	for _, entry := range data[collectionTransactions] {
		if entry.String("type") == typeIncome {
			income = append(income, entry)
		}
	}
	sortNewestFirst(income, "transaction_date", "created_at")
	for i := 0; i < len(income) && i < recentLimit; i++ {
		entry := income[i]
		payment := RecentPayment{
			ID:            entry.ID,
			Amount:        money(entry.AmountOf("amount")),
			Description:   entry.String("description"),
			InvoiceNumber: notAvailable,
			TenantName:    notAvailable,
			RoomNumber:    notAvailable,
		}
		payment.TransactionDate, _ = entry.Get("transaction_date")
		if payment.TransactionDate == nil {
			payment.TransactionDate, _ = entry.Get("created_at")
		}
		if invoiceID, ok := entry.Int("invoice_id"); ok {
			if invoice, ok := invoices[invoiceID]; ok {
				payment.InvoiceNumber = nameOf(invoices, invoiceID, true, "invoice_number")
				if contractID, ok := invoice.Int("contract_id"); ok {
					if contract, ok := contracts[contractID]; ok {
						tenantID, hasTenant := contract.Int("tenant_id")
						payment.TenantName = nameOf(tenants, tenantID, hasTenant, "full_name")
						payment.RoomNumber, _ = roomAndBranch(contract)
					}
				}
			}
		}
		recent.RecentPayments = append(recent.RecentPayments, payment)
	}
	return recent, nil
}

// totalBalance is GET /accounts/total-balance. Accounts count unless they are
// explicitly inactive.
func (b *Backend) totalBalance(ctx context.Context, c *call) (interface{}, error) {
	accounts, err := b.collection(ctx, collectionAccounts)
	if err != nil {
		return nil, err
	}
	result := &TotalBalance{}
	total := decimal.Zero
	for _, account := range accounts {
		if active, ok := account.Bool("is_active"); ok && !active {
			continue
		}
		total = total.Add(account.AmountOf("balance"))
		result.AccountCount++
	}
	result.TotalBalance = money(total)
	return result, nil
}
