package backend

import (
	"github.com/shopspring/decimal"

	"github.com/relabs-tech/rentdesk/core/resource"
)

// Money is a decimal amount which renders as a JSON number
type Money struct {
	decimal.Decimal
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func money(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// ledger conventions
const (
	collectionTransactions = "transactions"
	collectionCategories   = "transaction_categories"
	collectionAccounts     = "accounts"
	collectionInvoices     = "invoices"
	collectionContracts    = "contracts"
	collectionTenants      = "tenants"
	collectionRooms        = "rooms"
	collectionBranches     = "branches"

	typeIncome  = "income"
	typeExpense = "expense"

	// uncategorized ledger entries are reported under this category
	otherCategoryCode = "OTHER"
	otherCategoryName = "Khác"

	// notAvailable stands in for names of missing references
	notAvailable = "N/A"
)

// entryDate returns the date of a ledger entry, the transaction date with
// the creation time as fallback
func entryDate(r resource.Record) (string, bool) {
	return r.Date("transaction_date", "created_at")
}

// nameOf returns property of the record with id in index, or "N/A"
func nameOf(index map[int64]resource.Record, id int64, hasID bool, property string) string {
	if !hasID {
		return notAvailable
	}
	r, ok := index[id]
	if !ok {
		return notAvailable
	}
	if name := r.String(property); name != "" {
		return name
	}
	return notAvailable
}

// category identifies the category of a ledger entry
type category struct {
	id   int64
	code string
	name string
}

func categoryOf(entry resource.Record, categories map[int64]resource.Record) category {
	categoryID, ok := entry.Int("category_id")
	if !ok {
		return category{code: otherCategoryCode, name: otherCategoryName}
	}
	c, ok := categories[categoryID]
	if !ok {
		return category{code: otherCategoryCode, name: otherCategoryName}
	}
	code := c.String("code")
	if code == "" {
		return category{code: otherCategoryCode, name: otherCategoryName}
	}
	name := c.String("name")
	if name == "" {
		name = code
	}
	return category{id: categoryID, code: code, name: name}
}
