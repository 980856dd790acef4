package domain

import (
	"strings"

	"github.com/google/uuid"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// AccountSortField enumerates the sortable account columns.
type AccountSortField string

const (
	AccountSortName    AccountSortField = "name"
	AccountSortNumber  AccountSortField = "accountNumber"
	AccountSortBalance AccountSortField = "balance"
)

// TransactionSortField enumerates the sortable transaction columns.
type TransactionSortField string

const (
	TransactionSortDate   TransactionSortField = "date"
	TransactionSortAmount TransactionSortField = "amount"
	TransactionSortType   TransactionSortField = "type"
)

// AccountSort is a validated (field, order) pair for account listings.
type AccountSort struct {
	Field AccountSortField
	Order SortOrder
}

// TransactionSort is a validated (field, order) pair for transaction listings.
type TransactionSort struct {
	Field TransactionSortField
	Order SortOrder
}

// AccountQuery filters and orders an account listing. Search is a
// case-insensitive substring match over name and account number.
type AccountQuery struct {
	Search string
	Sort   AccountSort
}

// TransactionQuery filters and orders a transaction listing. Search is a
// case-insensitive substring match over reference and account number;
// AccountID, when set, restricts the listing to one account.
type TransactionQuery struct {
	Search    string
	AccountID *uuid.UUID
	Sort      TransactionSort
}

// DefaultAccountSort is the order used when no (or an unrecognized) sort
// is requested: name ascending.
func DefaultAccountSort() AccountSort {
	return AccountSort{Field: AccountSortName, Order: SortAsc}
}

// DefaultTransactionSort is the order used when no (or an unrecognized)
// sort is requested: date descending, newest first.
func DefaultTransactionSort() TransactionSort {
	return TransactionSort{Field: TransactionSortDate, Order: SortDesc}
}

// NormalizeAccountSort maps raw sort parameters onto the account sort
// whitelist. Unrecognized field/order combinations fall back to the
// default order instead of erroring.
func NormalizeAccountSort(field, order string) AccountSort {
	o, ok := normalizeOrder(order)
	if !ok {
		return DefaultAccountSort()
	}
	switch {
	case strings.EqualFold(field, string(AccountSortName)):
		return AccountSort{Field: AccountSortName, Order: o}
	case strings.EqualFold(field, string(AccountSortNumber)):
		return AccountSort{Field: AccountSortNumber, Order: o}
	case strings.EqualFold(field, string(AccountSortBalance)):
		return AccountSort{Field: AccountSortBalance, Order: o}
	default:
		return DefaultAccountSort()
	}
}

// NormalizeTransactionSort maps raw sort parameters onto the transaction
// sort whitelist, falling back to the default order.
func NormalizeTransactionSort(field, order string) TransactionSort {
	o, ok := normalizeOrder(order)
	if !ok {
		return DefaultTransactionSort()
	}
	switch {
	case strings.EqualFold(field, string(TransactionSortDate)):
		return TransactionSort{Field: TransactionSortDate, Order: o}
	case strings.EqualFold(field, string(TransactionSortAmount)):
		return TransactionSort{Field: TransactionSortAmount, Order: o}
	case strings.EqualFold(field, string(TransactionSortType)):
		return TransactionSort{Field: TransactionSortType, Order: o}
	default:
		return DefaultTransactionSort()
	}
}

func normalizeOrder(order string) (SortOrder, bool) {
	switch strings.ToLower(order) {
	case string(SortAsc):
		return SortAsc, true
	case string(SortDesc):
		return SortDesc, true
	default:
		return "", false
	}
}
