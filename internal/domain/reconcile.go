package domain

import "github.com/shopspring/decimal"

// ReconcileBalance recomputes an account balance from its full
// transaction list: the signed sum under the SignedAmount convention.
// The sum is commutative, so the result is independent of transaction
// ordering. It is used to verify the cached balance column and to build
// statement views that don't trust it.
func ReconcileBalance(transactions []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for i := range transactions {
		balance = balance.Add(transactions[i].SignedAmount())
	}
	return balance
}

// Reconciled reports whether the account's cached balance matches the
// balance recomputed from its transactions.
func Reconciled(account *Account, transactions []Transaction) bool {
	return account.Balance.Equal(ReconcileBalance(transactions))
}
