package models

import "github.com/shopspring/decimal"

// Deposit is one inbound transfer observed on the external ledger network,
// addressed to a pool account with a memo naming the managed account to credit.
type Deposit struct {
	TxID    string
	Pool    string
	Account string
	Amount  decimal.Decimal
}

// WalletSet maps an external owner identity to the wallet addresses it
// controls. An owner always contains itself as a wallet.
type WalletSet struct {
	Owner   string   `json:"owner"`
	Wallets []string `json:"wallets"`
}

// Has reports whether the wallet is already part of the set.
func (w *WalletSet) Has(wallet string) bool {
	for _, existing := range w.Wallets {
		if existing == wallet {
			return true
		}
	}
	return false
}
