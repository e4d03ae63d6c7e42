package dto

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	Address      string `json:"walletAddress"`
	BalanceCents int64  `json:"balance_cents"`
	DakTokens    int64  `json:"dakTokens"`
}

type WithdrawResponse struct {
	UserID             string `json:"userId"`
	BalanceCents       int64  `json:"balance_cents"`
	FeeCents           int64  `json:"fee_cents"`
	TotalDeductedCents int64  `json:"total_deducted_cents"`
}

type Transaction struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"` // "deposit" | "withdraw"
	AmountCents int64  `json:"amount_cents"`
	FeeCents    int64  `json:"fee_cents,omitempty"`
	Status      string `json:"status"`
	Description string `json:"description"`
	DestAddress string `json:"dest_address,omitempty"`
	Date        string `json:"date"` // RFC3339
}

type TransactionsResponse struct {
	UserID       string        `json:"userId"`
	Transactions []Transaction `json:"transactions"`
}
