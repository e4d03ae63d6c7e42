package dto

// Payloads trocados com o wallet-service.

type DeltaRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amountCents"`
	Description string `json:"description"`
}

type AwardTokensRequest struct {
	UserID string `json:"userId"`
	Tokens int64  `json:"tokens"`
}

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	Address      string `json:"address"`
	BalanceCents int64  `json:"balanceCents"`
	DakTokens    int64  `json:"dakTokens"`
}
