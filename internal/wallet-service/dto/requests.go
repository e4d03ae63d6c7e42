package dto

type DepositRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
}

type WithdrawRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	DestAddress string `json:"dest_address"`
}

// DeltaRequest é usada em /wallet/credit e /wallet/debit pelos serviços
// internos (stake de pool, devolução, prêmio). AmountCents é sempre positivo;
// o sinal vem da rota.
type DeltaRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

type AwardTokensRequest struct {
	UserID string `json:"userId"`
	Tokens int64  `json:"tokens"`
}
