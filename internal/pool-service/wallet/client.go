package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/radieske/pool-bet-platform/internal/pool-service/wallet/dto"
)

// ErrInsufficientFunds é devolvido quando o wallet-service rejeita o débito.
var ErrInsufficientFunds = errors.New("wallet: insufficient funds")

// Client fala com o wallet-service por HTTP. Debit acontece antes de
// registrar a entrada no pool; Credit serve de compensação quando o
// registro falha depois do débito.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Debit(ctx context.Context, userID string, cents int64, description string) error {
	return c.delta(ctx, "/wallet/debit", userID, cents, description)
}

func (c *Client) Credit(ctx context.Context, userID string, cents int64, description string) error {
	return c.delta(ctx, "/wallet/credit", userID, cents, description)
}

func (c *Client) AwardTokens(ctx context.Context, userID string, tokens int64) error {
	body, _ := json.Marshal(walletdto.AwardTokensRequest{UserID: userID, Tokens: tokens})
	return c.post(ctx, "/wallet/tokens", body)
}

func (c *Client) delta(ctx context.Context, path, userID string, cents int64, description string) error {
	body, _ := json.Marshal(walletdto.DeltaRequest{UserID: userID, AmountCents: cents, Description: description})
	return c.post(ctx, path, body)
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return ErrInsufficientFunds
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	return nil
}
