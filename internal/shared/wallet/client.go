// Package wallet é o cliente HTTP do wallet-service usado pelo bet-service
// (reserva) e pelo settlement-worker (efetivação, estorno e prêmio).
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/radieske/pelada-bet-platform/internal/wallet-service/dto"
)

var (
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	ErrNotFound          = errors.New("wallet: not found")
)

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

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case res.StatusCode == http.StatusConflict:
		return ErrInsufficientFunds
	case res.StatusCode >= 300:
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Reserve bloqueia o valor apostado; externalRef = slipId
func (c *Client) Reserve(ctx context.Context, userID string, cents int64, externalRef string) (string, error) {
	var out dto.ReservationResponse
	err := c.post(ctx, "/wallet/reserve", dto.ReserveRequest{UserID: userID, AmountCents: cents, ExternalRef: externalRef}, &out)
	return out.ReservationID, err
}

// Commit efetiva a reserva de um bilhete perdido ou ganho
func (c *Client) Commit(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/commit", dto.CommitRequest{UserID: userID, ExternalRef: externalRef}, nil)
}

// Refund devolve a reserva de um bilhete anulado ou não gravado
func (c *Client) Refund(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/refund", dto.RefundRequest{UserID: userID, ExternalRef: externalRef}, nil)
}

// Credit paga o prêmio; applied=false quando o externalRef já tinha sido pago
func (c *Client) Credit(ctx context.Context, userID string, cents int64, externalRef string) (bool, error) {
	var out dto.CreditResponse
	err := c.post(ctx, "/wallet/credit", dto.CreditRequest{UserID: userID, AmountCents: cents, ExternalRef: externalRef}, &out)
	return out.Applied, err
}
