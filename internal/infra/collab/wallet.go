package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/pkg/errs"

	"github.com/google/uuid"
)

// HTTPWallet talks to the external wallet service. The engine only knows
// the three capabilities; balances and ledgers live on the other side.
type HTTPWallet struct {
	baseURL string
	hc      *http.Client
}

func NewHTTPWallet(cfg config.CollabConfig) *HTTPWallet {
	return &HTTPWallet{
		baseURL: cfg.WalletBaseURL,
		hc:      &http.Client{Timeout: cfg.Timeout},
	}
}

type placeHoldRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
}

type placeHoldResponse struct {
	HoldRef string `json:"hold_ref"`
	Message string `json:"message"`
}

func (w *HTTPWallet) PlaceHold(ctx context.Context, userID uuid.UUID, amountCents int64) (string, error) {
	status, body, err := w.do(ctx, http.MethodPost, "/holds", placeHoldRequest{
		UserID:      userID,
		AmountCents: amountCents,
	})
	if err != nil {
		return "", err
	}

	var resp placeHoldResponse
	switch {
	case status == http.StatusPaymentRequired:
		return "", errs.ErrInsufficientFunds
	case status >= 400:
		_ = json.Unmarshal(body, &resp)
		return "", walletError("place hold", status, resp.Message)
	}

	if err := json.Unmarshal(body, &resp); err != nil || resp.HoldRef == "" {
		return "", errs.New("wallet returned no hold reference")
	}
	return resp.HoldRef, nil
}

func (w *HTTPWallet) ReleaseHold(ctx context.Context, holdRef string) error {
	status, body, err := w.do(ctx, http.MethodDelete, "/holds/"+holdRef, nil)
	if err != nil {
		return err
	}
	// A hold that is already gone is a successful release.
	if status >= 400 && status != http.StatusNotFound {
		var resp placeHoldResponse
		_ = json.Unmarshal(body, &resp)
		return walletError("release hold", status, resp.Message)
	}
	return nil
}

type debitRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Reference   string    `json:"reference"`
}

func (w *HTTPWallet) Debit(ctx context.Context, userID uuid.UUID, amountCents int64, reference string) error {
	status, body, err := w.do(ctx, http.MethodPost, "/debits", debitRequest{
		UserID:      userID,
		AmountCents: amountCents,
		Reference:   reference,
	})
	if err != nil {
		return err
	}
	if status == http.StatusPaymentRequired {
		return errs.ErrInsufficientFunds
	}
	if status >= 400 {
		var resp placeHoldResponse
		_ = json.Unmarshal(body, &resp)
		return walletError("debit", status, resp.Message)
	}
	return nil
}

func (w *HTTPWallet) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errs.Wrap(err, "failed to marshal wallet request")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, w.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, errs.Wrap(err, "failed to build wallet request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.hc.Do(req)
	if err != nil {
		return 0, nil, errs.Wrap(err, "wallet request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, errs.Wrap(err, "failed to read wallet response")
	}
	return resp.StatusCode, body, nil
}

func walletError(op string, status int, message string) error {
	if message != "" {
		return errs.New(fmt.Sprintf("wallet %s failed: %s (status=%d)", op, message, status))
	}
	return errs.New(fmt.Sprintf("wallet %s failed (status=%d)", op, status))
}
