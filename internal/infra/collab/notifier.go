package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/pkg/errs"

	"github.com/google/uuid"
)

// HTTPNotifier forwards user messages to the external notification service.
// Delivery is fire-and-forget from the engine's point of view; callers log
// failures and never block on them.
type HTTPNotifier struct {
	baseURL string
	hc      *http.Client
}

func NewHTTPNotifier(cfg config.CollabConfig) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: cfg.NotifierBaseURL,
		hc:      &http.Client{Timeout: cfg.Timeout},
	}
}

type notifyRequest struct {
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

func (n *HTTPNotifier) Notify(ctx context.Context, userID uuid.UUID, message string) error {
	b, err := json.Marshal(notifyRequest{UserID: userID, Message: message})
	if err != nil {
		return errs.Wrap(err, "failed to marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/notifications", bytes.NewReader(b))
	if err != nil {
		return errs.Wrap(err, "failed to build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.hc.Do(req)
	if err != nil {
		return errs.Wrap(err, "notification request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errs.New(fmt.Sprintf("notification rejected (status=%d)", resp.StatusCode))
	}
	return nil
}
