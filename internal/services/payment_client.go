package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PaymentClient verifies platform-fee charges against the payment service.
// The platform never moves bill money; the only charge is the per-side swap
// fee, and this client confirms a charge reference actually settled.
type PaymentClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewPaymentClient(baseURL string, log *zap.Logger) *PaymentClient {
	return &PaymentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type chargeStatus struct {
	Settled     bool  `json:"settled"`
	AmountMinor int64 `json:"amount_minor"`
}

// VerifyCharge reports whether the charge reference settled for at least the
// expected amount.
func (c *PaymentClient) VerifyCharge(ctx context.Context, reference string, expectedMinor int64) (bool, error) {
	url := fmt.Sprintf("%s/internal/charges/%s", c.baseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("payment service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("payment service returned %d: %s", resp.StatusCode, string(b))
	}

	var status chargeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, err
	}
	return status.Settled && status.AmountMinor >= expectedMinor, nil
}
