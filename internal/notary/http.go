package notary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client submits memos to a notarization ledger over HTTP. The ledger
// exposes POST {endpoint}/memos accepting a Memo and answering with a
// Receipt.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a Client for the given ledger endpoint. Submission
// deadlines come from the caller's context.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
	}
}

// Submit posts the memo and decodes the ledger's receipt.
func (c *Client) Submit(ctx context.Context, memo Memo) (Receipt, error) {
	body, err := json.Marshal(memo)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to encode memo: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/memos", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to build memo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to submit memo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Receipt{}, fmt.Errorf("notarization ledger returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("failed to decode ledger receipt: %w", err)
	}
	if receipt.ExternalRef == "" {
		return Receipt{}, fmt.Errorf("ledger receipt missing externalRef")
	}
	return receipt, nil
}
