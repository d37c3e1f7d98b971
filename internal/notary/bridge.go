package notary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// BridgeClient calls the remote signing service. The bridge holds its own
// key material; the operational key is never needed on this path.
type BridgeClient struct {
	url    string
	client *http.Client
}

func NewBridgeClient(url string, timeout time.Duration) *BridgeClient {
	return &BridgeClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type bridgeRequest struct {
	EventPayload Event `json:"eventPayload"`
}

type bridgeResponse struct {
	Signature   string `json:"signature"`
	ExplorerURL string `json:"explorerUrl"`
	Code        string `json:"code,omitempty"`
}

// Sign submits the event to the bridge. Transport failures and non-success
// responses wrap errUnreachable so the adapter falls back; a structured
// signing-logic rejection (HTTP 422 with a ledger code) is returned as a
// typed gateway error instead.
func (b *BridgeClient) Sign(ctx context.Context, event Event) (*Receipt, error) {
	body, err := json.Marshal(bridgeRequest{EventPayload: event})
	if err != nil {
		return nil, fmt.Errorf("marshal bridge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnreachable, err)
	}
	defer resp.Body.Close()

	var parsed bridgeResponse
	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("%w: malformed bridge response: %v", errUnreachable, err)
		}
		if parsed.Signature == "" {
			return nil, fmt.Errorf("%w: bridge response missing signature", errUnreachable)
		}
		return &Receipt{
			Signature:   parsed.Signature,
			ExplorerURL: parsed.ExplorerURL,
			Status:      StatusBridgeVerified,
		}, nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		// Only a recognized signing-rejection code bypasses the fallback; an
		// unknown code is treated like any other non-success response.
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.Code != "" {
			if mapped := mapLedgerCode(parsed.Code); isLedgerCode(mapped) {
				return nil, mapped
			}
			return nil, fmt.Errorf("%w: bridge rejected with unknown ledger code %s", errUnreachable, parsed.Code)
		}
		return nil, fmt.Errorf("%w: bridge returned %d", errUnreachable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: bridge returned %d", errUnreachable, resp.StatusCode)
	}
}
