package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const contributionsEndpoint = "contributions"

type httpLedger struct {
	url    string
	client *http.Client
}

// NewHTTPLedger submits contributions as JSON to <url>/contributions and
// expects the ledger to answer with the assigned transaction id.
func NewHTTPLedger(url string, timeout time.Duration) Ledger {
	return &httpLedger{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (l *httpLedger) SubmitContribution(ctx context.Context, nodeID string, score float64) (string, error) {
	if err := validate(nodeID, score); err != nil {
		return "", err
	}

	data, err := json.Marshal(Contribution{NodeID: nodeID, Score: score})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s", l.url, contributionsEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return "", fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(body))
	}

	var c Contribution
	if err := json.Unmarshal(body, &c); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRejected, err)
	}

	return c.TransactionID, nil
}
