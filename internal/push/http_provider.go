package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPProvider delivers messages by POSTing the FCM v1 send envelope to the
// configured endpoint. The endpoint and bearer token are injected from config
// so tests can point to a local mock.
type HTTPProvider struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
}

func NewHTTPProvider(endpoint, authToken string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		endpoint:  endpoint,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendEnvelope struct {
	Message *Message `json:"message"`
}

// sendResponse maps the provider's response body; Name is the receipt id.
type sendResponse struct {
	Name string `json:"name"`
}

// Send posts one message and returns the receipt id from the response body.
func (p *HTTPProvider) Send(ctx context.Context, msg *Message) (string, error) {
	body, err := json.Marshal(sendEnvelope{Message: msg})
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected delivery status: %d", resp.StatusCode)
	}

	var sendResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sendResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if sendResp.Name == "" {
		return "", fmt.Errorf("delivery response missing receipt id")
	}

	return sendResp.Name, nil
}

// compile-time check that HTTPProvider implements Provider
var _ Provider = (*HTTPProvider)(nil)
