package keymaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/logger"
)

// httpClient talks to a remote gatekeeper/keymaster service over JSON REST
type httpClient struct {
	baseURL       string
	client        *http.Client
	verifyRetries int
}

// Config holds HTTP client configuration
type Config struct {
	GatekeeperURL string
	Timeout       time.Duration
	VerifyRetries int
}

// NewHTTPClient creates a keymaster client for a remote gatekeeper
func NewHTTPClient(cfg Config) Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.VerifyRetries == 0 {
		cfg.VerifyRetries = 10
	}
	return &httpClient{
		baseURL:       cfg.GatekeeperURL,
		client:        &http.Client{Timeout: cfg.Timeout},
		verifyRetries: cfg.VerifyRetries,
	}
}

// do executes one request with exponential backoff on network errors and
// rate limiting. Other non-2xx statuses are permanent failures.
func (c *httpClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// network errors are retryable
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("path", path))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Warn("gatekeeper rate limited, retrying with backoff", zap.String("path", path))
			return fmt.Errorf("rate limited (429), retrying")
		}

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%s: %w", path, domain.ErrNotFound))
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("gatekeeper returned %d: %s: %w",
				resp.StatusCode, string(raw), domain.ErrUpstream))
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return respBody, nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *httpClient) postJSON(ctx context.Context, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}
	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *httpClient) ResolveDID(ctx context.Context, did domain.DID) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/v1/did/"+url.PathEscape(did.String()), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *httpClient) CreateAsset(ctx context.Context, doc *domain.AssetDoc) (domain.DID, error) {
	var out struct {
		DID domain.DID `json:"did"`
	}
	if err := c.postJSON(ctx, "/api/v1/assets", doc, &out); err != nil {
		return "", err
	}
	return out.DID, nil
}

func (c *httpClient) ResolveAsset(ctx context.Context, did domain.DID) (*domain.AssetDoc, error) {
	var doc domain.AssetDoc
	if err := c.getJSON(ctx, "/api/v1/assets/"+url.PathEscape(did.String()), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *httpClient) UpdateAsset(ctx context.Context, did domain.DID, doc *domain.AssetDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, "/api/v1/assets/"+url.PathEscape(did.String()), body)
	return err
}

func (c *httpClient) CloneAsset(ctx context.Context, did domain.DID) (domain.DID, error) {
	var out struct {
		DID domain.DID `json:"did"`
	}
	if err := c.postJSON(ctx, "/api/v1/assets/"+url.PathEscape(did.String())+"/clone", nil, &out); err != nil {
		return "", err
	}
	return out.DID, nil
}

func (c *httpClient) CreateImage(ctx context.Context, data []byte) (domain.DID, *domain.ImageInfo, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/v1/images", data)
	if err != nil {
		return "", nil, err
	}
	var out struct {
		DID   domain.DID       `json:"did"`
		Image domain.ImageInfo `json:"image"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", nil, err
	}
	return out.DID, &out.Image, nil
}

func (c *httpClient) FetchBlob(ctx context.Context, cid string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/ipfs/"+url.PathEscape(cid), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch blob: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("cid", cid))
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", fmt.Errorf("blob %s: %w", cid, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("gatekeeper returned %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *httpClient) CreateChallenge(ctx context.Context, callback string) (*Challenge, error) {
	var out Challenge
	in := map[string]string{"callback": callback}
	if err := c.postJSON(ctx, "/api/v1/challenge", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyResponse verifies a login response. The wallet may still be
// publishing the response document when the callback fires, so unresolved
// responses are retried with a constant interval up to the configured bound.
func (c *httpClient) VerifyResponse(ctx context.Context, response string) (*VerifyResult, error) {
	var result VerifyResult

	operation := func() error {
		in := map[string]string{"response": response}
		return c.postJSON(ctx, "/api/v1/response/verify", in, &result)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), uint64(c.verifyRetries)), //nolint:gosec
		ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("verify response: %w", err)
	}
	return &result, nil
}
