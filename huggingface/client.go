package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inference-gateway/config"
	"inference-gateway/models"

	"github.com/apex/log"
)

const maxResponseBytes = 64 << 20

// Client sends single requests to a Hugging Face style inference endpoint.
// Deadlines come from the caller's context.
type Client struct {
	httpClient *http.Client
	maxBody    int64
}

// NewClient creates a client. A nil httpClient selects a default one.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, maxBody: maxResponseBytes}
}

// errorBody is the error payload returned by the inference API. The error
// field is a string or a list of strings depending on the model.
type errorBody struct {
	Error         json.RawMessage `json:"error"`
	EstimatedTime *float64        `json:"estimated_time"`
}

func (b errorBody) message() string {
	var s string
	if err := json.Unmarshal(b.Error, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(b.Error, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return string(b.Error)
}

// response is a successful provider answer.
type response struct {
	Body        []byte
	ContentType string
}

func (c *Client) postJSON(ctx context.Context, cfg config.ProviderConfig, payload any, accept string) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, models.NewProviderError(0, fmt.Errorf("failed to marshal request: %w", err))
	}
	return c.post(ctx, cfg, body, "application/json", accept)
}

func (c *Client) postBinary(ctx context.Context, cfg config.ProviderConfig, blob models.MediaBlob, accept string) (*response, error) {
	return c.post(ctx, cfg, blob.Bytes, blob.MimeType, accept)
}

func (c *Client) post(ctx context.Context, cfg config.ProviderConfig, body []byte, contentType, accept string) (*response, error) {
	url := cfg.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewProviderError(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	log.Debugf("Sending %d bytes of %s to %s", len(body), contentType, url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewTimeoutError(err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, models.NewProviderError(0, fmt.Errorf("failed to send request to %s: %w", cfg.Model, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewTimeoutError(err)
		}
		return nil, models.NewProviderError(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	if int64(len(respBody)) > c.maxBody {
		return nil, models.NewProviderError(resp.StatusCode, fmt.Errorf("response from %s exceeds %d bytes", cfg.Model, c.maxBody))
	}

	respType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, resp.Header, respBody)
	}
	// Some models answer 200 with an error payload.
	if isJSON(respType) {
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil && len(eb.Error) > 0 {
			return nil, classify(resp.StatusCode, resp.Header, respBody)
		}
	}

	return &response{Body: respBody, ContentType: respType}, nil
}

// classify turns a provider error answer into a rejection. A 2xx status
// carrying an error payload is classified by its message alone.
func classify(status int, header http.Header, body []byte) error {
	var eb errorBody
	msg := strings.TrimSpace(string(body))
	var retryAfter time.Duration
	if json.Unmarshal(body, &eb) == nil && len(eb.Error) > 0 {
		msg = eb.message()
		if eb.EstimatedTime != nil && *eb.EstimatedTime > 0 {
			retryAfter = time.Duration(*eb.EstimatedTime * float64(time.Second))
		}
	}
	if retryAfter == 0 {
		retryAfter = parseRetryAfter(header.Get("Retry-After"))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	lower := strings.ToLower(msg)
	var reason models.RejectionReason
	switch {
	case status == http.StatusServiceUnavailable || strings.Contains(lower, "loading"):
		reason = models.ReasonColdStart
	case status == http.StatusTooManyRequests || strings.Contains(lower, "rate limit"):
		reason = models.ReasonRateLimited
	case status >= 400 && status < 500, status >= 200 && status < 300:
		reason = models.ReasonInvalidInput
	default:
		reason = models.ReasonUnavailable
	}
	return models.NewProviderRejection(reason, status, msg, retryAfter)
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"))
}

// decodeList decodes a JSON array, or a single object as a one element
// list.
func decodeList[T any](model string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if isNull(trimmed) {
		return nil, models.NewNormalizationError(fmt.Sprintf("empty response from %s", model))
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, undecodable(model, err)
		}
		return []T{one}, nil
	}
	var list []T
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, undecodable(model, err)
	}
	return list, nil
}

func decodeObject[T any](model string, body []byte) (T, error) {
	var v T
	if isNull(bytes.TrimSpace(body)) {
		return v, models.NewNormalizationError(fmt.Sprintf("empty response from %s", model))
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, undecodable(model, err)
	}
	return v, nil
}

func isNull(body []byte) bool {
	return len(body) == 0 || bytes.Equal(body, []byte("null"))
}

func undecodable(model string, err error) error {
	ne := models.NewNormalizationError(fmt.Sprintf("undecodable response from %s", model))
	ne.Err = err
	return ne
}
