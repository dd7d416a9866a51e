package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client sends chat-completion requests to a provider-agnostic endpoint. It
// owns base URL normalization, provider-family detection, proxy resolution,
// and the shape-fallback retry policy.
type Client struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
	proxyURL   string
	proxySrc   string
	provider   Provider
	log        *slog.Logger

	mu              sync.Mutex
	cooldownExpires time.Time
	cooldownModel   string
	lastProbeAt     time.Time
	probeMinInterval time.Duration
}

// Config is the subset of model.Config the client needs, plus an optional
// logger. Kept separate from model.Config so llm has no import-cycle back
// onto higher layers.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	FallbackModel string
	Proxy         string
	Reasoning     bool
	Debug         bool
}

func New(cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	base := normalizeBaseURL(cfg.BaseURL)
	proxyURL, proxySrc := resolveProxyURL(cfg.Proxy, base)

	httpClient, err := buildHTTPClient(proxyURL, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("build http client: %w", err)
	}

	c := &Client{
		cfg:              cfg,
		httpClient:       httpClient,
		baseURL:          base,
		proxyURL:         proxyURL,
		proxySrc:         proxySrc,
		provider:         detectProvider(base, cfg.Model),
		log:              log,
		probeMinInterval: 60 * time.Second,
	}
	if cfg.Debug {
		log.Debug("llm client initialized",
			"model", cfg.Model, "base_url", base, "proxy", proxyURL, "proxy_source", proxySrc,
			"reasoning", cfg.Reasoning, "provider", c.provider)
	}
	return c, nil
}

// CreateCompletion sends the request, applying shape-fallback retry on
// classified provider errors, and returns the decoded non-streaming
// Response.
func (c *Client) CreateCompletion(ctx context.Context, req Request) (*Response, error) {
	req.Model = c.effectiveModel()
	if req.Temperature == nil {
		t := c.cfg0Temperature()
		req.Temperature = &t
	}
	if extra := c.reasoningExtraBody(); extra != nil {
		req.ExtraBody = extra
	}

	active := req
	for {
		resp, err := c.doRequest(ctx, active)
		if err == nil {
			return resp, nil
		}

		reqErr, ok := asRequestError(err)
		if !ok || !isRetriableShapeError(reqErr) {
			c.noteFailure(reqErr)
			return nil, err
		}

		next, label, ok := reduceRequest(active)
		if !ok {
			return nil, err
		}
		if c.cfg.Debug {
			c.log.Debug("retrying completion with reduced payload", "reduction", label)
		}
		active = next
	}
}

func (c *Client) cfg0Temperature() float64 { return 0.4 }

// effectiveModel returns the fallback model while a cooldown from a recent
// rate-limit is active, recovering to the primary model once it expires.
// This is additive to the spec's literal shape-fallback and disabled
// unless a fallback model is configured.
func (c *Client) effectiveModel() string {
	if c.cfg.FallbackModel == "" {
		return c.cfg.Model
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().Before(c.cooldownExpires) {
		return c.cooldownModel
	}
	return c.cfg.Model
}

func (c *Client) noteFailure(reqErr *RequestError) {
	if reqErr == nil || c.cfg.FallbackModel == "" {
		return
	}
	if !isRateLimitError(reqErr.StatusCode, reqErr.Text) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cooldownExpires = time.Now().Add(2 * time.Minute)
	c.cooldownModel = c.cfg.FallbackModel
}

// reasoningExtraBody injects the DeepSeek-specific thinking toggle. Every
// other provider family gets no extra_body key at all, even when routed
// through a gateway proxying a DeepSeek model under a non-deepseek base URL.
func (c *Client) reasoningExtraBody() map[string]any {
	if c.provider != ProviderDeepSeek {
		return nil
	}
	thinkingType := "disabled"
	if c.cfg.Reasoning {
		thinkingType = "enabled"
	}
	return map[string]any{"thinking": map[string]any{"type": thinkingType}}
}

func asRequestError(err error) (*RequestError, bool) {
	reqErr, ok := err.(*RequestError)
	return reqErr, ok
}

// reduceRequest applies the next shape-fallback field drop, in the fixed
// order extra_body -> tools+tool_choice -> temperature. Returns ok=false
// once nothing is left to drop.
func reduceRequest(req Request) (Request, string, bool) {
	if req.ExtraBody != nil {
		req.ExtraBody = nil
		return req, "extra_body", true
	}
	if len(req.Tools) > 0 || req.ToolChoice != "" {
		req.Tools = nil
		req.ToolChoice = ""
		return req, "tools+tool_choice", true
	}
	if req.Temperature != nil {
		req.Temperature = nil
		return req, "temperature", true
	}
	return req, "", false
}

func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)
	if httpResp.StatusCode >= 400 {
		return nil, &RequestError{StatusCode: httpResp.StatusCode, Text: string(respBody)}
	}

	return decodeResponse(respBody)
}

func classifyTransportError(err error) error {
	return fmt.Errorf("llm: request failed: %w", err)
}
