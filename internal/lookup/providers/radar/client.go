// Package radar adapts the RADAR habilitation API (primary source).
package radar

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"radar/internal/lookup/models"
	"radar/internal/lookup/providers"
	id "radar/pkg/domain"
)

// ProviderID names this source in errors, logs and metrics.
const ProviderID = "radar"

const maxBodyBytes = 4 << 20

var tracer = otel.Tracer("radar/internal/lookup/providers/radar")

// Client calls the habilitation endpoint with a form-encoded POST.
type Client struct {
	url        string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (tests use httptest servers).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client. timeout bounds each request and is also forwarded to
// the upstream as its own processing budget.
func New(url, token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:        strings.TrimSpace(url),
		token:      strings.TrimSpace(token),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether both the endpoint and token are set.
func (c *Client) Configured() bool {
	return c.url != "" && c.token != ""
}

// FetchPrimary returns the habilitation fields for cnpj. Missing upstream
// fields come back as empty strings; an answer with nothing in it is a
// success with an empty group.
func (c *Client) FetchPrimary(ctx context.Context, cnpj id.CNPJ) (_ *models.PrimaryFields, err error) {
	ctx, span := tracer.Start(ctx, "radar.FetchPrimary")
	span.SetAttributes(attribute.String("cnpj", cnpj.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(providers.GetCategory(err)))
		}
		span.End()
	}()

	status, body, err := c.post(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	return parseResponse(status, body)
}

// Raw returns the decoded upstream JSON without normalization.
func (c *Client) Raw(ctx context.Context, cnpj id.CNPJ) (map[string]any, error) {
	status, body, err := c.post(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, providers.FromStatus(ProviderID, status)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "decode response", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, cnpj id.CNPJ) (int, []byte, error) {
	if !c.Configured() {
		return 0, nil, providers.NewProviderError(providers.ErrorInternal, ProviderID, "RADAR url or token not configured", nil)
	}

	form := url.Values{}
	form.Set("cnpj", cnpj.String())
	form.Set("token", c.token)
	form.Set("timeout", strconv.Itoa(int(c.timeout.Seconds())))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, providers.NewProviderError(providers.ErrorInternal, ProviderID, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, providers.FromTransportError(ProviderID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, providers.FromTransportError(ProviderID, err)
	}
	return resp.StatusCode, body, nil
}

type envelope struct {
	Code        int             `json:"code"`
	CodeMessage string          `json:"code_message"`
	Data        json.RawMessage `json:"data"`
}

var (
	contributorKeys = []string{"contribuinte", "nome_contribuinte", "contr_nome"}
	statusKeys      = []string{"situacao", "situacao_habilitacao", "status"}
	statusDateKeys  = []string{"data_situacao", "situacao_data", "data_situacao_habilitacao"}
	subModalityKeys = []string{"submodalidade", "submodalidade_texto", "submodalidade_descricao"}
)

func parseResponse(status int, body []byte) (*models.PrimaryFields, error) {
	if status < 200 || status > 299 {
		return nil, providers.FromStatus(ProviderID, status)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "decode response", err)
	}
	if env.Code != 0 && (env.Code < 200 || env.Code > 299) {
		msg := env.CodeMessage
		if msg == "" {
			msg = "upstream returned code " + strconv.Itoa(env.Code)
		}
		return nil, providers.NewProviderError(providers.ErrorRejected, ProviderID, msg, nil)
	}

	record, err := firstRecord(env.Data)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "decode data", err)
	}

	return &models.PrimaryFields{
		Contributor: firstString(record, contributorKeys),
		Status:      firstString(record, statusKeys),
		StatusDate:  firstString(record, statusDateKeys),
		SubModality: firstString(record, subModalityKeys),
	}, nil
}

// firstRecord accepts data as an array (first element), an object keyed "0",
// or a plain object.
func firstRecord(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items[0], nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		if first, ok := obj["0"].(map[string]any); ok {
			return first, nil
		}
		return obj, nil
	default:
		return nil, nil
	}
}

func firstString(record map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := record[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
