// Package receitaws adapts the ReceitaWS company registry API (secondary source).
package receitaws

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"golang.org/x/time/rate"

	"radar/internal/lookup/models"
	"radar/internal/lookup/providers"
	id "radar/pkg/domain"
)

// ProviderID names this source in errors, logs and metrics.
const ProviderID = "receitaws"

// DefaultBaseURL is the public ReceitaWS endpoint.
const DefaultBaseURL = "https://www.receitaws.com.br"

const (
	maxBodyBytes   = 1 << 20
	regimeSimples  = "Simples Nacional"
	regimeNormal   = "Regime Normal (Lucro Real ou Presumido)"
	currencyPrefix = "R$ "
	statusOK       = "OK"
)

var (
	tracer  = otel.Tracer("radar/internal/lookup/providers/receitaws")
	printer = message.NewPrinter(language.BrazilianPortuguese)
)

// Client queries GET {base}/v1/cnpj/{cnpj}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit spaces requests to at most perMinute per minute. Zero disables
// the limit.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}

// New creates a client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSecondary returns the registry profile for cnpj.
func (c *Client) FetchSecondary(ctx context.Context, cnpj id.CNPJ) (_ *models.SecondaryFields, err error) {
	ctx, span := tracer.Start(ctx, "receitaws.FetchSecondary")
	span.SetAttributes(attribute.String("cnpj", cnpj.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(providers.GetCategory(err)))
		}
		span.End()
	}()

	status, body, err := c.get(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	return parseResponse(status, body)
}

// Raw returns the decoded upstream JSON without normalization.
func (c *Client) Raw(ctx context.Context, cnpj id.CNPJ) (map[string]any, error) {
	status, body, err := c.get(ctx, cnpj)
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

func (c *Client) get(ctx context.Context, cnpj id.CNPJ) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, providers.NewProviderError(providers.ErrorRateLimited, ProviderID, "client-side rate limit wait aborted", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/cnpj/"+cnpj.String(), nil)
	if err != nil {
		return 0, nil, providers.NewProviderError(providers.ErrorInternal, ProviderID, "build request", err)
	}
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

type simples struct {
	Optante   *bool  `json:"optante"`
	DataOpcao string `json:"data_opcao"`
}

type response struct {
	Status        string      `json:"status"`
	Message       string      `json:"message"`
	Nome          string      `json:"nome"`
	Fantasia      string      `json:"fantasia"`
	Municipio     string      `json:"municipio"`
	UF            string      `json:"uf"`
	Abertura      string      `json:"abertura"`
	CapitalSocial looseString `json:"capital_social"`
	Simples       *simples    `json:"simples"`
}

// looseString accepts a JSON string or number and keeps its text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	*s = looseString(data)
	return nil
}

func parseResponse(status int, body []byte) (*models.SecondaryFields, error) {
	if status < 200 || status > 299 {
		return nil, providers.FromStatus(ProviderID, status)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "decode response", err)
	}
	if r.Status != "" && r.Status != statusOK {
		msg := strings.TrimSpace(r.Message)
		if msg == "" {
			msg = "upstream returned status " + r.Status
		}
		return nil, providers.NewProviderError(providers.ErrorRejected, ProviderID, msg, nil)
	}

	fields := &models.SecondaryFields{
		LegalName:           strings.TrimSpace(r.Nome),
		TradeName:           strings.TrimSpace(r.Fantasia),
		Municipality:        strings.TrimSpace(r.Municipio),
		State:               strings.TrimSpace(r.UF),
		IncorporationDate:   strings.TrimSpace(r.Abertura),
		TaxRegimeOptionDate: models.NotApplicable,
		ShareCapital:        formatShareCapital(string(r.CapitalSocial)),
	}
	if r.Simples != nil && r.Simples.Optante != nil {
		if *r.Simples.Optante {
			fields.TaxRegime = regimeSimples
			fields.TaxRegimeOptionDate = strings.TrimSpace(r.Simples.DataOpcao)
		} else {
			fields.TaxRegime = regimeNormal
		}
	}
	if fields.LegalName != "" && fields.TradeName == "" {
		fields.TradeName = models.NoTradeName
	}
	return fields, nil
}

// formatShareCapital renders a numeric amount as Brazilian currency with two
// decimals ("R$ 1.234,50"). Non-numeric text is prefixed verbatim.
func formatShareCapital(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	value, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return currencyPrefix + raw
	}
	return currencyPrefix + printer.Sprint(number.Decimal(value, number.Scale(2)))
}
