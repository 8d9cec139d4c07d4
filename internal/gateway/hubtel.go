package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/models"
)

const (
	defaultStatusBaseURL        = "https://api-txnstatus.hubtel.com"
	defaultTimeout              = 15 * time.Second
	responseBodyReadLimit int64 = 1 << 20
)

var errBaseURLRequired = errors.New("provider base url is required")

// HubtelClient talks to Hubtel commission services with basic auth.
type HubtelClient struct {
	httpClient       *http.Client
	baseURL          string
	statusBaseURL    string
	clientID         string
	clientSecret     string
	prepaidDepositID string
	posSalesID       string
}

// Option configures optional client behavior.
type Option func(*HubtelClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HubtelClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HubtelClient) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithStatusBaseURL overrides the transaction status host.
func WithStatusBaseURL(baseURL string) Option {
	return func(c *HubtelClient) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.statusBaseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// NewHubtelClient builds a client from a provider's stored config.
func NewHubtelClient(cfg models.ProviderConfig, opts ...Option) (*HubtelClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	client := &HubtelClient{
		httpClient:       &http.Client{Timeout: defaultTimeout},
		baseURL:          base,
		statusBaseURL:    defaultStatusBaseURL,
		clientID:         cfg.ClientID,
		clientSecret:     cfg.ClientSecret,
		prepaidDepositID: cfg.PrepaidDepositID,
		posSalesID:       cfg.PosSalesID,
	}
	WithStatusBaseURL(cfg.StatusBaseURL)(client)
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type hubtelSubmitBody struct {
	Destination     string            `json:"Destination"`
	Amount          json.Number       `json:"Amount"`
	CallbackURL     string            `json:"CallbackUrl"`
	ClientReference string            `json:"ClientReference"`
	Extradata       map[string]string `json:"Extradata,omitempty"`
}

type hubtelEnvelope struct {
	ResponseCode string          `json:"ResponseCode"`
	Message      string          `json:"Message"`
	Data         json.RawMessage `json:"Data"`
}

type hubtelTxnData struct {
	TransactionID   string `json:"TransactionId"`
	ClientReference string `json:"ClientReference"`
	Status          string `json:"Status"`
}

func (c *HubtelClient) commissionPath(serviceID string) string {
	return fmt.Sprintf("%s/commissionservices/%s/%s",
		c.baseURL, url.PathEscape(c.prepaidDepositID), url.PathEscape(serviceID))
}

func (c *HubtelClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if strings.TrimSpace(req.ServiceID) == "" {
		return nil, fmt.Errorf("service id is required")
	}
	body := hubtelSubmitBody{
		Destination:     req.Destination,
		Amount:          json.Number(domain.ProviderAmount(req.Amount)),
		CallbackURL:     req.CallbackURL,
		ClientReference: req.ClientReference,
	}
	if len(req.ExtraData) > 0 {
		body.Extradata = req.ExtraData
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.commissionPath(req.ServiceID), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)

	raw, env, err := c.do(httpReq, "submit")
	if err != nil {
		return nil, err
	}
	res := &SubmitResult{
		ResponseCode: env.ResponseCode,
		Message:      env.Message,
		Raw:          raw,
	}
	var data hubtelTxnData
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &data) == nil {
		res.ProviderTransactionID = data.TransactionID
	}
	return res, nil
}

func (c *HubtelClient) QueryStatus(ctx context.Context, q StatusQuery) (*StatusResult, error) {
	if c.posSalesID == "" {
		return nil, fmt.Errorf("posSalesId is not configured")
	}
	if q.Empty() {
		return nil, fmt.Errorf("a client reference or transaction id is required")
	}
	params := url.Values{}
	if q.ClientReference != "" {
		params.Set("clientReference", q.ClientReference)
	}
	if q.ProviderTransactionID != "" {
		params.Set("hubtelTransactionId", q.ProviderTransactionID)
	}
	if q.NetworkTransactionID != "" {
		params.Set("networkTransactionId", q.NetworkTransactionID)
	}
	endpoint := fmt.Sprintf("%s/transactions/%s/status?%s",
		c.statusBaseURL, url.PathEscape(c.posSalesID), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)

	raw, env, err := c.do(httpReq, "status")
	if err != nil {
		return nil, err
	}
	res := &StatusResult{
		ResponseCode: env.ResponseCode,
		Message:      env.Message,
		Raw:          raw,
	}
	var data hubtelTxnData
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &data) == nil {
		res.ProviderStatus = data.Status
		res.ProviderTransactionID = data.TransactionID
	}
	return res, nil
}

func (c *HubtelClient) Lookup(ctx context.Context, req LookupRequest) (*LookupResult, error) {
	if strings.TrimSpace(req.ServiceID) == "" {
		return nil, fmt.Errorf("service id is required")
	}
	params := url.Values{}
	params.Set("destination", req.Destination)
	for k, v := range req.Params {
		params.Set(k, v)
	}
	endpoint := c.commissionPath(req.ServiceID) + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)

	raw, env, err := c.do(httpReq, "lookup")
	if err != nil {
		return nil, err
	}
	res := &LookupResult{
		ResponseCode: env.ResponseCode,
		Message:      env.Message,
		Raw:          raw,
	}
	var options []models.LookupOption
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &options) == nil {
		res.Options = options
	}
	return res, nil
}

// do executes the request and decodes the common envelope. 5xx answers and
// network failures become *TransportError; 4xx answers without a response
// code are reported as an HTTP_<status> provider code.
func (c *HubtelClient) do(req *http.Request, op string) (json.RawMessage, hubtelEnvelope, error) {
	var env hubtelEnvelope
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, env, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, env, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	raw := rawJSON(body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, env, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Raw:        raw,
			Err:        fmt.Errorf("upstream error"),
		}
	}
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode >= http.StatusBadRequest && (decodeErr != nil || env.ResponseCode == "") {
		env.ResponseCode = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		if env.Message == "" {
			env.Message = http.StatusText(resp.StatusCode)
		}
		return raw, env, nil
	}
	if decodeErr != nil {
		return nil, env, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Raw:        raw,
			Err:        fmt.Errorf("decode response: %w", decodeErr),
		}
	}
	return raw, env, nil
}

// rawJSON keeps provider bodies storable in a jsonb column.
func rawJSON(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`)
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(map[string]string{"body": string(trimmed)})
	return json.RawMessage(quoted)
}
