// Package gateway is the terminal's REST client for the sales backend. It speaks the
// {"data": ...} / {"error": {...}} envelope and surfaces server errors as pkg/errors values
// carrying the server's code, message, details and HTTP status.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/sale"
	"github.com/angelmondragon/cafepos/pkg/types"
)

const (
	defaultTimeout      = 10 * time.Second
	errorBodyReadLimit  = 64 << 10
	idempotencyHeader   = "Idempotency-Key"
	terminalIDHeader    = "X-Terminal-Id"
	requestIDHeader     = "X-Request-Id"
	authorizationHeader = "Authorization"
	contentTypeHeader   = "Content-Type"
	jsonContentType     = "application/json"
)

// Client implements the sale endpoints against a base URL that already includes /api/v1.
type Client struct {
	httpClient *http.Client
	baseURL    string
	terminalID string
	newKey     func() string
	logg       *logger.Logger

	mu    sync.RWMutex
	token string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAccessToken seeds the bearer token, e.g. from configuration.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTerminalID tags every request with the till identifier.
func WithTerminalID(id string) Option {
	return func(c *Client) {
		c.terminalID = strings.TrimSpace(id)
	}
}

// WithLogger enables warn logs for failed calls.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// WithIdempotencyKeys overrides the key source used for mutating POSTs.
func WithIdempotencyKeys(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

// NewClient builds a gateway for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid gateway base url %q", baseURL)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		newKey:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SetAccessToken replaces the bearer token after a login.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Cashier is the signed-in cashier returned by Login.
type Cashier struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
}

// Session is the login result. The client starts using the token immediately.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Cashier     Cashier   `json:"cashier"`
}

// Login exchanges a cashier code and PIN for an access token.
func (c *Client) Login(ctx context.Context, cashierCode, pin string) (*Session, error) {
	body := map[string]string{"cashier_code": cashierCode, "pin": pin}
	out, err := call[Session](ctx, c, http.MethodPost, "/auth/login", nil, body, false)
	if err != nil {
		return nil, err
	}
	c.SetAccessToken(out.AccessToken)
	return out, nil
}

func (c *Client) CreateSale(ctx context.Context, req sale.CreateSaleRequest) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodPost, "/sales", nil, req, true)
}

func (c *Client) GetSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodGet, salePath(saleID), nil, nil, false)
}

// ListParams filters the resume list.
type ListParams struct {
	Status *enums.SaleStatus
	Limit  int
	Cursor string
}

func (c *Client) ListSales(ctx context.Context, params ListParams) (*sale.SalePage, error) {
	query := url.Values{}
	if params.Status != nil {
		query.Set("status", params.Status.String())
	}
	setPage(query, params.Limit, params.Cursor)
	return call[sale.SalePage](ctx, c, http.MethodGet, "/sales", query, nil, false)
}

func (c *Client) AddItem(ctx context.Context, saleID uuid.UUID, req sale.AddItemRequest) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodPost, salePath(saleID, "items"), nil, req, true)
}

func (c *Client) UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req sale.UpdateItemRequest) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodPut, salePath(saleID, "items", itemID.String()), nil, req, false)
}

func (c *Client) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodDelete, salePath(saleID, "items", itemID.String()), nil, nil, false)
}

func (c *Client) ApplyDiscount(ctx context.Context, saleID uuid.UUID, req sale.ApplyDiscountRequest) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodPut, salePath(saleID, "discount"), nil, req, false)
}

func (c *Client) CompleteSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodPost, salePath(saleID, "complete"), nil, nil, true)
}

func (c *Client) VoidSale(ctx context.Context, saleID uuid.UUID, req sale.VoidSaleRequest) (*sale.Sale, error) {
	return call[sale.Sale](ctx, c, http.MethodPost, salePath(saleID, "void"), nil, req, true)
}

func (c *Client) AddPayment(ctx context.Context, saleID uuid.UUID, req sale.AddPaymentRequest) (*sale.Payment, error) {
	return call[sale.Payment](ctx, c, http.MethodPost, salePath(saleID, "payments"), nil, req, true)
}

func (c *Client) GetPaymentSummary(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error) {
	return call[sale.PaymentSummary](ctx, c, http.MethodGet, salePath(saleID, "payments", "summary"), nil, nil, false)
}

// SearchProducts queries active products by name or SKU.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int, cursor string) (*sale.ProductPage, error) {
	values := url.Values{}
	values.Set("q", query)
	setPage(values, limit, cursor)
	return call[sale.ProductPage](ctx, c, http.MethodGet, "/products", values, nil, false)
}

func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any, idempotent bool) (*T, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sale gateway not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", jsonContentType)
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set(contentTypeHeader, jsonContentType)
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set(authorizationHeader, "Bearer "+token)
	}
	if c.terminalID != "" {
		req.Header.Set(terminalIDHeader, c.terminalID)
	}
	if idempotent {
		req.Header.Set(idempotencyHeader, c.newKey())
	}

	if c.logg != nil {
		ctx = c.logg.WithRequestID(ctx, requestID)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.warn(ctx, method, path, 0, pkgerrors.CodeDependency)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s failed", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		c.warn(ctx, method, path, resp.StatusCode, apiErr.Code())
		return nil, apiErr
	}

	var envelope types.Envelope[*T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response").WithStatus(resp.StatusCode)
	}
	if envelope.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "response carried no data").WithStatus(resp.StatusCode)
	}
	return envelope.Data, nil
}

// decodeError maps an error envelope onto the local taxonomy. Bodies that are not an
// envelope (proxies, load balancers) become dependency errors.
func decodeError(resp *http.Response) *pkgerrors.Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || !envelope.Failed() {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("status %d: %s", resp.StatusCode, msg)).
			WithStatus(resp.StatusCode)
	}

	out := pkgerrors.New(pkgerrors.ParseCode(envelope.Error.Code), envelope.Error.Message).WithStatus(resp.StatusCode)
	if envelope.Error.Details != nil {
		out = out.WithDetails(envelope.Error.Details)
	}
	return out
}

func (c *Client) warn(ctx context.Context, method, path string, status int, code pkgerrors.Code) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"method":      method,
		"path":        path,
		"status":      status,
		"error_code":  string(code),
		"terminal_id": c.terminalID,
	})
	c.logg.Warn(ctx, "gateway.request.failed")
}

func salePath(saleID uuid.UUID, parts ...string) string {
	segments := append([]string{"sales", saleID.String()}, parts...)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segments, "/")
}

func setPage(values url.Values, limit int, cursor string) {
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if cursor = strings.TrimSpace(cursor); cursor != "" {
		values.Set("cursor", cursor)
	}
}
