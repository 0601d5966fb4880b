package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"parking-booking/internal/pkg/errs"
	"parking-booking/internal/usecase/commands"
)

const ordersPath = "/v1/orders"

var (
	errOrderRequest  = errs.New("razorpay order request failed")
	errOrderResponse = errs.New("razorpay returned an unexpected response")
)

type Options struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// RazorpayClient creates orders over the Razorpay REST API and verifies
// checkout signatures locally.
type RazorpayClient struct {
	keyID      string
	verifier   SignatureVerifier
	secret     string
	baseURL    string
	httpClient *http.Client
}

func NewRazorpayClient(opts Options) *RazorpayClient {
	return &RazorpayClient{
		keyID:    opts.KeyID,
		secret:   opts.KeySecret,
		verifier: NewSignatureVerifier(opts.KeySecret),
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

type orderRequestBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponseBody struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponseBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	return c.verifier.Verify(orderID, paymentID, signature)
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, in commands.OrderRequest) (*commands.Order, error) {
	payload, err := json.Marshal(orderRequestBody{
		Amount:   in.AmountMinor,
		Currency: in.Currency,
		Receipt:  in.Receipt,
		Notes:    in.Notes,
	})
	if err != nil {
		return nil, errs.Wrap(err, "encode order request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "build order request"), errOrderRequest)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "send order request"), errOrderRequest)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "read order response"), errOrderResponse)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponseBody
		_ = json.Unmarshal(body, &apiErr)
		return nil, errs.Mark(
			errs.Newf("status %d: %s %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description),
			errOrderResponse,
		)
	}

	var out orderResponseBody
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode order response"), errOrderResponse)
	}
	if out.ID == "" {
		return nil, errs.Mark(errs.New("order id missing"), errOrderResponse)
	}

	return &commands.Order{
		ID:          out.ID,
		AmountMinor: out.Amount,
		Currency:    out.Currency,
	}, nil
}
