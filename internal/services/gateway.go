package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"shopbot-api/pkg/logging"
)

// ChargeRequest describes one payment to be created at the gateway.
// Metadata carries the correlation tag the webhook echoes back; it is the only
// reliable way to route the asynchronous payment confirmation.
type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	Description    string
	Metadata       map[string]string
	MethodType     string // gateway payment_method_data.type, empty lets the gateway choose
	CustomerEmail  string
	IdempotenceKey string
}

// Charge is the gateway's answer to a charge request
type Charge struct {
	ID              string
	ConfirmationURL string
}

// PaymentGateway creates charges at the external payment provider
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req ChargeRequest) (*Charge, error)
}

// YooKassaClient talks to the YooKassa v3 API
type YooKassaClient struct {
	baseURL    string
	authHeader string
	returnURL  string
	httpClient *http.Client
}

// NewYooKassaClient creates a gateway client authenticated as shopID:secretKey
func NewYooKassaClient(shopID, secretKey, returnURL string) *YooKassaClient {
	basic := base64.StdEncoding.EncodeToString([]byte(shopID + ":" + secretKey))
	return &YooKassaClient{
		baseURL:    "https://api.yookassa.ru/v3",
		authHeader: "Basic " + basic,
		returnURL:  returnURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type ykAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ykCreatePaymentRequest struct {
	Amount            ykAmount          `json:"amount"`
	Capture           bool              `json:"capture"`
	Description       string            `json:"description"`
	Confirmation      map[string]string `json:"confirmation"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	PaymentMethodData map[string]string `json:"payment_method_data,omitempty"`
	Receipt           *ykReceipt        `json:"receipt,omitempty"`
}

type ykReceipt struct {
	Customer map[string]string `json:"customer"`
	Items    []ykReceiptItem   `json:"items"`
}

type ykReceiptItem struct {
	Description string   `json:"description"`
	Amount      ykAmount `json:"amount"`
	Quantity    string   `json:"quantity"`
	VatCode     int      `json:"vat_code"`
}

type ykCreatePaymentResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

// CreatePayment creates a charge and returns its id and confirmation URL.
// The Idempotence-Key header makes gateway-side retries of the same attempt safe.
func (c *YooKassaClient) CreatePayment(ctx context.Context, req ChargeRequest) (*Charge, error) {
	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}
	amount := ykAmount{Value: MinorToDecimal(req.AmountMinor), Currency: currency}

	payload := ykCreatePaymentRequest{
		Amount:      amount,
		Capture:     true,
		Description: req.Description,
		Confirmation: map[string]string{
			"type":       "redirect",
			"return_url": c.returnURL,
		},
		Metadata: req.Metadata,
	}
	if req.MethodType != "" {
		payload.PaymentMethodData = map[string]string{"type": req.MethodType}
	}
	if req.CustomerEmail != "" {
		description := req.Description
		if description == "" {
			description = "Item"
		}
		if len(description) > 128 {
			description = description[:128]
		}
		payload.Receipt = &ykReceipt{
			Customer: map[string]string{"email": req.CustomerEmail},
			Items: []ykReceiptItem{
				{Description: description, Amount: amount, Quantity: "1.0", VatCode: 1},
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGateway, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrGateway, err)
	}
	httpReq.Header.Set("Authorization", c.authHeader)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", req.IdempotenceKey)

	logging.Infof("Creating gateway charge: amount=%s %s", amount.Value, amount.Currency)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Errorf("Gateway charge request failed: status=%d", resp.StatusCode)
		return nil, fmt.Errorf("%w: unexpected status %d", ErrGateway, resp.StatusCode)
	}

	var parsed ykCreatePaymentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	if parsed.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("%w: no confirmation_url in response", ErrGateway)
	}

	logging.Infof("Gateway charge created: id=%s", parsed.ID)
	return &Charge{ID: parsed.ID, ConfirmationURL: parsed.Confirmation.ConfirmationURL}, nil
}

// VerifyWebhookBasic checks the webhook Authorization header against the
// configured credentials. When no credentials are configured the check passes.
func VerifyWebhookBasic(authHeader, user, password string) bool {
	if user == "" || password == "" {
		return true
	}
	if !strings.HasPrefix(authHeader, "Basic ") {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
	if err != nil {
		return false
	}
	got := strings.SplitN(string(raw), ":", 2)
	if len(got) != 2 {
		return false
	}
	return got[0] == user && got[1] == password
}

// Documented gateway webhook source ranges. The check stays advisory: source
// IPs may legitimately shift, so a miss is logged, never rejected.
var gatewayCIDRs = []string{
	"185.71.76.0/27",
	"185.71.77.0/27",
	"77.75.153.0/25",
	"77.75.156.11/32",
	"77.75.156.35/32",
	"77.75.154.128/25",
	"2a02:5180::/32",
}

var gatewayNetworks = func() []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(gatewayCIDRs))
	for _, cidr := range gatewayCIDRs {
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}()

// IsTrustedGatewayIP reports whether the remote address belongs to the
// gateway's documented ranges
func IsTrustedGatewayIP(remoteIP string) bool {
	ip := net.ParseIP(remoteIP)
	if ip == nil {
		return false
	}
	for _, n := range gatewayNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
