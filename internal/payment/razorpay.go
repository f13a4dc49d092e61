// Package payment verifies Razorpay checkout results and keeps user
// subscriptions in sync with what was paid.
package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
)

const defaultRazorpayBaseURL = "https://api.razorpay.com"

// VerifySignature checks a Razorpay checkout signature. The signature is
// HMAC-SHA256 over "<order_id>|<payment_id>" with the key secret, hex encoded.
// Comparison is constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// RazorpayClient is a minimal REST client for the Razorpay orders and
// payments endpoints.
type RazorpayClient struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	HTTPClient *http.Client
}

// NewRazorpayClientFromEnv builds a client from RAZORPAY_KEY_ID and
// RAZORPAY_KEY_SECRET. Configured reports whether both are present.
func NewRazorpayClientFromEnv() *RazorpayClient {
	return &RazorpayClient{
		KeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
		BaseURL:    defaultRazorpayBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether API credentials are available.
func (rc *RazorpayClient) Configured() bool {
	return rc.KeyID != "" && rc.KeySecret != ""
}

// Order is the subset of the Razorpay order entity the frontend checkout needs.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PaymentEntity is the subset of the Razorpay payment entity recorded in the
// audit trail.
type PaymentEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	OrderID  string `json:"order_id"`
}

func (rc *RazorpayClient) do(method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, rc.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(rc.KeyID, rc.KeySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := rc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("razorpay returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateOrder creates a checkout order. Amount is in the smallest currency
// unit (paise for INR).
func (rc *RazorpayClient) CreateOrder(amount int64, currency, receipt string) (Order, error) {
	var order Order
	err := rc.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, &order)
	return order, err
}

// FetchPayment retrieves a payment entity by id.
func (rc *RazorpayClient) FetchPayment(paymentID string) (PaymentEntity, error) {
	var entity PaymentEntity
	err := rc.do(http.MethodGet, "/v1/payments/"+paymentID, nil, &entity)
	return entity, err
}
