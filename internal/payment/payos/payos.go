package payos

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("payos config invalid")
	ErrRequestFailed    = errors.New("payos request failed")
	ErrResponseInvalid  = errors.New("payos response invalid")
	ErrSignatureInvalid = errors.New("payos signature invalid")
	ErrDuplicateOrder   = errors.New("payos order code already exists")
)

// 网关应答码常量
const (
	CodeSuccess        = "00"
	CodeDuplicateOrder = "231"
)

// 回调状态常量
const (
	StatusPaid      = "PAID"
	StatusPending   = "PENDING"
	StatusCancelled = "CANCELLED"
)

// MaxOrderCode PayOS 要求 orderCode 不超过 JS 安全整数上限
const MaxOrderCode = 9007199254740991

// DefaultEndpoint 生产网关地址
const DefaultEndpoint = "https://api-merchant.payos.vn/v2"

// Config PayOS 商户配置
type Config struct {
	ClientID    string `json:"client_id"`    // 商户 Client ID
	APIKey      string `json:"api_key"`      // API Key
	ChecksumKey string `json:"checksum_key"` // 签名密钥
	Endpoint    string `json:"endpoint"`     // 网关地址，默认生产环境
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ChecksumKey) == "" {
		return fmt.Errorf("%w: checksum_key is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.ChecksumKey = strings.TrimSpace(c.ChecksumKey)
	c.Endpoint = strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
}

// Item 支付会话商品行
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// CreateInput 创建支付会话输入
type CreateInput struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
	Items       []Item
}

// CreateResult 创建支付会话结果
type CreateResult struct {
	CheckoutURL   string
	PaymentLinkID string
	Raw           map[string]interface{}
}

// WebhookData 回调数据
type WebhookData struct {
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	Signature     string `json:"signature"`
}

// CreatePayment 创建支付会话
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if input.OrderCode <= 0 || input.OrderCode > MaxOrderCode || input.Amount <= 0 {
		return nil, fmt.Errorf("%w: invalid order code or amount", ErrConfigInvalid)
	}

	payload := map[string]interface{}{
		"orderCode":   input.OrderCode,
		"amount":      input.Amount,
		"description": input.Description,
		"returnUrl":   input.ReturnURL,
		"cancelUrl":   input.CancelURL,
		"signature":   SignCreate(cfg.ChecksumKey, input),
	}
	if len(input.Items) > 0 {
		payload["items"] = input.Items
	}

	respBytes, err := doRequest(ctx, cfg, http.MethodPost, cfg.Endpoint+"/payment-requests", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		Code string `json:"code"`
		Desc string `json:"desc"`
		Data struct {
			CheckoutURL   string `json:"checkoutUrl"`
			PaymentLinkID string `json:"paymentLinkId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.Code == CodeDuplicateOrder {
		return nil, ErrDuplicateOrder
	}
	if resp.Code != CodeSuccess || resp.Data.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: code=%s desc=%s", ErrResponseInvalid, resp.Code, resp.Desc)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &CreateResult{
		CheckoutURL:   resp.Data.CheckoutURL,
		PaymentLinkID: resp.Data.PaymentLinkID,
		Raw:           raw,
	}, nil
}

// GetPaymentInfo 查询支付会话
func GetPaymentInfo(ctx context.Context, cfg *Config, orderCode int64) (map[string]interface{}, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()

	respBytes, err := doRequest(ctx, cfg, http.MethodGet,
		fmt.Sprintf("%s/payment-requests/%d", cfg.Endpoint, orderCode), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		Code string                 `json:"code"`
		Desc string                 `json:"desc"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.Code != CodeSuccess {
		return nil, fmt.Errorf("%w: code=%s desc=%s", ErrResponseInvalid, resp.Code, resp.Desc)
	}
	return resp.Data, nil
}

// CancelPayment 取消支付会话
func CancelPayment(ctx context.Context, cfg *Config, orderCode int64, reason string) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	cfg.normalize()

	payload := map[string]interface{}{}
	if strings.TrimSpace(reason) != "" {
		payload["cancellationReason"] = strings.TrimSpace(reason)
	}
	respBytes, err := doRequest(ctx, cfg, http.MethodPost,
		fmt.Sprintf("%s/payment-requests/%d/cancel", cfg.Endpoint, orderCode), payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	var resp struct {
		Code string `json:"code"`
		Desc string `json:"desc"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.Code != CodeSuccess {
		return fmt.Errorf("%w: code=%s desc=%s", ErrResponseInvalid, resp.Code, resp.Desc)
	}
	return nil
}

// SignCreate 生成创建会话签名。
// 签名规则：按 key 字典序拼接 amount、cancelUrl、description、orderCode、returnUrl
// 为 key=value&... 形式，HMAC-SHA256 后输出十六进制小写。
func SignCreate(checksumKey string, input CreateInput) string {
	params := map[string]string{
		"amount":      fmt.Sprintf("%d", input.Amount),
		"cancelUrl":   input.CancelURL,
		"description": input.Description,
		"orderCode":   fmt.Sprintf("%d", input.OrderCode),
		"returnUrl":   input.ReturnURL,
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return hmacHex(checksumKey, strings.Join(pairs, "&"))
}

// SignWebhook 生成回调签名：orderCode、amount、status 直接拼接后 HMAC-SHA256
func SignWebhook(checksumKey string, data *WebhookData) string {
	content := fmt.Sprintf("%d%d%s", data.OrderCode, data.Amount, data.Status)
	return hmacHex(checksumKey, content)
}

// VerifyWebhook 验证回调签名
func VerifyWebhook(cfg *Config, data *WebhookData) error {
	if cfg == nil || data == nil {
		return ErrConfigInvalid
	}
	expected := SignWebhook(cfg.ChecksumKey, data)
	if !hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(data.Signature))) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseWebhook 解析回调数据
func ParseWebhook(body []byte) (*WebhookData, error) {
	if len(body) == 0 {
		return nil, ErrResponseInvalid
	}
	var data WebhookData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	data.Status = strings.ToUpper(strings.TrimSpace(data.Status))
	return &data, nil
}

func hmacHex(key, content string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}

func doRequest(ctx context.Context, cfg *Config, method, endpoint string, payload map[string]interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", cfg.ClientID)
	req.Header.Set("x-api-key", cfg.APIKey)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(respBytes))
	}
	return respBytes, nil
}
