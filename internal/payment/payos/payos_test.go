package payos

import (
	"errors"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("nil config want ErrConfigInvalid got %v", err)
	}
	if err := ValidateConfig(&Config{ClientID: "a", APIKey: "b"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing checksum key want ErrConfigInvalid got %v", err)
	}
	if err := ValidateConfig(&Config{ClientID: "a", APIKey: "b", ChecksumKey: "c"}); err != nil {
		t.Fatalf("complete config want nil got %v", err)
	}
}

func TestSignCreateIsDeterministic(t *testing.T) {
	input := CreateInput{
		OrderCode:   123456,
		Amount:      450000,
		Description: "Order #42",
		ReturnURL:   "https://shop.example.com/return",
		CancelURL:   "https://shop.example.com/cancel",
	}
	first := SignCreate("secret", input)
	second := SignCreate("secret", input)
	if first == "" || first != second {
		t.Fatalf("signature must be deterministic: %q vs %q", first, second)
	}
	if other := SignCreate("other-secret", input); other == first {
		t.Fatalf("different keys must produce different signatures")
	}
	input.Amount = 450001
	if changed := SignCreate("secret", input); changed == first {
		t.Fatalf("signature must cover amount")
	}
}

func TestVerifyWebhook(t *testing.T) {
	cfg := &Config{ClientID: "a", APIKey: "b", ChecksumKey: "secret"}
	data := &WebhookData{OrderCode: 987654, Amount: 199000, Status: StatusPaid}
	data.Signature = SignWebhook(cfg.ChecksumKey, data)

	if err := VerifyWebhook(cfg, data); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	data.Amount = 1
	if err := VerifyWebhook(cfg, data); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("tampered payload want ErrSignatureInvalid got %v", err)
	}

	if err := VerifyWebhook(nil, data); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("nil config want ErrConfigInvalid got %v", err)
	}
}

func TestParseWebhook(t *testing.T) {
	data, err := ParseWebhook([]byte(`{"orderCode":42,"amount":100000,"status":"paid","transactionId":"txn-1"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if data.OrderCode != 42 || data.Amount != 100000 {
		t.Fatalf("parsed fields mismatch: %+v", data)
	}
	// 状态统一成大写再比对
	if data.Status != StatusPaid {
		t.Fatalf("status want %s got %s", StatusPaid, data.Status)
	}

	if _, err := ParseWebhook(nil); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("empty body want ErrResponseInvalid got %v", err)
	}
	if _, err := ParseWebhook([]byte("{")); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("bad json want ErrResponseInvalid got %v", err)
	}
}
