package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyRoundsToWholeUnits(t *testing.T) {
	m := NewMoneyFromDecimal(decimal.NewFromFloat(199000.4))
	if m.Int64() != 199000 {
		t.Fatalf("want 199000 got %d", m.Int64())
	}
	m = NewMoneyFromDecimal(decimal.NewFromFloat(199000.5))
	if m.Int64() != 199001 {
		t.Fatalf("half rounds up, want 199001 got %d", m.Int64())
	}
	if m.String() != "199001" {
		t.Fatalf("string want 199001 got %s", m.String())
	}
}

func TestMoneyJSON(t *testing.T) {
	out, err := json.Marshal(NewMoneyFromInt(450000))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `"450000"` {
		t.Fatalf("marshal want \"450000\" got %s", out)
	}

	var fromString Money
	if err := json.Unmarshal([]byte(`"250000"`), &fromString); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if fromString.Int64() != 250000 {
		t.Fatalf("want 250000 got %d", fromString.Int64())
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte(`99000.9`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.Int64() != 99001 {
		t.Fatalf("want 99001 got %d", fromNumber.Int64())
	}
}
