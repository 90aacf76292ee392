package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func moneyFromInt(v int64) Money {
	return Money{Decimal: decimal.NewFromInt(v)}
}

func TestProductPrimaryImageResolution(t *testing.T) {
	p := &Product{
		ImageURL: "/uploads/legacy.jpg",
		Images: []ProductImage{
			{URL: "/uploads/a.jpg"},
			{URL: "/uploads/b.jpg", IsPrimary: true},
		},
	}
	if got := p.resolvePrimaryImage(); got != "/uploads/b.jpg" {
		t.Fatalf("expected primary-flagged image, got %q", got)
	}

	p.Images[1].IsPrimary = false
	if got := p.resolvePrimaryImage(); got != "/uploads/a.jpg" {
		t.Fatalf("expected first image fallback, got %q", got)
	}

	p.Images = nil
	if got := p.resolvePrimaryImage(); got != "/uploads/legacy.jpg" {
		t.Fatalf("expected legacy image fallback, got %q", got)
	}
}

func TestProductDiscountPercent(t *testing.T) {
	discount := moneyFromInt(180000)
	p := &Product{Price: moneyFromInt(450000), DiscountPrice: &discount}
	if got := p.discountPercent(); got != 60 {
		t.Fatalf("expected 60 percent off, got %d", got)
	}

	p.DiscountPrice = nil
	if got := p.discountPercent(); got != 0 {
		t.Fatalf("expected 0 without discount, got %d", got)
	}

	higher := moneyFromInt(500000)
	p.DiscountPrice = &higher
	if got := p.discountPercent(); got != 0 {
		t.Fatalf("expected 0 when discount not lower than price, got %d", got)
	}
}
