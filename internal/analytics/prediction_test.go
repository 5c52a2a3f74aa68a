package analytics

import (
	"testing"

	"finsight/internal/core"
)

func TestPredictNextPeriod_IncreasingTrend(t *testing.T) {
	txns := []core.Transaction{
		expense("j", "rent", "", 1000, at(2025, 1, 10, 0)),
		expense("f", "rent", "", 1200, at(2025, 2, 10, 0)),
		expense("m1", "rent", "", 1000, at(2025, 3, 10, 0)),
		expense("m2", "food", "", 300, at(2025, 3, 11, 0)),
		expense("m3", "fun", "", 60, at(2025, 3, 12, 0)),
		expense("m4", "misc", "", 40, at(2025, 3, 13, 0)),
		income("salary", 5000, at(2025, 3, 1, 0)),
	}
	p := PredictNextPeriod(txns, at(2025, 3, 15, 12))
	if p == nil {
		t.Fatal("expected a prediction")
	}
	if !approx(p.Trend, 400) {
		t.Errorf("Trend = %v, want 400", p.Trend)
	}
	if !approx(p.PredictedExpense, 1400+400.0/3) {
		t.Errorf("PredictedExpense = %v, want ~1533.33", p.PredictedExpense)
	}
	if !approx(p.AverageExpense, 1200) {
		t.Errorf("AverageExpense = %v, want 1200", p.AverageExpense)
	}
	if p.TrendDirection != TrendIncreasing {
		t.Errorf("TrendDirection = %s", p.TrendDirection)
	}
	if !approx(p.TrendPercent, 400.0/1200*100) {
		t.Errorf("TrendPercent = %v", p.TrendPercent)
	}
	if p.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %s, want High", p.Confidence)
	}
	if len(p.TopCategories) != 3 || p.TopCategories[0].Name != "rent" || p.TopCategories[2].Name != "fun" {
		t.Errorf("unexpected top categories %+v", p.TopCategories)
	}
	if p.Window[0].Month != "2025-01" || p.Window[2].Month != "2025-03" {
		t.Errorf("unexpected window %+v", p.Window)
	}
}

func TestPredictNextPeriod_Cases(t *testing.T) {
	now := at(2025, 3, 15, 12)
	tests := []struct {
		name           string
		txns           []core.Transaction
		wantNil        bool
		wantPredicted  float64
		wantDirection  TrendDirection
		wantConfidence Confidence
	}{
		{
			name:    "no transactions",
			wantNil: true,
		},
		{
			name:    "single populated month",
			txns:    []core.Transaction{expense("a", "x", "", 500, at(2025, 3, 1, 0))},
			wantNil: true,
		},
		{
			name: "income does not populate a month",
			txns: []core.Transaction{
				income("a", 500, at(2025, 2, 1, 0)),
				expense("b", "x", "", 500, at(2025, 3, 1, 0)),
			},
			wantNil: true,
		},
		{
			name: "older months are outside the window",
			txns: []core.Transaction{
				expense("a", "x", "", 500, at(2024, 12, 31, 0)),
				expense("b", "x", "", 500, at(2025, 3, 1, 0)),
			},
			wantNil: true,
		},
		{
			name: "empty first month counts as zero",
			txns: []core.Transaction{
				expense("a", "x", "", 1000, at(2025, 2, 1, 0)),
				expense("b", "x", "", 800, at(2025, 3, 1, 0)),
			},
			wantPredicted:  800 + 800.0/3,
			wantDirection:  TrendIncreasing,
			wantConfidence: ConfidenceMedium,
		},
		{
			name: "decreasing trend clamps at zero",
			txns: []core.Transaction{
				expense("a", "x", "", 3000, at(2025, 1, 5, 0)),
				expense("b", "x", "", 100, at(2025, 3, 5, 0)),
			},
			wantPredicted:  0,
			wantDirection:  TrendDecreasing,
			wantConfidence: ConfidenceMedium,
		},
		{
			name: "stable",
			txns: []core.Transaction{
				expense("a", "x", "", 700, at(2025, 1, 5, 0)),
				expense("b", "x", "", 900, at(2025, 2, 5, 0)),
				expense("c", "x", "", 700, at(2025, 3, 5, 0)),
			},
			wantPredicted:  700,
			wantDirection:  TrendStable,
			wantConfidence: ConfidenceHigh,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PredictNextPeriod(tt.txns, now)
			if tt.wantNil {
				if p != nil {
					t.Fatalf("expected no prediction, got %+v", p)
				}
				return
			}
			if p == nil {
				t.Fatal("expected a prediction")
			}
			if !approx(p.PredictedExpense, tt.wantPredicted) {
				t.Errorf("PredictedExpense = %v, want %v", p.PredictedExpense, tt.wantPredicted)
			}
			if p.TrendDirection != tt.wantDirection {
				t.Errorf("TrendDirection = %s, want %s", p.TrendDirection, tt.wantDirection)
			}
			if p.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %s, want %s", p.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestPredictNextPeriod_YearBoundary(t *testing.T) {
	txns := []core.Transaction{
		expense("a", "x", "", 100, at(2024, 11, 20, 0)),
		expense("b", "x", "", 200, at(2025, 1, 2, 0)),
	}
	p := PredictNextPeriod(txns, at(2025, 1, 10, 0))
	if p == nil {
		t.Fatal("expected a prediction across the year boundary")
	}
	if p.Window[0].Month != "2024-11" || !approx(p.Trend, 100) {
		t.Errorf("unexpected prediction %+v", p)
	}
}
