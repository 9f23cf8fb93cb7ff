package constants

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClampMetricValue(t *testing.T) {
	cases := []struct {
		metric string
		input  string
		want   string
	}{
		{MetricShopRating, "4.9", "4.9"},
		{MetricShopRating, "7", "5"},
		{MetricShopRating, "-1", "0"},
		{MetricCreditScore, "100", "300"},
		{MetricCreditScore, "900", "850"},
		{MetricCreditScore, "700.8", "700"},
		{MetricOrdersSold, "-3", "0"},
		{MetricOrdersSold, "12.7", "12"},
		{MetricOrdersSold, "3.999", "3"},
		{MetricVisitors, "1000", "1000"},
		{MetricShopFollowers, "-0.5", "0"},
		{MetricTotalSales, "-10", "0"},
		{MetricTotalSales, "10.456", "10.46"},
		{MetricProfitForecast, "-250.5", "-250.5"},
	}
	for _, tc := range cases {
		got := ClampMetricValue(tc.metric, decimal.RequireFromString(tc.input))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s(%s) want %s got %s", tc.metric, tc.input, tc.want, got)
		}
	}
}

func TestNeutralMetricValue(t *testing.T) {
	if !NeutralMetricValue(MetricCreditScore).Equal(decimal.NewFromInt(300)) {
		t.Fatalf("credit score neutral value should be 300")
	}
	if !NeutralMetricValue(MetricVisitors).IsZero() {
		t.Fatalf("visitors neutral value should be 0")
	}
}
