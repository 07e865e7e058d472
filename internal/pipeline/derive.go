package pipeline

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero at scale 100: the value is multiplied in
// float64 first, then rounded to an integer and divided exactly. NaN and
// infinities round to 0, so every derived field stays finite.
func Round2(f float64) float64 {
	if !finite(f) {
		return 0
	}
	x := f * 100
	if !finite(x) {
		// already far beyond cent precision
		return f
	}
	return decimal.NewFromFloat(x).Round(0).Div(hundred).InexactFloat64()
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// roundInt rounds half away from zero to the nearest integer.
// Non-finite values give 0; values outside the int range are clamped.
func roundInt(f float64) int {
	switch {
	case !finite(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(decimal.NewFromFloat(f).Round(0).IntPart())
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Totals are the additive fields of DerivedMetrics, before rounding.
type Totals struct {
	Spend             float64
	Impressions       int
	Clicks            int
	AttributedRevenue float64
	Revenue           float64
	Profit            float64
}

func totalsOf(d models.DerivedMetrics) Totals {
	return Totals{
		Spend:             d.TotalSpend,
		Impressions:       d.TotalImpressions,
		Clicks:            d.TotalClicks,
		AttributedRevenue: d.TotalAttributedRevenue,
		Revenue:           d.TotalRevenue,
		Profit:            d.TotalProfit,
	}
}

func (t *Totals) add(o Totals) {
	t.Spend += o.Spend
	t.Impressions += o.Impressions
	t.Clicks += o.Clicks
	t.AttributedRevenue += o.AttributedRevenue
	t.Revenue += o.Revenue
	t.Profit += o.Profit
}

// Derive computes every derived metric of a fact row from its platform and
// business aggregates. Ratios whose denominator is zero are zero.
func Derive(fb, google, tiktok models.ChannelAggregate, biz models.BusinessAggregate) models.DerivedMetrics {
	return DeriveFromTotals(Totals{
		Spend:             fb.Spend + google.Spend + tiktok.Spend,
		Impressions:       fb.Impressions + google.Impressions + tiktok.Impressions,
		Clicks:            fb.Clicks + google.Clicks + tiktok.Clicks,
		AttributedRevenue: fb.AttributedRevenue + google.AttributedRevenue + tiktok.AttributedRevenue,
		Revenue:           biz.TotalRevenue,
		Profit:            biz.GrossProfit,
	}, biz)
}

// DeriveFromTotals computes the ratios from t and the order counts of biz.
// Money totals are reported rounded to cents.
func DeriveFromTotals(t Totals, biz models.BusinessAggregate) models.DerivedMetrics {
	roas := Round2(safeDivF(t.AttributedRevenue, t.Spend))
	return models.DerivedMetrics{
		TotalSpend:              Round2(t.Spend),
		TotalImpressions:        t.Impressions,
		TotalClicks:             t.Clicks,
		TotalAttributedRevenue:  Round2(t.AttributedRevenue),
		TotalRevenue:            Round2(t.Revenue),
		TotalProfit:             Round2(t.Profit),
		ROAS:                    roas,
		CPC:                     Round2(safeDivF(t.Spend, float64(t.Clicks))),
		CPM:                     Round2(safeDivF(t.Spend, float64(t.Impressions)) * 1000),
		CTR:                     Round2(safeDivF(float64(t.Clicks), float64(t.Impressions)) * 100),
		ProfitMargin:            Round2(safeDivF(t.Profit, t.Revenue) * 100),
		CustomerAcquisitionCost: Round2(safeDivF(t.Spend, float64(biz.NewCustomers))),
		RevenuePerOrder:         Round2(safeDivF(t.Revenue, float64(biz.Orders))),
		NewCustomerRate:         Round2(safeDivF(float64(biz.NewCustomers), float64(biz.Orders)) * 100),
		MarketingEfficiency:     roas,
	}
}

// DeriveRow returns row with Derived recomputed from its aggregates.
func DeriveRow(row models.FactRow) models.FactRow {
	row.Derived = Derive(row.Facebook, row.Google, row.TikTok, row.Business)
	return row
}
