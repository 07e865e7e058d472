package models

type Platform string

const (
	Facebook Platform = "Facebook"
	Google   Platform = "Google"
	TikTok   Platform = "TikTok"
	// Business is only meaningful to the filter engine and the platform
	// breakdown; it never tags a ChannelRecord.
	Business Platform = "Business"
)

// AdPlatforms lists the ad platforms in their canonical iteration order.
// Tie-breaks in platform rankings follow this order.
var AdPlatforms = []Platform{Facebook, Google, TikTok}

// AllRegions is the region sentinel of date-only fact rows.
const AllRegions = "All"

type ChannelRecord struct {
	Platform          Platform `json:"platform,omitempty"`
	Date              string   `json:"date"`
	Tactic            string   `json:"tactic"`
	Region            string   `json:"state"`
	CampaignID        string   `json:"campaign"`
	Impressions       int      `json:"impressions"`
	Clicks            int      `json:"clicks"`
	Spend             float64  `json:"spend"`
	AttributedRevenue float64  `json:"attributed_revenue"`
}

type BusinessRecord struct {
	Date         string  `json:"date"`
	Orders       int     `json:"orders"`
	NewOrders    int     `json:"new_orders"`
	NewCustomers int     `json:"new_customers"`
	TotalRevenue float64 `json:"total_revenue"`
	GrossProfit  float64 `json:"gross_profit"`
	COGS         float64 `json:"cogs"`
}

// Dataset is one fully materialized input batch.
type Dataset struct {
	Facebook []ChannelRecord  `json:"facebook"`
	Google   []ChannelRecord  `json:"google"`
	TikTok   []ChannelRecord  `json:"tiktok"`
	Business []BusinessRecord `json:"business"`
}

// Channel returns the record set of an ad platform.
func (d Dataset) Channel(p Platform) []ChannelRecord {
	switch p {
	case Facebook:
		return d.Facebook
	case Google:
		return d.Google
	case TikTok:
		return d.TikTok
	}
	return nil
}

type ChannelAggregate struct {
	Spend             float64  `json:"spend"`
	Impressions       int      `json:"impressions"`
	Clicks            int      `json:"clicks"`
	AttributedRevenue float64  `json:"attributed_revenue"`
	CampaignCount     int      `json:"campaigns"`
	Tactics           []string `json:"tactics"`
}

// HasTactic reports whether t was folded into the aggregate.
func (c ChannelAggregate) HasTactic(t string) bool {
	for _, x := range c.Tactics {
		if x == t {
			return true
		}
	}
	return false
}

type BusinessAggregate struct {
	Orders       int     `json:"orders"`
	NewOrders    int     `json:"new_orders"`
	NewCustomers int     `json:"new_customers"`
	TotalRevenue float64 `json:"total_revenue"`
	GrossProfit  float64 `json:"gross_profit"`
	COGS         float64 `json:"cogs"`
}

type DerivedMetrics struct {
	TotalSpend              float64 `json:"total_spend"`
	TotalImpressions        int     `json:"total_impressions"`
	TotalClicks             int     `json:"total_clicks"`
	TotalAttributedRevenue  float64 `json:"total_attributed_revenue"`
	TotalRevenue            float64 `json:"total_revenue"`
	TotalProfit             float64 `json:"total_profit"`
	ROAS                    float64 `json:"roas"`
	CPC                     float64 `json:"cpc"`
	CPM                     float64 `json:"cpm"`
	CTR                     float64 `json:"ctr"`
	ProfitMargin            float64 `json:"profit_margin"`
	CustomerAcquisitionCost float64 `json:"customer_acquisition_cost"`
	RevenuePerOrder         float64 `json:"revenue_per_order"`
	NewCustomerRate         float64 `json:"new_customer_rate"`
	MarketingEfficiency     float64 `json:"marketing_efficiency"`
}

// FactRow is one (date, region) observation, or one date with Region set
// to AllRegions. Derived is always computed from the other fields.
type FactRow struct {
	Date     string            `json:"date"`
	Region   string            `json:"state"`
	Facebook ChannelAggregate  `json:"facebook"`
	Google   ChannelAggregate  `json:"google"`
	TikTok   ChannelAggregate  `json:"tiktok"`
	Business BusinessAggregate `json:"business"`
	Derived  DerivedMetrics    `json:"derived"`
}

// Channel returns the aggregate of an ad platform.
func (r FactRow) Channel(p Platform) ChannelAggregate {
	switch p {
	case Facebook:
		return r.Facebook
	case Google:
		return r.Google
	case TikTok:
		return r.TikTok
	}
	return ChannelAggregate{}
}

type InsightCategory string

const (
	CategorySuccess InsightCategory = "success"
	CategoryInfo    InsightCategory = "info"
	CategoryWarning InsightCategory = "warning"
	CategoryDanger  InsightCategory = "danger"
)

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

type Insight struct {
	Category       InsightCategory `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Recommendation string          `json:"recommendation"`
	Impact         Impact          `json:"impact"`
	MetricName     string          `json:"metric,omitempty"`
	MetricValue    *float64        `json:"value,omitempty"`
}
