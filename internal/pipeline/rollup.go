package pipeline

import (
	"sort"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

// Summary holds the headline KPIs of a set of fact rows. Ratios come from the
// totals, the same way AggregateByDate derives them.
type Summary struct {
	Rows                    int     `json:"rows"`
	TotalSpend              float64 `json:"total_spend"`
	TotalAttributedRevenue  float64 `json:"total_attributed_revenue"`
	TotalRevenue            float64 `json:"total_revenue"`
	TotalProfit             float64 `json:"total_profit"`
	TotalOrders             int     `json:"total_orders"`
	TotalNewCustomers       int     `json:"total_new_customers"`
	TotalClicks             int     `json:"total_clicks"`
	TotalImpressions        int     `json:"total_impressions"`
	ROAS                    float64 `json:"roas"`
	CPC                     float64 `json:"cpc"`
	CTR                     float64 `json:"ctr"`
	ProfitMargin            float64 `json:"profit_margin"`
	CustomerAcquisitionCost float64 `json:"customer_acquisition_cost"`
	RevenuePerOrder         float64 `json:"revenue_per_order"`
	NewCustomerRate         float64 `json:"new_customer_rate"`
}

func Summarize(rows []models.FactRow) Summary {
	all := collapse(rows)
	d := all.Derived
	return Summary{
		Rows:                    len(rows),
		TotalSpend:              d.TotalSpend,
		TotalAttributedRevenue:  d.TotalAttributedRevenue,
		TotalRevenue:            d.TotalRevenue,
		TotalProfit:             d.TotalProfit,
		TotalOrders:             all.Business.Orders,
		TotalNewCustomers:       all.Business.NewCustomers,
		TotalClicks:             d.TotalClicks,
		TotalImpressions:        d.TotalImpressions,
		ROAS:                    d.ROAS,
		CPC:                     d.CPC,
		CTR:                     d.CTR,
		ProfitMargin:            d.ProfitMargin,
		CustomerAcquisitionCost: d.CustomerAcquisitionCost,
		RevenuePerOrder:         d.RevenuePerOrder,
		NewCustomerRate:         d.NewCustomerRate,
	}
}

// PlatformStat is one card of the platform breakdown. For the Business entry
// the columns are reused: Spend is total revenue, Revenue is gross profit,
// Clicks are orders, Impressions are new customers and Campaigns are new
// orders.
type PlatformStat struct {
	Platform    models.Platform `json:"platform"`
	Spend       float64         `json:"spend"`
	Revenue     float64         `json:"revenue"`
	Clicks      int             `json:"clicks"`
	Impressions int             `json:"impressions"`
	Campaigns   int             `json:"campaigns"`
	ROAS        float64         `json:"roas"`
	CPC         float64         `json:"cpc"`
	CTR         float64         `json:"ctr"`
}

// Platforms returns the breakdown for Facebook, Google, TikTok and Business,
// in that order.
func Platforms(rows []models.FactRow) []PlatformStat {
	all := collapse(rows)
	out := make([]PlatformStat, 0, len(models.AdPlatforms)+1)
	for _, p := range models.AdPlatforms {
		c := all.Channel(p)
		out = append(out, platformStat(p, c.Spend, c.AttributedRevenue, c.Clicks, c.Impressions, c.CampaignCount))
	}
	b := all.Business
	out = append(out, platformStat(models.Business, b.TotalRevenue, b.GrossProfit, b.Orders, b.NewCustomers, b.NewOrders))
	return out
}

func platformStat(p models.Platform, spend, revenue float64, clicks, impressions, campaigns int) PlatformStat {
	return PlatformStat{
		Platform:    p,
		Spend:       Round2(spend),
		Revenue:     Round2(revenue),
		Clicks:      clicks,
		Impressions: impressions,
		Campaigns:   campaigns,
		ROAS:        Round2(safeDivF(revenue, spend)),
		CPC:         Round2(safeDivF(spend, float64(clicks))),
		CTR:         Round2(safeDivF(float64(clicks), float64(impressions)) * 100),
	}
}

type RegionTotal struct {
	Region  string  `json:"state"`
	Revenue float64 `json:"revenue"`
}

// RegionRevenue sums business revenue per region for the first limit
// distinct regions, in the order they appear in rows. limit <= 0 keeps all.
func RegionRevenue(rows []models.FactRow, limit int) []RegionTotal {
	byRegion := newOrderedMap[string, float64]()
	for _, r := range rows {
		if limit > 0 && byRegion.len() >= limit {
			if _, ok := byRegion.get(r.Region); !ok {
				continue
			}
		}
		v := byRegion.getOrInit(r.Region, func() float64 { return 0 })
		*v += r.Business.TotalRevenue
	}
	out := make([]RegionTotal, 0, byRegion.len())
	byRegion.each(func(region string, v *float64) {
		out = append(out, RegionTotal{Region: region, Revenue: Round2(*v)})
	})
	return out
}

// FilterOptions lists the values a caller can filter on.
type FilterOptions struct {
	Regions   []string          `json:"states"`
	Tactics   []string          `json:"tactics"`
	Platforms []models.Platform `json:"platforms"`
}

func Options(rows []models.FactRow) FilterOptions {
	regions := map[string]struct{}{}
	tactics := map[string]struct{}{}
	for _, r := range rows {
		regions[r.Region] = struct{}{}
		for _, p := range models.AdPlatforms {
			for _, t := range r.Channel(p).Tactics {
				tactics[t] = struct{}{}
			}
		}
	}
	return FilterOptions{
		Regions:   sortedKeys(regions),
		Tactics:   sortedKeys(tactics),
		Platforms: append(append([]models.Platform{}, models.AdPlatforms...), models.Business),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
