package pipeline

import (
	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

const (
	// distributionScale normalizes a row's marketing spend into the share of
	// the day's business record it receives. The shares are not a partition
	// of the day: summing them across regions does not give back the record.
	distributionScale = 1000.0
	// fallbackDistribution is the share given to rows without any spend.
	fallbackDistribution = 0.1
)

type factKey struct {
	Date   string
	Region string
}

// Combine merges the per-platform channel records and the date-level
// business records into fact rows keyed by (date, region). Rows come out in
// the order their key was first seen: Facebook records first, then Google,
// then TikTok.
func Combine(ds models.Dataset) []models.FactRow {
	rows := newOrderedMap[factKey, models.FactRow]()
	for _, p := range models.AdPlatforms {
		for _, rec := range ds.Channel(p) {
			k := factKey{Date: rec.Date, Region: rec.Region}
			row := rows.getOrInit(k, func() models.FactRow {
				return models.FactRow{Date: rec.Date, Region: rec.Region}
			})
			foldRecord(channelOf(row, p), rec)
		}
	}

	// last write wins for duplicate dates
	business := newOrderedMap[string, models.BusinessRecord]()
	for _, b := range ds.Business {
		business.set(b.Date, b)
	}

	out := make([]models.FactRow, 0, rows.len())
	rows.each(func(_ factKey, row *models.FactRow) {
		if b, ok := business.get(row.Date); ok {
			spend := row.Facebook.Spend + row.Google.Spend + row.TikTok.Spend
			row.Business = Distribute(b, DistributionFactor(spend))
		}
		out = append(out, DeriveRow(*row))
	})
	return out
}

// DistributionFactor is the share of a day's business record given to a
// (date, region) row with the given total marketing spend.
func DistributionFactor(totalSpend float64) float64 {
	if totalSpend > 0 {
		return totalSpend / distributionScale
	}
	return fallbackDistribution
}

// Distribute scales every field of b by factor. Counts are rounded to the
// nearest integer, money to cents.
func Distribute(b models.BusinessRecord, factor float64) models.BusinessAggregate {
	return models.BusinessAggregate{
		Orders:       roundInt(float64(b.Orders) * factor),
		NewOrders:    roundInt(float64(b.NewOrders) * factor),
		NewCustomers: roundInt(float64(b.NewCustomers) * factor),
		TotalRevenue: Round2(b.TotalRevenue * factor),
		GrossProfit:  Round2(b.GrossProfit * factor),
		COGS:         Round2(b.COGS * factor),
	}
}

func channelOf(row *models.FactRow, p models.Platform) *models.ChannelAggregate {
	switch p {
	case models.Google:
		return &row.Google
	case models.TikTok:
		return &row.TikTok
	default:
		return &row.Facebook
	}
}

func foldRecord(agg *models.ChannelAggregate, rec models.ChannelRecord) {
	agg.Spend += rec.Spend
	agg.Impressions += rec.Impressions
	agg.Clicks += rec.Clicks
	agg.AttributedRevenue += rec.AttributedRevenue
	agg.CampaignCount++
	addTactic(agg, rec.Tactic)
}

func addTactic(agg *models.ChannelAggregate, t string) {
	if !agg.HasTactic(t) {
		agg.Tactics = append(agg.Tactics, t)
	}
}
