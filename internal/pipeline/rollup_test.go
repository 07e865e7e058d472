package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

func TestSummarizeDerivesFromTotals(t *testing.T) {
	rows := []models.FactRow{
		DeriveRow(models.FactRow{Date: "2024-01-01", Region: "CA",
			Facebook: models.ChannelAggregate{Spend: 100, Clicks: 10, Impressions: 1000, AttributedRevenue: 300},
			Business: models.BusinessAggregate{Orders: 4, NewCustomers: 2, TotalRevenue: 400, GrossProfit: 100}}),
		DeriveRow(models.FactRow{Date: "2024-01-01", Region: "NY",
			Google:   models.ChannelAggregate{Spend: 300, Clicks: 30, Impressions: 1000, AttributedRevenue: 300},
			Business: models.BusinessAggregate{Orders: 6, NewCustomers: 3, TotalRevenue: 600, GrossProfit: 300}}),
	}
	s := Summarize(rows)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 400.0, s.TotalSpend)
	assert.Equal(t, 600.0, s.TotalAttributedRevenue)
	assert.Equal(t, 1000.0, s.TotalRevenue)
	assert.Equal(t, 10, s.TotalOrders)
	assert.Equal(t, 5, s.TotalNewCustomers)
	assert.Equal(t, 1.5, s.ROAS)
	assert.Equal(t, 10.0, s.CPC)
	assert.Equal(t, 2.0, s.CTR)
	assert.Equal(t, 40.0, s.ProfitMargin)
	assert.Equal(t, 80.0, s.CustomerAcquisitionCost)
	assert.Equal(t, 100.0, s.RevenuePerOrder)
	assert.Equal(t, 50.0, s.NewCustomerRate)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestPlatformsBreakdown(t *testing.T) {
	rows := Combine(fixture())
	got := Platforms(rows)
	require.Len(t, got, 4)
	assert.Equal(t, []models.Platform{models.Facebook, models.Google, models.TikTok, models.Business},
		[]models.Platform{got[0].Platform, got[1].Platform, got[2].Platform, got[3].Platform})

	fbStat := got[0]
	assert.InDelta(t, 496.25, fbStat.Spend, 1e-9)
	assert.Equal(t, 4, fbStat.Campaigns)
	assert.Equal(t, 255, fbStat.Clicks)
	assert.Equal(t, Round2((300.25+150+410.1+260)/496.25), fbStat.ROAS)

	var orders int
	for _, r := range rows {
		orders += r.Business.Orders
	}
	assert.Equal(t, orders, got[3].Clicks)
}

func TestRegionRevenueKeepsFirstRegions(t *testing.T) {
	rows := []models.FactRow{
		{Region: "CA", Business: models.BusinessAggregate{TotalRevenue: 10}},
		{Region: "NY", Business: models.BusinessAggregate{TotalRevenue: 5}},
		{Region: "TX", Business: models.BusinessAggregate{TotalRevenue: 7}},
		{Region: "CA", Business: models.BusinessAggregate{TotalRevenue: 2.5}},
	}
	assert.Equal(t, []RegionTotal{{"CA", 12.5}, {"NY", 5}}, RegionRevenue(rows, 2))
	assert.Len(t, RegionRevenue(rows, 0), 3)
}

func TestOptions(t *testing.T) {
	o := Options(Combine(fixture()))
	assert.Equal(t, []string{"CA", "NY", "TX"}, o.Regions)
	assert.Equal(t, []string{"Lead Ads", "Search Ads", "Shopping Ads", "Spark Ads", "Video Ads"}, o.Tactics)
	assert.Len(t, o.Platforms, 4)
}
