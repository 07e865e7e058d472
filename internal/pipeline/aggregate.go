package pipeline

import (
	"sort"
	"time"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

// AggregateByDate collapses fine-grained rows into one row per date with the
// region set to models.AllRegions. Aggregates and the rows' derived totals
// are summed; every ratio is then derived again from the summed totals,
// per-row ratios are never averaged. The totals of a daily row are the sum
// of its rows' cent-rounded totals, so they can differ by a cent from
// totals taken over the raw summed spend.
// Rows come out in first-seen date order; the input is not modified.
func AggregateByDate(rows []models.FactRow) []models.FactRow {
	byDate := newOrderedMap[string, accumulator]()
	for _, r := range rows {
		acc := byDate.getOrInit(r.Date, func() accumulator {
			return accumulator{row: models.FactRow{Date: r.Date, Region: models.AllRegions}}
		})
		acc.merge(r)
	}

	out := make([]models.FactRow, 0, byDate.len())
	byDate.each(func(_ string, acc *accumulator) {
		out = append(out, acc.result())
	})
	return out
}

// collapse folds every row into a single row, keyed by nothing.
func collapse(rows []models.FactRow) models.FactRow {
	acc := accumulator{row: models.FactRow{Region: models.AllRegions}}
	for _, r := range rows {
		acc.merge(r)
	}
	return acc.result()
}

type accumulator struct {
	row    models.FactRow
	totals Totals
}

func (a *accumulator) merge(r models.FactRow) {
	mergeRow(&a.row, r)
	a.totals.add(totalsOf(r.Derived))
}

func (a *accumulator) result() models.FactRow {
	t := a.totals
	t.Spend, t.AttributedRevenue = Round2(t.Spend), Round2(t.AttributedRevenue)
	t.Revenue, t.Profit = Round2(t.Revenue), Round2(t.Profit)
	row := a.row
	row.Derived = DeriveFromTotals(t, row.Business)
	return row
}

func mergeRow(acc *models.FactRow, r models.FactRow) {
	mergeChannel(&acc.Facebook, r.Facebook)
	mergeChannel(&acc.Google, r.Google)
	mergeChannel(&acc.TikTok, r.TikTok)

	acc.Business.Orders += r.Business.Orders
	acc.Business.NewOrders += r.Business.NewOrders
	acc.Business.NewCustomers += r.Business.NewCustomers
	acc.Business.TotalRevenue += r.Business.TotalRevenue
	acc.Business.GrossProfit += r.Business.GrossProfit
	acc.Business.COGS += r.Business.COGS
}

func mergeChannel(acc *models.ChannelAggregate, c models.ChannelAggregate) {
	acc.Spend += c.Spend
	acc.Impressions += c.Impressions
	acc.Clicks += c.Clicks
	acc.AttributedRevenue += c.AttributedRevenue
	acc.CampaignCount += c.CampaignCount
	for _, t := range c.Tactics {
		addTactic(acc, t)
	}
}

// SortByDate orders rows by date ascending, in place. Unparseable dates
// sort after valid ones, ties keep their relative order.
func SortByDate(rows []models.FactRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, ei := time.Parse(time.DateOnly, rows[i].Date)
		dj, ej := time.Parse(time.DateOnly, rows[j].Date)
		switch {
		case ei != nil && ej != nil:
			return rows[i].Date < rows[j].Date
		case ei != nil:
			return false
		case ej != nil:
			return true
		}
		return di.Before(dj)
	})
}
