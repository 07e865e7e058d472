package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

// Options selects fact rows. Zero values select everything: empty dates leave
// the range open, empty sets match all, MaxSpend 0 means no upper bound.
type Options struct {
	Start     string
	End       string
	Platforms []models.Platform
	Regions   []string
	Tactics   []string
	MinSpend  float64
	MaxSpend  float64
}

// Match reports whether row passes every predicate in o.
func (o Options) Match(row models.FactRow) bool {
	return o.inDateRange(row.Date) &&
		o.inRegions(row.Region) &&
		o.inSpendRange(row.Derived.TotalSpend) &&
		o.matchPlatforms(row) &&
		o.matchTactics(row)
}

// Apply returns the rows that match o, keeping their order.
func (o Options) Apply(rows []models.FactRow) []models.FactRow {
	out := make([]models.FactRow, 0, len(rows))
	for _, r := range rows {
		if o.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (o Options) inDateRange(date string) bool {
	if o.Start == "" && o.End == "" {
		return true
	}
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return false
	}
	if o.Start != "" {
		start, err := time.Parse(time.DateOnly, o.Start)
		if err != nil || d.Before(start) {
			return false
		}
	}
	if o.End != "" {
		end, err := time.Parse(time.DateOnly, o.End)
		if err != nil || d.After(end) {
			return false
		}
	}
	return true
}

func (o Options) inRegions(region string) bool {
	if len(o.Regions) == 0 {
		return true
	}
	for _, r := range o.Regions {
		if r == region {
			return true
		}
	}
	return false
}

func (o Options) inSpendRange(spend float64) bool {
	if spend < o.MinSpend {
		return false
	}
	return o.MaxSpend <= 0 || spend <= o.MaxSpend
}

// matchPlatforms is any-of: a row matches when one selected platform is
// active in it. No selection at all matches every row.
func (o Options) matchPlatforms(row models.FactRow) bool {
	if len(o.Platforms) == 0 {
		return true
	}
	for _, p := range o.Platforms {
		if p == models.Business {
			if row.Business.TotalRevenue > 0 {
				return true
			}
			continue
		}
		if row.Channel(p).Spend > 0 {
			return true
		}
	}
	return false
}

func (o Options) matchTactics(row models.FactRow) bool {
	if len(o.Tactics) == 0 {
		return true
	}
	for _, t := range o.Tactics {
		for _, p := range models.AdPlatforms {
			if row.Channel(p).HasTactic(t) {
				return true
			}
		}
	}
	return false
}

// FromQuery builds Options from query parameters: from, to (YYYY-MM-DD),
// platform, region, tactic (comma separated) and min_spend, max_spend.
func FromQuery(v url.Values) (Options, error) {
	o := Options{
		Start:   strings.TrimSpace(v.Get("from")),
		End:     strings.TrimSpace(v.Get("to")),
		Regions: csvList(v.Get("region")),
		Tactics: csvList(v.Get("tactic")),
	}
	for _, d := range []string{o.Start, o.End} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return Options{}, fmt.Errorf("bad date %q: want YYYY-MM-DD", d)
		}
	}
	for _, p := range csvList(v.Get("platform")) {
		pl, ok := parsePlatform(p)
		if !ok {
			return Options{}, fmt.Errorf("unknown platform %q", p)
		}
		o.Platforms = append(o.Platforms, pl)
	}
	var err error
	if o.MinSpend, err = floatDef(v.Get("min_spend")); err != nil {
		return Options{}, fmt.Errorf("bad min_spend: %w", err)
	}
	if o.MaxSpend, err = floatDef(v.Get("max_spend")); err != nil {
		return Options{}, fmt.Errorf("bad max_spend: %w", err)
	}
	return o, nil
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func parsePlatform(s string) (models.Platform, bool) {
	for _, p := range append(append([]models.Platform{}, models.AdPlatforms...), models.Business) {
		if norm(string(p)) == norm(s) {
			return p, true
		}
	}
	return "", false
}

func csvList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func floatDef(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
