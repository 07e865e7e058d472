package insights

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

// MaxInsights caps the output of Generate.
const MaxInsights = 6

const (
	excellentROAS      = 3.0
	goodROAS           = 2.0
	highCPC            = 5.0
	lowProfitMargin    = 20.0
	healthyInvestment  = 15.0
	moderateInvestment = 25.0
)

var printer = message.NewPrinter(language.English)

// PlatformROAS is the mean per-row ROAS of one ad platform over the rows
// where it spent anything.
type PlatformROAS struct {
	Platform   models.Platform `json:"platform"`
	Spend      float64         `json:"spend"`
	MeanROAS   float64         `json:"mean_roas"`
	ActiveRows int             `json:"active_rows"`
}

// Stats are the cross-cutting statistics insights are drawn from. Means are
// plain arithmetic means of per-row values: each row is an independent
// observation here, not a slice of one ratio.
type Stats struct {
	Rows             int            `json:"rows"`
	MeanROAS         float64        `json:"mean_roas"`
	MeanCPC          float64        `json:"mean_cpc"`
	MeanProfitMargin float64        `json:"mean_profit_margin"`
	TotalSpend       float64        `json:"total_spend"`
	TotalRevenue     float64        `json:"total_revenue"`
	InvestmentRatio  float64        `json:"investment_ratio"`
	Platforms        []PlatformROAS `json:"platforms"`
	Best             PlatformROAS   `json:"best"`
	Worst            PlatformROAS   `json:"worst"`
}

// Analyze computes Stats over rows. An empty input gives zero Stats.
func Analyze(rows []models.FactRow) Stats {
	if len(rows) == 0 {
		return Stats{}
	}
	var s Stats
	s.Rows = len(rows)
	var roas, cpc, margin float64
	for _, r := range rows {
		roas += r.Derived.ROAS
		cpc += r.Derived.CPC
		margin += r.Derived.ProfitMargin
		s.TotalSpend += r.Derived.TotalSpend
		s.TotalRevenue += r.Derived.TotalRevenue
	}
	n := float64(len(rows))
	s.MeanROAS = roas / n
	s.MeanCPC = cpc / n
	s.MeanProfitMargin = margin / n
	s.InvestmentRatio = safeDiv(s.TotalSpend, s.TotalRevenue) * 100

	for _, p := range models.AdPlatforms {
		pr := PlatformROAS{Platform: p}
		var sum float64
		for _, r := range rows {
			c := r.Channel(p)
			pr.Spend += c.Spend
			if c.Spend > 0 {
				sum += c.AttributedRevenue / c.Spend
				pr.ActiveRows++
			}
		}
		// a platform without any active row ranks at zero
		pr.MeanROAS = safeDiv(sum, float64(pr.ActiveRows))
		s.Platforms = append(s.Platforms, pr)
	}

	// ties go to the platform that comes first
	s.Best, s.Worst = s.Platforms[0], s.Platforms[0]
	for _, pr := range s.Platforms[1:] {
		if pr.MeanROAS > s.Best.MeanROAS {
			s.Best = pr
		}
		if pr.MeanROAS < s.Worst.MeanROAS {
			s.Worst = pr
		}
	}
	return s
}

// Generate returns up to MaxInsights advisory insights in rule order.
func Generate(rows []models.FactRow) []models.Insight {
	if len(rows) == 0 {
		return []models.Insight{}
	}
	s := Analyze(rows)
	out := make([]models.Insight, 0, MaxInsights)

	switch {
	case s.MeanROAS >= excellentROAS:
		out = append(out, models.Insight{
			Category:       models.CategorySuccess,
			Title:          "Excellent ROAS Performance",
			Description:    fmt.Sprintf("Your average ROAS of %.2fx indicates strong marketing efficiency across all channels.", s.MeanROAS),
			Recommendation: "Consider scaling successful campaigns and reallocating budget from underperforming channels.",
			Impact:         models.ImpactHigh,
			MetricName:     "ROAS",
			MetricValue:    value(s.MeanROAS),
		})
	case s.MeanROAS >= goodROAS:
		out = append(out, models.Insight{
			Category:       models.CategoryInfo,
			Title:          "Good ROAS Performance",
			Description:    fmt.Sprintf("Your average ROAS of %.2fx shows healthy returns, with room for optimization.", s.MeanROAS),
			Recommendation: "Focus on improving conversion rates and reducing cost per acquisition.",
			Impact:         models.ImpactMedium,
			MetricName:     "ROAS",
			MetricValue:    value(s.MeanROAS),
		})
	default:
		out = append(out, models.Insight{
			Category:       models.CategoryWarning,
			Title:          "ROAS Needs Improvement",
			Description:    fmt.Sprintf("Your average ROAS of %.2fx is below optimal levels.", s.MeanROAS),
			Recommendation: "Review targeting, creative performance, and landing page optimization immediately.",
			Impact:         models.ImpactHigh,
			MetricName:     "ROAS",
			MetricValue:    value(s.MeanROAS),
		})
	}

	out = append(out, models.Insight{
		Category: models.CategoryInfo,
		Title:    "Top Performing Platform",
		Description: printer.Sprintf("%s delivers the highest ROAS at %.2fx with $%.2f in spend.",
			s.Best.Platform, s.Best.MeanROAS, s.Best.Spend),
		Recommendation: fmt.Sprintf("Analyze %s's successful tactics and apply learnings to other platforms.", s.Best.Platform),
		Impact:         models.ImpactHigh,
		MetricName:     "Platform ROAS",
		MetricValue:    value(s.Best.MeanROAS),
	})

	if s.MeanCPC > highCPC {
		out = append(out, models.Insight{
			Category:       models.CategoryWarning,
			Title:          "High Cost Per Click",
			Description:    fmt.Sprintf("Average CPC of $%.2f may be impacting profitability.", s.MeanCPC),
			Recommendation: "Optimize ad relevance, improve Quality Score, and test new targeting options.",
			Impact:         models.ImpactMedium,
			MetricName:     "CPC",
			MetricValue:    value(s.MeanCPC),
		})
	}

	if s.MeanProfitMargin < lowProfitMargin {
		out = append(out, models.Insight{
			Category:       models.CategoryDanger,
			Title:          "Low Profit Margins",
			Description:    fmt.Sprintf("Average profit margin of %.1f%% indicates potential pricing or cost issues.", s.MeanProfitMargin),
			Recommendation: "Review pricing strategy, reduce COGS, or focus on higher-margin products.",
			Impact:         models.ImpactHigh,
			MetricName:     "Profit Margin",
			MetricValue:    value(s.MeanProfitMargin),
		})
	}

	out = append(out, investmentInsight(s.InvestmentRatio))

	if len(out) > MaxInsights {
		out = out[:MaxInsights]
	}
	return out
}

// investmentInsight grades marketing spend as a share of total revenue. The
// recommendation and impact switch strictly above the moderate threshold,
// so a ratio of exactly 25 is a warning with the healthy recommendation.
func investmentInsight(ratio float64) models.Insight {
	in := models.Insight{
		Title:          "Marketing Investment Ratio",
		Description:    fmt.Sprintf("Marketing spend represents %.1f%% of total revenue.", ratio),
		Recommendation: "Current marketing investment ratio is healthy.",
		Impact:         models.ImpactLow,
		MetricName:     "Marketing Efficiency",
		MetricValue:    value(ratio),
	}
	switch {
	case ratio < healthyInvestment:
		in.Category = models.CategorySuccess
	case ratio < moderateInvestment:
		in.Category = models.CategoryInfo
	default:
		in.Category = models.CategoryWarning
	}
	if ratio > moderateInvestment {
		in.Recommendation = "Consider optimizing spend efficiency or increasing organic growth channels."
		in.Impact = models.ImpactMedium
	}
	return in
}

func value(f float64) *float64 { return &f }

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
