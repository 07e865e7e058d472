package metrics

import (
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/AngelCh415/marketing-intel-go/internal/filter"
	"github.com/AngelCh415/marketing-intel-go/internal/insights"
	"github.com/AngelCh415/marketing-intel-go/internal/models"
	"github.com/AngelCh415/marketing-intel-go/internal/pipeline"
	"github.com/AngelCh415/marketing-intel-go/internal/store"
	"github.com/AngelCh415/marketing-intel-go/internal/telemetry"
)

// regionChartLimit is how many regions the revenue-by-region view shows.
const regionChartLimit = 10

// Service answers dashboard queries over the store. The combined fact table
// is rebuilt only when the store changed since the last query.
type Service struct {
	st *store.MemoryStore
	m  *telemetry.Metrics

	mu      sync.Mutex
	version uint64
	built   bool
	facts   []models.FactRow
}

func NewService(st *store.MemoryStore, m *telemetry.Metrics) *Service {
	return &Service{st: st, m: m}
}

// Combined returns the fine-grained fact table of the current batch. The
// returned slice is shared and must not be modified.
func (s *Service) Combined() []models.FactRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.st.Version()
	if s.built && v == s.version {
		return s.facts
	}
	start := time.Now()
	s.facts = pipeline.Combine(s.st.Snapshot())
	s.version, s.built = v, true
	s.m.ObserveStage("combine", start)
	s.m.SetFactRows("region", len(s.facts))
	return s.facts
}

// Filtered applies the filter in v to the combined table.
func (s *Service) Filtered(v url.Values) ([]models.FactRow, error) {
	opts, err := filter.FromQuery(v)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows := opts.Apply(s.Combined())
	s.m.ObserveStage("filter", start)
	return rows, nil
}

// Facts returns one page of filtered (date, region) rows.
func (s *Service) Facts(v url.Values) ([]models.FactRow, error) {
	rows, err := s.Filtered(v)
	if err != nil {
		return nil, err
	}
	limit, offset := clampLimitOffset(atoiDef(v.Get("limit"), 100), atoiDef(v.Get("offset"), 0), len(rows))
	return paginate(rows, limit, offset), nil
}

// Daily returns one page of the filtered rows aggregated by date, oldest
// first.
func (s *Service) Daily(v url.Values) ([]models.FactRow, error) {
	rows, err := s.DailyAll(v)
	if err != nil {
		return nil, err
	}
	limit, offset := clampLimitOffset(atoiDef(v.Get("limit"), 0), atoiDef(v.Get("offset"), 0), len(rows))
	return paginate(rows, limit, offset), nil
}

// DailyAll is Daily without pagination.
func (s *Service) DailyAll(v url.Values) ([]models.FactRow, error) {
	rows, err := s.Filtered(v)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	daily := pipeline.AggregateByDate(rows)
	pipeline.SortByDate(daily)
	s.m.ObserveStage("aggregate", start)
	s.m.SetFactRows("date", len(daily))
	return daily, nil
}

func (s *Service) Insights(v url.Values) ([]models.Insight, error) {
	rows, err := s.Filtered(v)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := insights.Generate(rows)
	s.m.ObserveStage("insights", start)
	for _, in := range out {
		s.m.RecordInsight(string(in.Category))
	}
	return out, nil
}

func (s *Service) InsightStats(v url.Values) (insights.Stats, error) {
	rows, err := s.Filtered(v)
	if err != nil {
		return insights.Stats{}, err
	}
	return insights.Analyze(rows), nil
}

func (s *Service) Summary(v url.Values) (pipeline.Summary, error) {
	rows, err := s.Filtered(v)
	if err != nil {
		return pipeline.Summary{}, err
	}
	return pipeline.Summarize(rows), nil
}

func (s *Service) Platforms(v url.Values) ([]pipeline.PlatformStat, error) {
	rows, err := s.Filtered(v)
	if err != nil {
		return nil, err
	}
	return pipeline.Platforms(rows), nil
}

func (s *Service) Regions(v url.Values) ([]pipeline.RegionTotal, error) {
	rows, err := s.Filtered(v)
	if err != nil {
		return nil, err
	}
	return pipeline.RegionRevenue(rows, atoiDef(v.Get("limit"), regionChartLimit)), nil
}

// Options lists the filter values available in the unfiltered table.
func (s *Service) Options() pipeline.FilterOptions {
	return pipeline.Options(s.Combined())
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}
