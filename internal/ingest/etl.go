package ingest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/marketing-intel-go/internal/config"
	"github.com/AngelCh415/marketing-intel-go/internal/models"
	"github.com/AngelCh415/marketing-intel-go/internal/pipeline"
	"github.com/AngelCh415/marketing-intel-go/internal/store"
	"github.com/AngelCh415/marketing-intel-go/internal/telemetry"
	"github.com/AngelCh415/marketing-intel-go/internal/utils"
)

var (
	ErrNoSource          = errors.New("no dataset source configured")
	ErrSinkNotConfigured = errors.New("sink not configured")
)

type ETL struct {
	c   HTTPClient
	st  *store.MemoryStore
	log *slog.Logger
	cfg config.Config
	m   *telemetry.Metrics
}

func NewETL(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config, m *telemetry.Metrics) *ETL {
	return &ETL{c: c, st: st, log: log, cfg: cfg, m: m}
}

// Result counts the records accepted per source by one run.
type Result map[string]int

// Run loads the configured source into the store. A dataset file takes
// precedence over the per-source URLs.
func (e *ETL) Run(ctx context.Context) (Result, error) {
	switch {
	case e.cfg.Source.DatasetPath != "":
		return e.LoadFile(e.cfg.Source.DatasetPath)
	case e.cfg.Source.HasRemoteSources():
		return e.Fetch(ctx)
	}
	return nil, ErrNoSource
}

// LoadFile reads a JSON dataset document from path and swaps it in for the
// whole batch, so edited values in a reloaded file replace the old ones.
func (e *ETL) LoadFile(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds models.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	seen := map[string]struct{}{}
	bt := prepare(ds, func(key string) bool {
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	e.st.Replace(bt.ds, bt.keys)
	e.record(bt.res)
	e.log.Info("dataset loaded", slog.String("path", path), slog.Any("accepted", bt.res))
	return bt.res, nil
}

// Fetch pulls every source over HTTP. Sources are independent: one failing
// source does not stop the others, its error is returned joined.
func (e *ETL) Fetch(ctx context.Context) (Result, error) {
	bo := utils.NewBackoff(e.cfg.Source.RetryBase, e.cfg.Source.Retries)
	var ds models.Dataset
	var errs []error

	sources := []struct {
		name string
		url  string
		dst  any
	}{
		{string(models.Facebook), e.cfg.Source.FacebookURL, &ds.Facebook},
		{string(models.Google), e.cfg.Source.GoogleURL, &ds.Google},
		{string(models.TikTok), e.cfg.Source.TikTokURL, &ds.TikTok},
		{"business", e.cfg.Source.BusinessURL, &ds.Business},
	}
	for _, s := range sources {
		if err := GetJSONWithRetry(ctx, e.c, bo, s.url, s.dst); err != nil {
			e.m.RecordIngestError(s.name)
			e.log.Warn("source fetch failed", slog.String("source", s.name), slog.String("err", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	res := e.Ingest(ds)
	e.log.Info("ingest complete", slog.Any("accepted", res))
	return res, errors.Join(errs...)
}

// Ingest normalizes ds and adds every record not seen before to the store.
// Channel records are identified by platform, date, region, tactic and
// campaign. Business records are identified by their full content, so a
// corrected record for an already loaded date is kept and wins.
func (e *ETL) Ingest(ds models.Dataset) Result {
	bt := prepare(ds, e.st.MarkSeen) // idempotencia
	for _, p := range models.AdPlatforms {
		for _, rec := range bt.ds.Channel(p) {
			e.st.AddChannel(rec)
		}
	}
	for _, b := range bt.ds.Business {
		e.st.AddBusiness(b)
	}
	e.record(bt.res)
	return bt.res
}

// Stored returns the number of records held per source.
func (e *ETL) Stored() map[string]int {
	return e.st.Counts()
}

func (e *ETL) record(res Result) {
	for src, n := range res {
		e.m.RecordIngested(src, n)
	}
}

type batch struct {
	ds   models.Dataset
	keys []string
	res  Result
}

// prepare normalizes ds and keeps the records whose key keep accepts.
func prepare(ds models.Dataset, keep func(key string) bool) batch {
	bt := batch{res: Result{}}
	for _, p := range models.AdPlatforms {
		var kept []models.ChannelRecord
		for _, r := range ds.Channel(p) {
			rec := normalizeChannel(p, r)
			key := strings.Join([]string{"ch", string(p), rec.Date, rec.Region, rec.Tactic, rec.CampaignID}, "|")
			if !keep(key) {
				continue
			}
			kept = append(kept, rec)
			bt.keys = append(bt.keys, key)
		}
		switch p {
		case models.Facebook:
			bt.ds.Facebook = kept
		case models.Google:
			bt.ds.Google = kept
		case models.TikTok:
			bt.ds.TikTok = kept
		}
		bt.res[string(p)] = len(kept)
	}

	for _, r := range ds.Business {
		b := normalizeBusiness(r)
		key := businessKey(b)
		if !keep(key) {
			continue
		}
		bt.ds.Business = append(bt.ds.Business, b)
		bt.keys = append(bt.keys, key)
	}
	bt.res["business"] = len(bt.ds.Business)
	return bt
}

// ExportDay posts the date-level fact row of one day to the sink, signed with
// HMAC-SHA256 over the body.
func (e *ETL) ExportDay(ctx context.Context, date time.Time) (int, error) {
	if e.cfg.Sink.URL == "" || e.cfg.Sink.Secret == "" {
		return 0, ErrSinkNotConfigured
	}
	day := date.Format(time.DateOnly)
	var rows []models.FactRow
	for _, r := range pipeline.AggregateByDate(pipeline.Combine(e.st.Snapshot())) {
		if r.Date == day {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return 0, err
	}
	sig := Sign(e.cfg.Sink.Secret, b)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Sink.URL, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", sig)
	resp, err := e.c.Do(req)
	if err != nil {
		e.m.RecordExport(false)
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.m.RecordExport(false)
		return 0, fmt.Errorf("export sink non-2xx: %d", resp.StatusCode)
	}
	e.m.RecordExport(true)
	e.log.Info("day exported", slog.String("date", day), slog.Int("rows", len(rows)))
	return len(rows), nil
}

// Sign returns the hex HMAC-SHA256 of body under secret, as sent in
// X-Signature.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeChannel(p models.Platform, r models.ChannelRecord) models.ChannelRecord {
	return models.ChannelRecord{
		Platform:          p,
		Date:              normalizeDate(r.Date),
		Tactic:            strings.TrimSpace(r.Tactic),
		Region:            strings.TrimSpace(r.Region),
		CampaignID:        strings.TrimSpace(r.CampaignID),
		Impressions:       max0(r.Impressions),
		Clicks:            max0(r.Clicks),
		Spend:             maxf(r.Spend),
		AttributedRevenue: maxf(r.AttributedRevenue),
	}
}

func normalizeBusiness(r models.BusinessRecord) models.BusinessRecord {
	return models.BusinessRecord{
		Date:         normalizeDate(r.Date),
		Orders:       max0(r.Orders),
		NewOrders:    max0(r.NewOrders),
		NewCustomers: max0(r.NewCustomers),
		TotalRevenue: maxf(r.TotalRevenue),
		GrossProfit:  maxf(r.GrossProfit),
		COGS:         maxf(r.COGS),
	}
}

func businessKey(b models.BusinessRecord) string {
	return strings.Join([]string{
		"biz", b.Date,
		strconv.Itoa(b.Orders), strconv.Itoa(b.NewOrders), strconv.Itoa(b.NewCustomers),
		strconv.FormatFloat(b.TotalRevenue, 'f', -1, 64),
		strconv.FormatFloat(b.GrossProfit, 'f', -1, 64),
		strconv.FormatFloat(b.COGS, 'f', -1, 64),
	}, "|")
}

// normalizeDate trims the value and cuts RFC 3339 timestamps down to their
// UTC day. Anything else is kept as is; the pipeline does not reject dates.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	return s
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}
func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
