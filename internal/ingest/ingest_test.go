package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/marketing-intel-go/internal/config"
	"github.com/AngelCh415/marketing-intel-go/internal/models"
	"github.com/AngelCh415/marketing-intel-go/internal/store"
	"github.com/AngelCh415/marketing-intel-go/internal/telemetry"
	"github.com/AngelCh415/marketing-intel-go/internal/utils"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// helper: hace la petición y devuelve código HTTP + error de red (si hubo)
func fetchURL(c HTTPClient, url string) (int, error) {
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func TestHTTPClientHandles500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	code, err := fetchURL(NewHTTPClient(2*time.Second), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestHTTPClientHandlesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := fetchURL(NewHTTPClient(50*time.Millisecond), srv.URL)
	assert.Error(t, err)
}

func TestGetJSONWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"date":"2024-01-01","orders":4}]`))
	}))
	defer srv.Close()

	var out []models.BusinessRecord
	err := GetJSONWithRetry(context.Background(), NewHTTPClient(time.Second), utils.NewBackoff(time.Millisecond, 3), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []models.BusinessRecord{{Date: "2024-01-01", Orders: 4}}, out)
}

func TestGetJSONWithRetryGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var out []models.BusinessRecord
	err := GetJSONWithRetry(context.Background(), NewHTTPClient(time.Second), utils.NewBackoff(time.Millisecond, 1), srv.URL, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestIngestNormalizesAndDedups(t *testing.T) {
	st := store.NewMemoryStore()
	m := telemetry.NewMetrics("test", prometheus.NewRegistry())
	e := NewETL(nil, st, discardLogger(), config.Config{}, m)

	ds := models.Dataset{
		Facebook: []models.ChannelRecord{
			{Date: " 2024-01-01 ", Region: "CA ", Tactic: "Video Ads", CampaignID: "c1", Spend: -5, Clicks: -1, Impressions: 10},
			{Date: "2024-01-01", Region: "CA", Tactic: "Video Ads", CampaignID: "c1", Spend: 7},
		},
		TikTok: []models.ChannelRecord{
			{Date: "2024-01-01T22:00:00Z", Region: "NY", Tactic: "Spark Ads", CampaignID: "t1", Spend: 3},
		},
		Business: []models.BusinessRecord{
			{Date: "2024-01-01", Orders: 5},
			{Date: "2024-01-01", Orders: 5},
			{Date: "2024-01-01", Orders: 6},
		},
	}
	res := e.Ingest(ds)
	assert.Equal(t, Result{"Facebook": 1, "Google": 0, "TikTok": 1, "business": 2}, res)

	snap := st.Snapshot()
	require.Len(t, snap.Facebook, 1)
	fb := snap.Facebook[0]
	assert.Equal(t, models.Facebook, fb.Platform)
	assert.Equal(t, "2024-01-01", fb.Date)
	assert.Equal(t, "CA", fb.Region)
	assert.Equal(t, 0.0, fb.Spend)
	assert.Equal(t, 0, fb.Clicks)
	assert.Equal(t, "2024-01-01", snap.TikTok[0].Date)
	assert.Equal(t, 6, snap.Business[1].Orders)

	// a second identical run adds nothing
	assert.Equal(t, Result{"Facebook": 0, "Google": 0, "TikTok": 0, "business": 0}, e.Ingest(ds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestedRecords.WithLabelValues("Facebook")))
}

func TestRunLoadsDatasetFile(t *testing.T) {
	ds := models.Dataset{
		Google:   []models.ChannelRecord{{Date: "2024-01-01", Region: "TX", Tactic: "Search Ads", CampaignID: "g1", Spend: 10}},
		Business: []models.BusinessRecord{{Date: "2024-01-01", Orders: 2}},
	}
	b, err := json.Marshal(ds)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	st := store.NewMemoryStore()
	cfg := config.Config{Source: config.SourceConfig{DatasetPath: path}}
	res, err := NewETL(nil, st, discardLogger(), cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res["Google"])
	assert.Len(t, st.Snapshot().Google, 1)
}

func TestReloadedFileReplacesBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	write := func(ds models.Dataset) {
		b, err := json.Marshal(ds)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, b, 0o600))
	}
	rec := models.ChannelRecord{Date: "2024-01-01", Region: "TX", Tactic: "Search Ads", CampaignID: "g1", Spend: 10}
	write(models.Dataset{
		Google:   []models.ChannelRecord{rec, rec},
		TikTok:   []models.ChannelRecord{{Date: "2024-01-01", Region: "NY", Tactic: "Spark Ads", CampaignID: "t1", Spend: 4}},
		Business: []models.BusinessRecord{{Date: "2024-01-01", Orders: 2}},
	})

	st := store.NewMemoryStore()
	cfg := config.Config{Source: config.SourceConfig{DatasetPath: path}}
	e := NewETL(nil, st, discardLogger(), cfg, nil)
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res["Google"])

	// corrected spend, TikTok dropped from the file
	rec.Spend = 25
	write(models.Dataset{
		Google:   []models.ChannelRecord{rec},
		Business: []models.BusinessRecord{{Date: "2024-01-01", Orders: 3}},
	})
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	snap := st.Snapshot()
	require.Len(t, snap.Google, 1)
	assert.Equal(t, 25.0, snap.Google[0].Spend)
	assert.Empty(t, snap.TikTok)
	require.Len(t, snap.Business, 1)
	assert.Equal(t, 3, snap.Business[0].Orders)
	assert.Equal(t, map[string]int{"business": 1, "Facebook": 0, "Google": 1, "TikTok": 0}, e.Stored())

	// keys of the reloaded file stay known to incremental ingest
	assert.Equal(t, 0, e.Ingest(models.Dataset{Google: []models.ChannelRecord{rec}})["Google"])
}

func TestRunWithoutSource(t *testing.T) {
	_, err := NewETL(nil, store.NewMemoryStore(), discardLogger(), config.Config{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestFetchKeepsHealthySources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fb", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"2024-01-01","state":"CA","tactic":"Video Ads","campaign":"c1","spend":12.5}]`))
	})
	mux.HandleFunc("/google", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[]`)) })
	mux.HandleFunc("/tiktok", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	mux.HandleFunc("/biz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"2024-01-01","orders":10,"total_revenue":500}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Config{Source: config.SourceConfig{
		FacebookURL: srv.URL + "/fb",
		GoogleURL:   srv.URL + "/google",
		TikTokURL:   srv.URL + "/tiktok",
		BusinessURL: srv.URL + "/biz",
		RetryBase:   time.Millisecond,
		Retries:     1,
	}}
	st := store.NewMemoryStore()
	res, err := NewETL(NewHTTPClient(time.Second), st, discardLogger(), cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TikTok")
	assert.Equal(t, 1, res["Facebook"])
	assert.Equal(t, 1, res["business"])
	assert.Equal(t, 12.5, st.Snapshot().Facebook[0].Spend)
}

func TestExportDaySignsBody(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	cfg := config.Config{Sink: config.SinkConfig{URL: srv.URL, Secret: "s3cret"}}
	e := NewETL(NewHTTPClient(time.Second), st, discardLogger(), cfg, nil)
	e.Ingest(models.Dataset{
		Facebook: []models.ChannelRecord{
			{Date: "2024-01-01", Region: "CA", Tactic: "Video Ads", CampaignID: "c1", Spend: 100, AttributedRevenue: 250},
			{Date: "2024-01-01", Region: "NY", Tactic: "Video Ads", CampaignID: "c2", Spend: 50, AttributedRevenue: 50},
			{Date: "2024-01-02", Region: "NY", Tactic: "Video Ads", CampaignID: "c2", Spend: 50, AttributedRevenue: 50},
		},
	})

	day, _ := time.Parse(time.DateOnly, "2024-01-01")
	n, err := e.ExportDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, Sign("s3cret", gotBody), gotSig)

	var rows []models.FactRow
	require.NoError(t, json.Unmarshal(gotBody, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, models.AllRegions, rows[0].Region)
	assert.Equal(t, 2.0, rows[0].Derived.ROAS)
}

func TestExportDayRequiresSink(t *testing.T) {
	_, err := NewETL(nil, store.NewMemoryStore(), discardLogger(), config.Config{}, nil).ExportDay(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrSinkNotConfigured)
}
