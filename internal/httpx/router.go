package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AngelCh415/marketing-intel-go/internal/ingest"
	"github.com/AngelCh415/marketing-intel-go/internal/metrics"
	"github.com/AngelCh415/marketing-intel-go/internal/report"
	"github.com/AngelCh415/marketing-intel-go/internal/telemetry"
	"github.com/AngelCh415/marketing-intel-go/internal/utils"
)

func NewRouter(log *slog.Logger, etl *ingest.ETL, mSvc *metrics.Service, tm *telemetry.Metrics) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(countRequests(tm))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		stored := etl.Stored()
		total := 0
		for _, n := range stored {
			total += n
		}
		if total == 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"status": "empty", "records": stored})
			return
		}
		writeJSON(w, map[string]any{"status": "ready", "records": stored})
	})
	mux.Method(http.MethodGet, "/metrics", tm.Handler())

	mux.Post("/ingest/run", func(w http.ResponseWriter, r *http.Request) {
		res, err := etl.Run(r.Context())
		if errors.Is(err, ingest.ErrNoSource) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			log.Warn("ingest finished with errors", slog.String("err", err.Error()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]any{"accepted": res, "stored": etl.Stored(), "error": err.Error()})
			return
		}
		writeJSON(w, map[string]any{"accepted": res, "stored": etl.Stored()})
	})

	mux.Post("/export/run", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("date")
		if q == "" {
			http.Error(w, "date required (YYYY-MM-DD)", 400)
			return
		}
		t, err := time.Parse(time.DateOnly, q)
		if err != nil {
			http.Error(w, "bad date", 400)
			return
		}
		n, err := etl.ExportDay(r.Context(), t)
		if err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		writeJSON(w, map[string]any{"exported": n})
	})

	mux.Route("/api", func(r chi.Router) {
		r.Get("/facts", query(mSvc.Facts))
		r.Get("/daily", query(mSvc.Daily))
		r.Get("/insights", query(mSvc.Insights))
		r.Get("/insights/stats", query(mSvc.InsightStats))
		r.Get("/summary", query(mSvc.Summary))
		r.Get("/platforms", query(mSvc.Platforms))
		r.Get("/regions", query(mSvc.Regions))
		r.Get("/options", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, mSvc.Options()) })
		r.Get("/daily.xlsx", func(w http.ResponseWriter, r *http.Request) {
			rows, err := mSvc.DailyAll(r.URL.Query())
			if err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="daily.xlsx"`)
			if err := report.WriteDailyXLSX(w, rows); err != nil {
				log.Error("xlsx render failed", slog.String("err", err.Error()))
			}
		})
	})

	return mux
}

// query adapts a service call over the query string to a JSON handler.
// Service errors come from bad parameters, so they answer 400.
func query[T any](fn func(url.Values) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, out)
	}
}

// countRequests counts requests by matched route pattern and status.
func countRequests(tm *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &utils.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
			next.ServeHTTP(rec, r)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			tm.RecordHTTP(route, rec.Status)
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
