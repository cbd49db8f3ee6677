package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

const hourMs = int64(time.Hour / time.Millisecond)

func seedDay(s *Store, date string, ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := NewDailyAggregate()
	a.TotalTimeMs = ms
	a.LanguageTime["go"] = ms
	a.ProjectTime["/p"] = ms
	s.schema.DailyAggregates[date] = a
}

func TestImportMergeScenario(t *testing.T) {
	s := newTestStore(t, &memBackend{}, time.Now)
	seedDay(s, "2024-01-01", hourMs)

	payload := `{
		"version": 2,
		"dailyAggregates": {
			"2024-01-01": {"totalTimeMs": 7200000},
			"2024-01-02": {"totalTimeMs": 3600000}
		}
	}`
	res := s.Import(context.Background(), []byte(payload))
	if !res.OK {
		t.Fatalf("import failed: %s", res.Message)
	}
	if res.ImportedDays != 2 {
		t.Errorf("ImportedDays = %d, want 2", res.ImportedDays)
	}
	if res.Message != "Imported 2 days of coding data" {
		t.Errorf("unexpected message %q", res.Message)
	}

	aggs := s.Aggregates("2024-01-01", "2024-01-02")
	if aggs["2024-01-01"].TotalTimeMs != 2*hourMs {
		t.Errorf("collision should take imported value, got %d", aggs["2024-01-01"].TotalTimeMs)
	}
	if aggs["2024-01-02"].TotalTimeMs != hourMs {
		t.Errorf("new date not added, got %d", aggs["2024-01-02"].TotalTimeMs)
	}
}

func TestImportShallowMergesSettings(t *testing.T) {
	s := newTestStore(t, &memBackend{}, time.Now, WithDefaultSettings(Settings{IdleTimeoutMs: 1000, ShowStatusBar: true}))

	res := s.Import(context.Background(), []byte(`{"version":2,"dailyAggregates":{},"settings":{"idleTimeoutMs":5000}}`))
	if !res.OK {
		t.Fatalf("import failed: %s", res.Message)
	}
	got := s.Settings()
	if got.IdleTimeoutMs != 5000 {
		t.Errorf("IdleTimeoutMs = %d, want 5000", got.IdleTimeoutMs)
	}
	if !got.ShowStatusBar {
		t.Error("absent settings key should keep the existing value")
	}
}

func TestImportRejectsBeforeMutation(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    error
	}{
		{"not json", `{{`, ErrInvalidPayload},
		{"missing version", `{"dailyAggregates":{}}`, ErrInvalidPayload},
		{"future version", `{"version":3,"dailyAggregates":{}}`, ErrIncompatibleVersion},
		{"missing aggregates", `{"version":2}`, ErrInvalidPayload},
		{"bad date", `{"version":2,"dailyAggregates":{"yesterday":{"totalTimeMs":1}}}`, ErrInvalidPayload},
		{"negative time", `{"version":2,"dailyAggregates":{"2024-01-03":{"totalTimeMs":-5}}}`, ErrInvalidPayload},
		{"bad setting", `{"version":2,"dailyAggregates":{"2024-01-03":{"totalTimeMs":5}},"settings":{"showStatusBar":"yes"}}`, ErrInvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &memBackend{}
			s := newTestStore(t, b, time.Now)
			seedDay(s, "2024-01-01", hourMs)
			before, _ := s.Export()

			res := s.Import(context.Background(), []byte(tc.payload))
			if res.OK {
				t.Fatal("expected failure")
			}
			if !errors.Is(res.Err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, res.Err)
			}
			after, _ := s.Export()
			if string(before) != string(after) {
				t.Error("failed import mutated the store")
			}
		})
	}
}

func TestImportMigratesOlderPayload(t *testing.T) {
	s := newTestStore(t, &memBackend{}, time.Now)
	res := s.Import(context.Background(), []byte(`{"version":1,"dailyAggregates":{"2023-12-31":{"totalTimeMs":10}}}`))
	if !res.OK {
		t.Fatalf("import failed: %s", res.Message)
	}
	a := s.Aggregates("2023-12-31", "2023-12-31")["2023-12-31"]
	if a.FileWorkspaces == nil {
		t.Error("imported v1 aggregate should be normalized")
	}
	if res.Message != "Imported 1 day of coding data" {
		t.Errorf("unexpected message %q", res.Message)
	}
}

// Property: exporting one store and importing into an empty one reproduces
// every daily aggregate.
func TestExportImportPreservesAggregates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := newTestStore(t, &memBackend{}, time.Now)
		days := rapid.IntRange(0, 10).Draw(rt, "days")
		base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		want := make(map[string]int64)
		for i := 0; i < days; i++ {
			date := DateKey(base.AddDate(0, 0, i))
			ms := rapid.Int64Range(0, 10*hourMs).Draw(rt, "ms")
			seedDay(src, date, ms)
			want[date] = ms
		}

		data, err := src.Export()
		if err != nil {
			rt.Fatalf("Export: %v", err)
		}
		var probe map[string]any
		if err := json.Unmarshal(data, &probe); err != nil {
			rt.Fatalf("export is not JSON: %v", err)
		}

		dst := newTestStore(t, &memBackend{}, time.Now)
		res := dst.Import(context.Background(), data)
		if !res.OK || res.ImportedDays != days {
			rt.Fatalf("import result %+v", res)
		}
		got := dst.Aggregates("0000-00-00", "9999-99-99")
		for date, ms := range want {
			if got[date].TotalTimeMs != ms {
				rt.Fatalf("%s: got %d want %d", date, got[date].TotalTimeMs, ms)
			}
		}
	})
}
