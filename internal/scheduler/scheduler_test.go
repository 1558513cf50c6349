package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"LevelSentinel/internal/calendar"
	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/model"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	docs  []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendDocument(name string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(data) == 0 {
		return errors.New("empty document")
	}
	f.docs = append(f.docs, name)
	return nil
}

var cst = time.FixedZone("CST", 8*3600)

func newTestScheduler(fetcher collector.Fetcher) (*Scheduler, *fakeSender) {
	sender := &fakeSender{}
	col := collector.NewCollector(fetcher, "09:30", cst)
	s := NewScheduler(context.Background(), col, &calendar.WeekdayCalendar{}, sender, Settings{
		Symbol:      "000300.SH",
		Interval:    "30min",
		Params:      model.Params{LookbackPeriod: 48, MinTouch: 3, Tolerance: 10},
		CloseAt:     "15:00",
		RangeMonths: 3,
		Location:    cst,
		SendChart:   true,
	})
	s.Now = func() time.Time { return time.Date(2024, 6, 12, 16, 0, 0, 0, cst) }
	return s, sender
}

func TestHandleCommand_Levels(t *testing.T) {
	mock := &collector.MockFetcher{Price: 3500}
	s, sender := newTestScheduler(mock)

	if reply := s.HandleCommand("/levels"); reply != "" {
		t.Fatalf("expected report to be sent directly, got reply %q", reply)
	}
	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "000300.SH") || !strings.Contains(sender.texts[0], "回看 48") {
		t.Fatalf("unexpected messages: %q", sender.texts)
	}
	if len(sender.docs) != 1 || sender.docs[0] != "000300_SH_20240612.html" {
		t.Errorf("unexpected chart documents: %q", sender.docs)
	}
	if mock.Calls != 1 {
		t.Errorf("expected one fetch, got %d", mock.Calls)
	}
}

func TestHandleCommand_LevelsWithArgs(t *testing.T) {
	s, sender := newTestScheduler(&collector.MockFetcher{Price: 3500})

	if reply := s.HandleCommand("/levels@levels_bot 24 2 5.5"); reply != "" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "回看 24 | 最少触及 2 | 容差 5.5") {
		t.Fatalf("custom params not used: %q", sender.texts)
	}
	if s.Settings.Params.LookbackPeriod != 48 {
		t.Errorf("command args leaked into defaults: %+v", s.Settings.Params)
	}
}

func TestHandleCommand_LevelsWarnsOutsideBounds(t *testing.T) {
	s, sender := newTestScheduler(&collector.MockFetcher{Price: 3500})

	s.HandleCommand("/levels 4 3 10")
	if len(sender.texts) != 2 || !strings.Contains(sender.texts[0], "lookback_period 4") {
		t.Fatalf("expected a warning before the report, got %q", sender.texts)
	}
}

func TestHandleCommand_LevelsBadArgs(t *testing.T) {
	tests := []string{"/levels 48 3", "/levels a 3 10", "/levels 48 x 10", "/levels 48 3 ten", "/levels 0 3 10", "/levels 48 3 -1"}
	for _, cmd := range tests {
		t.Run(cmd, func(t *testing.T) {
			mock := &collector.MockFetcher{Price: 3500}
			s, sender := newTestScheduler(mock)
			reply := s.HandleCommand(cmd)
			if !strings.Contains(reply, "用法") {
				t.Errorf("expected usage, got %q", reply)
			}
			if mock.Calls != 0 || len(sender.texts) != 0 {
				t.Errorf("detection should not run: calls=%d sent=%q", mock.Calls, sender.texts)
			}
		})
	}
}

func TestHandleCommand_NoData(t *testing.T) {
	s, sender := newTestScheduler(&collector.MockFetcher{})

	s.HandleCommand("/levels")
	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "没有数据") {
		t.Fatalf("expected no-data message, got %q", sender.texts)
	}
	if len(sender.docs) != 0 {
		t.Errorf("no chart expected, got %q", sender.docs)
	}
}

func TestHandleCommand_FetchFailure(t *testing.T) {
	s, sender := newTestScheduler(&collector.MockFetcher{Err: errors.New("upstream 502")})

	s.HandleCommand("/levels")
	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "upstream 502") {
		t.Fatalf("expected failure message, got %q", sender.texts)
	}
}

func TestHandleCommand_Params(t *testing.T) {
	s, _ := newTestScheduler(&collector.MockFetcher{})
	reply := s.HandleCommand("/params")
	if !strings.Contains(reply, "48") || !strings.Contains(reply, "000300.SH") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestHandleCommand_Help(t *testing.T) {
	s, _ := newTestScheduler(&collector.MockFetcher{})
	for _, cmd := range []string{"/help", "hello", ""} {
		if reply := s.HandleCommand(cmd); !strings.Contains(reply, "/levels") {
			t.Errorf("%q: expected help, got %q", cmd, reply)
		}
	}
}

func TestRunReportNow(t *testing.T) {
	s, sender := newTestScheduler(&collector.MockFetcher{Price: 3500})
	s.Settings.SendChart = false

	s.RunReportNow()
	if len(sender.texts) != 1 || len(sender.docs) != 0 {
		t.Errorf("expected one text and no chart, got %q / %q", sender.texts, sender.docs)
	}
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(&collector.MockFetcher{})
	if err := s.RegisterAll("0 5 15 * * 1-5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RegisterAll("not a cron"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}
