package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00", want: "0 0 9 * * *"},
		{in: " 21:45 ", want: "0 45 21 * * *"},
		{in: "0:5", want: "0 5 0 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12:00:00", wantErr: true},
	}
	for _, tc := range cases {
		got, err := buildDailySpec(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("buildDailySpec(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("buildDailySpec(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("buildDailySpec(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	noop := func(context.Context) error { return nil }

	if _, err := s.ScheduleDaily("08:30", "summary", noop); err != nil {
		t.Fatalf("ScheduleDaily: %v", err)
	}
	if _, err := s.ScheduleInterval(2*time.Hour, "summary-interval", noop); err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}
	if _, err := s.ScheduleInterval(0, "broken", noop); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if _, err := s.ScheduleDaily("8.30", "broken", noop); err == nil {
		t.Fatal("expected error for malformed time")
	}
	if got := s.Entries(); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
	s.Start()
	s.Stop()
}

func TestJobLogTags(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	s := NewSchedulerService(time.UTC, time.Second)
	s.wrap("broken", func(context.Context) error { return errors.New("smtp down") })()
	s.wrap("fine", func(context.Context) error { return nil })()

	out := buf.String()
	if !strings.Contains(out, "[error] job broken: smtp down") {
		t.Fatalf("failed job log missing error tag: %q", out)
	}
	if !strings.Contains(out, "[info] job fine finished") {
		t.Fatalf("finished job log missing info tag: %q", out)
	}
}
