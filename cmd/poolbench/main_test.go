package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyPositional(t *testing.T) {
	tests := []struct {
		args    []string
		mode    string
		workers int
		zero    bool
		wantErr bool
	}{
		{nil, "", 0, false, false},
		{[]string{"tokio", "4"}, "async", 4, false, false},
		{[]string{"threadpool", "8"}, "pool", 8, false, false},
		{[]string{"threadpool", "0"}, "pool", 0, true, false},
		{[]string{"threadpool", "-1"}, "", 0, false, true},
		{[]string{"threadpool", "many"}, "", 0, false, true},
		{[]string{"fork", "4"}, "", 0, false, true},
		{[]string{"tokio"}, "", 0, false, true},
	}

	for _, tt := range tests {
		var opts options
		err := applyPositional(&opts, tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("applyPositional(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if opts.mode != tt.mode || opts.workers != tt.workers || opts.zeroWorkers != tt.zero {
			t.Errorf("applyPositional(%v) = {mode: %q, workers: %d, zero: %v}", tt.args, opts.mode, opts.workers, opts.zeroWorkers)
		}
	}
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	opts := options{
		envFile:     filepath.Join(t.TempDir(), "missing.env"),
		mode:        "pool",
		workers:     3,
		addr:        "127.0.0.1:9090",
		concurrency: 5,
		duration:    2 * time.Second,
	}

	fc, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if fc.Server.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", fc.Server.Workers)
	}
	if fc.Bench.Addr != "127.0.0.1:9090" {
		t.Errorf("expected bench addr to follow -addr, got %s", fc.Bench.Addr)
	}

	run, err := fc.ToBenchRun()
	if err != nil {
		t.Fatalf("ToBenchRun failed: %v", err)
	}
	if run.Duration != 2*time.Second {
		t.Errorf("expected duration 2s, got %v", run.Duration)
	}
	if run.Client.Concurrency != 5 {
		t.Errorf("expected concurrency 5, got %d", run.Client.Concurrency)
	}
}

func TestLoadConfigInvalidMode(t *testing.T) {
	opts := options{
		envFile: filepath.Join(t.TempDir(), "missing.env"),
		mode:    "fork",
	}
	if _, err := loadConfig(opts); err == nil {
		t.Error("expected error for invalid mode")
	}
}
