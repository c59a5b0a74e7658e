package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrSnakeDoc/navbar/internal/logger"
)

func testOptions(addr string) Options {
	return Options{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), testOptions(mr.Addr()), logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Errorf("Ping() after New() error = %v", err)
	}
}

func TestNewGivesUpAfterTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := New(context.Background(), testOptions(addr), logger.NewNop())
	if err == nil {
		t.Fatal("New() against a closed server should fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("New() took %v, should respect ConnectTimeout", elapsed)
	}
}

func TestOptionsValidate(t *testing.T) {
	valid := testOptions("localhost:6379")

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty addr", func(o *Options) { o.Addr = "" }},
		{"zero connect timeout", func(o *Options) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *Options) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *Options) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *Options) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *Options) { o.WarnThreshold = -1 }},
	}

	if err := valid.validate(); err != nil {
		t.Fatalf("validate() on valid options error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			if err := opts.validate(); err == nil {
				t.Error("validate() should fail")
			}
		})
	}
}
