package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	logx "netpulse/pkg/logx"
)

func TestNormalizeSpecVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "cron", raw: "*/5 * * * *", want: "*/5 * * * *"},
		{name: "descriptor", raw: "@hourly", want: "@hourly"},
		{name: "every", raw: "@every 55m", want: "@every 55m"},
		{name: "duration", raw: "10m", want: "@every 10m0s"},
		{name: "hhmm", raw: "01:30", want: "@every 1h30m0s"},
		{name: "hhmm minutes only", raw: "00:50", want: "@every 50m0s"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSpec(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeSpecInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "00:00", "10:99", "-5m"} {
		_, err := NormalizeSpec(raw)
		require.Error(t, err, "raw=%q", raw)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, Config{}.Validate())
	require.NoError(t, Config{Enabled: true, Spec: "@every 1h"}.Validate())
	require.NoError(t, Config{Enabled: true, Spec: "0 3 * * *"}.Validate())
	require.Error(t, Config{Enabled: true, Spec: "61 * * * *"}.Validate())
	require.Error(t, Config{Enabled: true}.Validate())
}

func TestServiceFires(t *testing.T) {
	var fires atomic.Int32
	svc := New(Config{Enabled: true, Spec: "@every 10ms"}, func(context.Context) {
		fires.Add(1)
	}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	require.Eventually(t, func() bool { return fires.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestServiceDisabledIsNoop(t *testing.T) {
	var fires atomic.Int32
	svc := New(Config{Enabled: false, Spec: "@every 1ms"}, func(context.Context) {
		fires.Add(1)
	}, logx.Nop())

	require.NoError(t, svc.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	svc.Stop()
	require.Zero(t, fires.Load())
}

func TestApplySwapsSchedule(t *testing.T) {
	var fires atomic.Int32
	svc := New(Config{Enabled: false}, func(context.Context) {
		fires.Add(1)
	}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))

	require.NoError(t, svc.Apply(Config{Enabled: true, Spec: "@every 10ms"}))
	require.Eventually(t, func() bool { return fires.Load() >= 1 },
		2*time.Second, 5*time.Millisecond)

	require.NoError(t, svc.Apply(Config{Enabled: false}))
	seen := fires.Load()
	time.Sleep(50 * time.Millisecond)
	require.LessOrEqual(t, fires.Load(), seen+1)
	svc.Stop()
}
