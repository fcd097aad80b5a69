// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("query: %w", context.Canceled), "canceled"},
		{errors.New("Constraint Error: duplicate key \"x\""), "constraint"},
		{errors.New("TransactionContext Error: Conflict on tuple deletion"), "conflict"},
		{errors.New("sql: no rows in result set"), "not_found"},
		{errors.New("disk full"), "other"},
	}
	for _, tt := range tests {
		if got := classifyError(tt.err); got != tt.want {
			t.Errorf("classifyError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestRecordDBQuery_CountsErrors(t *testing.T) {
	c := DBQueryErrors.WithLabelValues("insert", "metrics_test", "other")
	before := counterValue(t, c)

	RecordDBQuery("insert", "metrics_test", time.Millisecond, nil)
	RecordDBQuery("insert", "metrics_test", time.Millisecond, errors.New("boom"))

	if got := counterValue(t, c) - before; got != 1 {
		t.Errorf("error counter delta = %v, want 1", got)
	}
}

func TestRecordForumAction(t *testing.T) {
	ok := ForumActions.WithLabelValues("test_action", "success")
	fail := ForumActions.WithLabelValues("test_action", "error")
	okBefore, failBefore := counterValue(t, ok), counterValue(t, fail)

	RecordForumAction("test_action", nil)
	RecordForumAction("test_action", nil)
	RecordForumAction("test_action", errors.New("denied"))

	if got := counterValue(t, ok) - okBefore; got != 2 {
		t.Errorf("success delta = %v, want 2", got)
	}
	if got := counterValue(t, fail) - failBefore; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordRankingRecompute_SetsLastSuccess(t *testing.T) {
	RecordRankingRecompute("test", 5*time.Millisecond, nil)
	if gaugeValue(t, RankingLastSuccess) <= 0 {
		t.Error("last success timestamp should be set")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := gaugeValue(t, APIActiveRequests)
	TrackActiveRequest(true)
	if got := gaugeValue(t, APIActiveRequests); got != before+1 {
		t.Errorf("gauge = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := gaugeValue(t, APIActiveRequests); got != before {
		t.Errorf("gauge = %v, want %v", got, before)
	}
}
