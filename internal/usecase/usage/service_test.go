package usage

import (
	"context"
	"testing"
	"time"
)

type stubBudget struct {
	dailyLimit   int64
	monthlyLimit int64
	dailyUsed    int64
	monthlyUsed  int64
}

func (s *stubBudget) DailyLimit() int64   { return s.dailyLimit }
func (s *stubBudget) MonthlyLimit() int64 { return s.monthlyLimit }
func (s *stubBudget) DailyUsed() int64    { return s.dailyUsed }
func (s *stubBudget) MonthlyUsed() int64  { return s.monthlyUsed }
func (s *stubBudget) RemainingDaily() int64 {
	return s.dailyLimit - s.dailyUsed
}
func (s *stubBudget) RemainingMonthly() int64 {
	return s.monthlyLimit - s.monthlyUsed
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func TestGetReport_Day(t *testing.T) {
	svc := New(&stubBudget{dailyLimit: 1000, dailyUsed: 400, monthlyLimit: 10000}).WithClock(fixedNow)

	r := svc.GetReport(context.Background(), PeriodDay)

	if r.Period != PeriodDay {
		t.Errorf("period: got %s", r.Period)
	}
	if r.TokensLimit != 1000 || r.TokensUsed != 400 || r.TokensRemaining != 600 {
		t.Errorf("tokens: got limit=%d used=%d remaining=%d", r.TokensLimit, r.TokensUsed, r.TokensRemaining)
	}
	if r.IsExhausted {
		t.Error("budget should not be exhausted")
	}

	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStartAt.Equal(wantStart) {
		t.Errorf("period start: got %v, want %v", r.PeriodStartAt, wantStart)
	}
	if !r.PeriodEndAt.Equal(wantStart.Add(24 * time.Hour)) {
		t.Errorf("period end: got %v", r.PeriodEndAt)
	}
}

func TestGetReport_MonthDefault(t *testing.T) {
	svc := New(&stubBudget{monthlyLimit: 10000, monthlyUsed: 10000}).WithClock(fixedNow)

	r := svc.GetReport(context.Background(), Period("weird"))

	if r.Period != PeriodMonth {
		t.Errorf("unknown period must default to month, got %s", r.Period)
	}
	if !r.IsExhausted {
		t.Error("budget should be exhausted")
	}

	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStartAt.Equal(wantStart) {
		t.Errorf("period start: got %v, want %v", r.PeriodStartAt, wantStart)
	}
	if !r.PeriodEndAt.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("period end: got %v", r.PeriodEndAt)
	}
}

func TestGetReport_NilReader_Unlimited(t *testing.T) {
	svc := New(nil).WithClock(fixedNow)

	r := svc.GetReport(context.Background(), PeriodMonth)

	if r.TokensLimit != 0 || r.TokensUsed != 0 || r.TokensRemaining != 0 {
		t.Errorf("nil reader must report zeros: %+v", r)
	}
	if r.IsExhausted {
		t.Error("unlimited budget is never exhausted")
	}
}
