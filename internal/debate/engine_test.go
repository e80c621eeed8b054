package debate

import (
	"context"
	"errors"
	"testing"
	"time"

	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/logger"
)

type stubAgent struct {
	name       string
	round      Round
	err        error
	delay      time.Duration
	honorsCtx  bool
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Evaluate(ctx context.Context, in Input) (Round, error) {
	if s.delay > 0 {
		if s.honorsCtx {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return Round{}, ctx.Err()
			}
		} else {
			time.Sleep(s.delay)
		}
	}
	if s.err != nil {
		return Round{}, s.err
	}
	return s.round, nil
}

func TestReconcileHighestConfidenceWins(t *testing.T) {
	rounds := []Round{
		{Agent: "a", Recommendation: "plan a", Confidence: 70},
		{Agent: "b", Recommendation: "plan b", Confidence: 90},
		{Agent: "c", Recommendation: "plan c", Confidence: 85},
	}

	outcome, err := Reconcile(rounds)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if outcome.SelectedAgent != "b" || outcome.FinalRecommendation != "plan b" {
		t.Fatalf("expected agent b selected, got %s", outcome.SelectedAgent)
	}
	if outcome.Degraded {
		t.Fatal("three rounds should not be degraded mode")
	}
	if !outcome.Rounds[1].Selected || outcome.Rounds[0].Selected || outcome.Rounds[2].Selected {
		t.Fatal("exactly the winning round should be marked selected")
	}
}

func TestReconcileTieGoesToEarliestArrival(t *testing.T) {
	rounds := []Round{
		{Agent: "a", Recommendation: "plan a", Confidence: 70},
		{Agent: "b", Recommendation: "plan b", Confidence: 90},
		{Agent: "c", Recommendation: "plan c", Confidence: 90},
	}

	outcome, err := Reconcile(rounds)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if outcome.SelectedAgent != "b" {
		t.Fatalf("earliest 90 should win the tie, got %s", outcome.SelectedAgent)
	}
}

func TestReconcileSingleRoundIsDegraded(t *testing.T) {
	outcome, err := Reconcile([]Round{{Agent: "a", Recommendation: "solo plan", Confidence: 60}})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !outcome.Degraded {
		t.Fatal("single-round debate should be flagged degraded")
	}
	if outcome.FinalRecommendation != "solo plan" {
		t.Fatalf("unexpected recommendation: %s", outcome.FinalRecommendation)
	}
}

func TestReconcileZeroRoundsFails(t *testing.T) {
	_, err := Reconcile(nil)
	if err == nil {
		t.Fatal("expected error for empty debate")
	}
	if apperr.GetCode(err) != "debate_engine_unavailable" {
		t.Fatalf("expected debate_engine_unavailable code, got %q", apperr.GetCode(err))
	}
}

func TestEngineSurvivesFailingAgent(t *testing.T) {
	agents := []Agent{
		&stubAgent{name: "a", round: Round{Agent: "a", Recommendation: "plan a", Confidence: 75}},
		&stubAgent{name: "b", err: errors.New("provider down")},
	}
	engine := NewEngine(agents, time.Second, logger.New("development"))

	outcome, err := engine.Run(context.Background(), Input{ScanID: "scan-1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcome.Rounds) != 1 {
		t.Fatalf("expected 1 surviving round, got %d", len(outcome.Rounds))
	}
	if !outcome.Degraded {
		t.Fatal("one surviving agent should be degraded mode")
	}
}

func TestEngineAllAgentsFail(t *testing.T) {
	agents := []Agent{
		&stubAgent{name: "a", err: errors.New("provider down")},
		&stubAgent{name: "b", err: errors.New("provider down")},
	}
	engine := NewEngine(agents, time.Second, logger.New("development"))

	_, err := engine.Run(context.Background(), Input{ScanID: "scan-1"})
	if err == nil {
		t.Fatal("expected failure when every agent fails")
	}
	if apperr.GetCode(err) != "debate_engine_unavailable" {
		t.Fatalf("expected debate_engine_unavailable code, got %q", apperr.GetCode(err))
	}
}

func TestEngineTimesOutSlowAgent(t *testing.T) {
	agents := []Agent{
		&stubAgent{name: "fast", round: Round{Agent: "fast", Recommendation: "quick plan", Confidence: 80}},
		&stubAgent{name: "slow", delay: 500 * time.Millisecond, honorsCtx: true, round: Round{Agent: "slow", Recommendation: "late plan", Confidence: 99}},
	}
	engine := NewEngine(agents, 20*time.Millisecond, logger.New("development"))

	outcome, err := engine.Run(context.Background(), Input{ScanID: "scan-1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.SelectedAgent != "fast" {
		t.Fatalf("timed-out agent must count as failed, got %s", outcome.SelectedAgent)
	}
}
