package debate

import (
	"context"
	"time"

	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/logger"
)

// Input is the shared context every agent evaluates.
type Input struct {
	ScanID      string
	StoreName   string
	Pincode     string
	Language    string
	HealthScore int
	Products    []domain.DetectedProduct
}

// Round is one agent's contribution to the debate, in arrival order.
type Round struct {
	Agent          string `json:"agent"`
	Perspective    string `json:"perspective"`
	Model          string `json:"model"`
	Recommendation string `json:"recommendation"`
	Reasoning      string `json:"reasoning"`
	Confidence     int    `json:"confidence"`
	Selected       bool   `json:"selected"`
}

// Outcome is the reconciled result of a debate.
type Outcome struct {
	Rounds              []Round
	FinalRecommendation string
	SelectedAgent       string
	Degraded            bool
}

// Engine fans a scan out to all agents concurrently and reconciles whatever
// comes back.
type Engine struct {
	agents       []Agent
	agentTimeout time.Duration
	log          *logger.Logger
}

// NewEngine creates the debate engine over a fixed panel of agents.
func NewEngine(agents []Agent, agentTimeout time.Duration, log *logger.Logger) *Engine {
	if agentTimeout <= 0 {
		agentTimeout = 30 * time.Second
	}
	return &Engine{agents: agents, agentTimeout: agentTimeout, log: log}
}

// Run evaluates all agents concurrently, each under its own timeout, and
// reconciles the successful rounds. A slow or failing agent never blocks the
// others; its result is simply counted as a failure. Rounds are ordered by
// arrival, which also serves as the reconciliation tie-break.
func (e *Engine) Run(ctx context.Context, in Input) (Outcome, error) {
	type result struct {
		round Round
		err   error
		agent string
	}

	results := make(chan result, len(e.agents))
	for _, agent := range e.agents {
		go func(agent Agent) {
			agentCtx, cancel := context.WithTimeout(ctx, e.agentTimeout)
			defer cancel()
			round, err := agent.Evaluate(agentCtx, in)
			results <- result{round: round, err: err, agent: agent.Name()}
		}(agent)
	}

	rounds := make([]Round, 0, len(e.agents))
	for range e.agents {
		res := <-results
		if res.err != nil {
			e.log.PipelineStage(in.ScanID, "debate:"+res.agent, false, res.err.Error())
			continue
		}
		e.log.PipelineStage(in.ScanID, "debate:"+res.agent, true, "")
		rounds = append(rounds, res.round)
	}

	return Reconcile(rounds)
}

// Reconcile folds successful rounds into one final recommendation: highest
// confidence wins, ties go to the earliest-arriving round. Zero successes is
// a debate failure.
func Reconcile(rounds []Round) (Outcome, error) {
	if len(rounds) == 0 {
		return Outcome{}, apperr.Unavailable("every debate agent failed").
			WithCode(domain.ErrCodeDebateUnavailable)
	}

	best := 0
	for i := 1; i < len(rounds); i++ {
		if rounds[i].Confidence > rounds[best].Confidence {
			best = i
		}
	}
	rounds[best].Selected = true

	return Outcome{
		Rounds:              rounds,
		FinalRecommendation: rounds[best].Recommendation,
		SelectedAgent:       rounds[best].Agent,
		Degraded:            len(rounds) == 1,
	}, nil
}
