package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/arcadelab/high-score-processor/internal/achievement"
	"github.com/arcadelab/high-score-processor/internal/challenge"
	"github.com/arcadelab/high-score-processor/internal/metrics"
	"github.com/arcadelab/high-score-processor/internal/obslog"
	"github.com/arcadelab/high-score-processor/internal/scores"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types the stream delivers.
const (
	EventHighScore      = "high-score"
	EventAroundTheWorld = "around-the-world"
	EventChallengeCheck = "challenge-check"
)

// ErrMalformedEvent marks a payload that cannot be dispatched: bad JSON, a
// missing required field, or an event type nobody handles.
var ErrMalformedEvent = errors.New("malformed event")

// InboundEvent is one message off the score stream.
type InboundEvent struct {
	UserUUID   string            `json:"user_uuid"`
	MacAddress string            `json:"mac_address"`
	Event      string            `json:"event"`
	HighScores []scores.RawScore `json:"high_scores,omitempty"`
	ScoreID    *int64            `json:"score_id,omitempty"`
}

// Processor parses inbound events and routes them to the score, achievement
// and challenge services. Failures never propagate past Handle: a bad event
// is logged and dropped, with no retry.
type Processor struct {
	scores       *scores.Service
	achievements *achievement.Evaluator
	challenges   *challenge.Resolver
	metrics      *metrics.Metrics
}

func New(sc *scores.Service, ach *achievement.Evaluator, ch *challenge.Resolver, m *metrics.Metrics) *Processor {
	return &Processor{scores: sc, achievements: ach, challenges: ch, metrics: m}
}

// Handle consumes one raw message body.
func (p *Processor) Handle(ctx context.Context, payload string) {
	ev, err := parse(payload)
	if err != nil {
		obslog.L().Warn("dropping event", zap.Error(err))
		p.metrics.EventsDropped.Inc()
		return
	}

	obslog.L().Info("event received",
		zap.String("event", ev.Event),
		zap.String("user_uuid", ev.UserUUID),
		zap.String("mac_address", ev.MacAddress),
	)

	switch ev.Event {
	case EventHighScore:
		p.handleHighScore(ctx, ev)
	case EventAroundTheWorld:
		p.handleAroundTheWorld(ctx, ev)
	case EventChallengeCheck:
		p.handleChallengeCheck(ctx, ev)
	}

	p.metrics.MarkEvent(ev.Event)
}

func parse(payload string) (*InboundEvent, error) {
	var ev InboundEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if _, err := uuid.Parse(strings.TrimSpace(ev.UserUUID)); err != nil {
		return nil, fmt.Errorf("%w: bad user_uuid %q", ErrMalformedEvent, ev.UserUUID)
	}
	if strings.TrimSpace(ev.MacAddress) == "" {
		return nil, fmt.Errorf("%w: mac_address missing", ErrMalformedEvent)
	}
	switch ev.Event {
	case EventHighScore:
		if len(ev.HighScores) == 0 {
			return nil, fmt.Errorf("%w: high_scores missing", ErrMalformedEvent)
		}
	case EventAroundTheWorld:
	case EventChallengeCheck:
		if ev.ScoreID == nil {
			return nil, fmt.Errorf("%w: score_id missing", ErrMalformedEvent)
		}
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformedEvent, ev.Event)
	}
	return &ev, nil
}

func (p *Processor) handleHighScore(ctx context.Context, ev *InboundEvent) {
	res, err := p.scores.ProcessHighScores(ctx, ev.UserUUID, ev.MacAddress, ev.HighScores)
	if err != nil {
		obslog.L().Error("high-score batch failed", zap.Error(err))
	}
	p.metrics.ScoresInserted.Add(float64(len(res.InsertedIDs)))
	p.metrics.ScoresSkipped.Add(float64(res.Duplicates + res.UnknownGames))
	obslog.L().Info("high-score batch done",
		zap.Int("inserted", len(res.InsertedIDs)),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("unknown_games", res.UnknownGames),
	)
}

func (p *Processor) handleAroundTheWorld(ctx context.Context, ev *InboundEvent) {
	if err := p.achievements.Check(ctx, ev.UserUUID, ev.MacAddress); err != nil {
		obslog.L().Error("around-the-world check failed", zap.Error(err))
	}
}

func (p *Processor) handleChallengeCheck(ctx context.Context, ev *InboundEvent) {
	resolved, err := p.challenges.ProcessScore(ctx, ev.UserUUID, ev.MacAddress, *ev.ScoreID)
	if err != nil {
		obslog.L().Error("challenge check failed",
			zap.Int64("score_id", *ev.ScoreID),
			zap.Error(err),
		)
	}
	p.metrics.ChallengesWon.Add(float64(resolved))
}
