package achievement

import (
	"context"

	"github.com/arcadelab/high-score-processor/internal/obslog"
	"go.uber.org/zap"
)

// AroundTheWorld is earned by recording at least one score in every
// cataloged game. The event id matches the ledger's fixed id for it.
const (
	AroundTheWorldCode    = "AROUND_THE_WORLD"
	AroundTheWorldEventID = 17
)

// CompletionStore answers how many games exist versus how many the player
// has touched.
type CompletionStore interface {
	PlayedGameCounts(ctx context.Context, userUUID, macAddress string) (total, played int64, err error)
}

// Recorder is the achievement ledger collaborator. It owns idempotency:
// Evaluator re-fires on every qualifying check.
type Recorder interface {
	RecordAchievement(ctx context.Context, userUUID, macAddress string, eventID int64, code string) error
}

// Evaluator decides whether a player has completed the around-the-world
// meta-achievement and reports it to the ledger.
type Evaluator struct {
	store    CompletionStore
	recorder Recorder
}

func NewEvaluator(st CompletionStore, rec Recorder) *Evaluator {
	return &Evaluator{store: st, recorder: rec}
}

// Completed reports whether the player has a score in every cataloged game.
func (e *Evaluator) Completed(ctx context.Context, userUUID, macAddress string) (bool, error) {
	total, played, err := e.store.PlayedGameCounts(ctx, userUUID, macAddress)
	if err != nil {
		return false, err
	}
	obslog.L().Debug("around-the-world completion check",
		zap.String("user_uuid", userUUID),
		zap.Int64("unique_game_count", total),
		zap.Int64("unique_games_played", played),
	)
	return total == played, nil
}

// Check records the achievement when the player has now played everything.
// It runs after every new score insert, so a completed player is reported
// again on later inserts; the recorder deduplicates.
func (e *Evaluator) Check(ctx context.Context, userUUID, macAddress string) error {
	done, err := e.Completed(ctx, userUUID, macAddress)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}
	obslog.L().Info("around the world completed",
		zap.String("user_uuid", userUUID),
		zap.String("mac_address", macAddress),
	)
	return e.recorder.RecordAchievement(ctx, userUUID, macAddress, AroundTheWorldEventID, AroundTheWorldCode)
}
