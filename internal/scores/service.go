package scores

import (
	"context"
	"errors"

	"github.com/arcadelab/high-score-processor/internal/catalog"
	"github.com/arcadelab/high-score-processor/internal/obslog"
	"github.com/arcadelab/high-score-processor/internal/store"
	"go.uber.org/zap"
)

// ErrUnknownGame marks a score whose game is in neither the catalog nor the
// games table. The record is skipped, never written.
var ErrUnknownGame = errors.New("unknown game")

// ScoreStore is the slice of the storage backend the score path needs.
type ScoreStore interface {
	ScoresFor(ctx context.Context, userUUID, macAddress, gameName string) ([]store.ScoreRecord, error)
	InsertScore(ctx context.Context, gameID int64, userUUID, macAddress, gameName string, score, duration int64) (int64, error)
	GameIDByName(ctx context.Context, name string) (int64, bool, error)
}

// AchievementChecker re-evaluates meta-achievement completion after a new
// score lands.
type AchievementChecker interface {
	Check(ctx context.Context, userUUID, macAddress string) error
}

// Service normalizes and persists high-score batches.
type Service struct {
	store        ScoreStore
	catalog      *catalog.Catalog
	achievements AchievementChecker
}

func NewService(st ScoreStore, cat *catalog.Catalog, ach AchievementChecker) *Service {
	return &Service{store: st, catalog: cat, achievements: ach}
}

// BatchResult summarizes one processed high-score batch.
type BatchResult struct {
	InsertedIDs  []int64
	Duplicates   int
	UnknownGames int
}

// ProcessHighScores normalizes a batch, orders it by game, and persists
// every (score, duration) pair not already recorded for the user and
// machine. The existing-score list is fetched once per game run. Each new
// insert triggers an achievement re-check.
func (s *Service) ProcessHighScores(ctx context.Context, userUUID, macAddress string, raws []RawScore) (BatchResult, error) {
	var res BatchResult
	if len(raws) == 0 {
		return res, nil
	}

	records := Normalize(s.catalog, raws)
	Order(records)

	for _, group := range groupByGame(records) {
		game := group[0].Game

		gameID, err := s.resolveGameID(ctx, game)
		if errors.Is(err, ErrUnknownGame) {
			obslog.L().Warn("skipping scores for unknown game",
				zap.String("game", game),
				zap.Int("count", len(group)),
			)
			res.UnknownGames += len(group)
			continue
		}
		if err != nil {
			return res, err
		}

		existing, err := s.store.ScoresFor(ctx, userUUID, macAddress, game)
		if err != nil {
			return res, err
		}

		for _, rec := range group {
			if containsPair(existing, rec.Score, rec.Duration) {
				obslog.L().Debug("score already recorded",
					zap.String("game", game),
					zap.Int64("score", rec.Score),
					zap.Int64("duration", rec.Duration),
				)
				res.Duplicates++
				continue
			}

			id, err := s.store.InsertScore(ctx, gameID, userUUID, macAddress, game, rec.Score, rec.Duration)
			if err != nil {
				return res, err
			}
			res.InsertedIDs = append(res.InsertedIDs, id)
			// Keep the cached snapshot honest for repeats inside the batch.
			existing = append(existing, store.ScoreRecord{
				ID: id, GameID: gameID, GameName: game,
				UserUUID: userUUID, MacAddress: macAddress,
				Score: rec.Score, Duration: rec.Duration,
			})
			obslog.L().Info("score recorded",
				zap.Int64("score_id", id),
				zap.String("game", game),
				zap.String("user_uuid", userUUID),
				zap.Int64("score", rec.Score),
				zap.Int64("duration", rec.Duration),
			)

			if s.achievements != nil {
				if err := s.achievements.Check(ctx, userUUID, macAddress); err != nil {
					obslog.L().Error("achievement check failed", zap.Error(err))
				}
			}
		}
	}

	return res, nil
}

// resolveGameID consults the catalog first and the games table as a
// fallback for games added after the binary was built.
func (s *Service) resolveGameID(ctx context.Context, game string) (int64, error) {
	if id, ok := s.catalog.GameID(game); ok {
		return id, nil
	}
	id, ok, err := s.store.GameIDByName(ctx, game)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnknownGame
	}
	return id, nil
}

func containsPair(existing []store.ScoreRecord, score, duration int64) bool {
	for _, e := range existing {
		if e.Score == score && e.Duration == duration {
			return true
		}
	}
	return false
}
