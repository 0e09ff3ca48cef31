package challenge

import (
	"context"
	"fmt"

	"github.com/arcadelab/high-score-processor/internal/obslog"
	"github.com/arcadelab/high-score-processor/internal/store"
	"go.uber.org/zap"
)

// ChallengeStore is the slice of the storage backend the resolver needs.
type ChallengeStore interface {
	ScoreByID(ctx context.Context, id int64) (*store.ScoreRecord, error)
	OpenChallengeRoles(ctx context.Context, userUUID, macAddress, gameName string) (store.RoleMatch, error)
	SetChallengerScore(ctx context.Context, challengeID, scoreID int64) error
	SetChallengeeScore(ctx context.Context, challengeID, scoreID int64) error
	ChallengeByID(ctx context.Context, id int64) (*store.Challenge, error)
	SetChallengeWinner(ctx context.Context, challengeID int64, discordID string) error
}

// Notifier broadcasts challenge results. Fire and forget.
type Notifier interface {
	Publish(ctx context.Context, channel, message string) error
}

// Resolver fills challenge score slots as players submit and finalizes the
// winner once both sides are in.
type Resolver struct {
	store    ChallengeStore
	notifier Notifier
	channel  string
}

func NewResolver(st ChallengeStore, n Notifier, channel string) *Resolver {
	return &Resolver{store: st, notifier: n, channel: channel}
}

// ProcessScore checks whether the submitted score closes an open challenge
// for its game. The user may hold an open challenge in each role at once;
// both are handled independently. Returns how many challenges resolved
// with a winner.
func (r *Resolver) ProcessScore(ctx context.Context, userUUID, macAddress string, scoreID int64) (int, error) {
	score, err := r.store.ScoreByID(ctx, scoreID)
	if err != nil {
		return 0, err
	}
	if score == nil {
		obslog.L().Warn("challenge check for unknown score id", zap.Int64("score_id", scoreID))
		return 0, nil
	}

	roles, err := r.store.OpenChallengeRoles(ctx, userUUID, macAddress, score.GameName)
	if err != nil {
		return 0, err
	}
	if !roles.ChallengerRowID.Valid && !roles.ChallengeeRowID.Valid {
		obslog.L().Debug("no open challenge for score",
			zap.Int64("score_id", scoreID),
			zap.String("game", score.GameName),
		)
		return 0, nil
	}

	resolved := 0
	if roles.ChallengerRowID.Valid {
		id := roles.ChallengerRowID.Int64
		obslog.L().Info("user holds the challenger slot",
			zap.Int64("challenge_id", id),
			zap.Int64("score_id", scoreID),
		)
		if err := r.store.SetChallengerScore(ctx, id, scoreID); err != nil {
			return resolved, err
		}
		done, err := r.Evaluate(ctx, id)
		if err != nil {
			return resolved, err
		}
		if done {
			resolved++
		}
	}

	if roles.ChallengeeRowID.Valid {
		id := roles.ChallengeeRowID.Int64
		obslog.L().Info("user holds the challengee slot",
			zap.Int64("challenge_id", id),
			zap.Int64("score_id", scoreID),
		)
		if err := r.store.SetChallengeeScore(ctx, id, scoreID); err != nil {
			return resolved, err
		}
		done, err := r.Evaluate(ctx, id)
		if err != nil {
			return resolved, err
		}
		if done {
			resolved++
		}
	}

	return resolved, nil
}

// Evaluate finalizes the challenge when both score slots are filled. A
// challenge with an empty slot is simply not resolvable yet. A full tie
// (same score, same duration) determines no winner and leaves the
// challenge open for manual resolution.
func (r *Resolver) Evaluate(ctx context.Context, challengeID int64) (bool, error) {
	ch, err := r.store.ChallengeByID(ctx, challengeID)
	if err != nil {
		return false, err
	}
	if ch == nil {
		obslog.L().Warn("challenge disappeared before evaluation", zap.Int64("challenge_id", challengeID))
		return false, nil
	}
	if ch.WinnerDiscordID.Valid {
		return false, nil
	}
	if !ch.ChallengerScoreID.Valid || !ch.ChallengeeScoreID.Valid {
		return false, nil
	}

	challenger, err := r.store.ScoreByID(ctx, ch.ChallengerScoreID.Int64)
	if err != nil {
		return false, err
	}
	challengee, err := r.store.ScoreByID(ctx, ch.ChallengeeScoreID.Int64)
	if err != nil {
		return false, err
	}
	if challenger == nil || challengee == nil {
		return false, fmt.Errorf("challenge %d references missing score rows", challengeID)
	}

	winner, loser, ok := Outcome(ch, challenger, challengee)
	if !ok {
		obslog.L().Warn("challenge is a full tie, leaving unresolved",
			zap.Int64("challenge_id", challengeID),
			zap.Int64("score", challenger.Score),
			zap.Int64("duration", challenger.Duration),
		)
		return false, nil
	}

	if err := r.finalize(ctx, ch, winner, loser); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Resolver) finalize(ctx context.Context, ch *store.Challenge, winner, loser Participant) error {
	if err := r.store.SetChallengeWinner(ctx, ch.ID, winner.DiscordUserID); err != nil {
		return err
	}
	obslog.L().Info("challenge resolved",
		zap.Int64("challenge_id", ch.ID),
		zap.String("game", ch.GameName),
		zap.String("winner", winner.DiscordUserID),
		zap.String("loser", loser.DiscordUserID),
	)

	msg := fmt.Sprintf("<@%s> won the challenge against <@%s> to a game of: %s with %dpts to %dpts",
		winner.DiscordUserID, loser.DiscordUserID, ch.GameName, winner.Score, loser.Score)
	if err := r.notifier.Publish(ctx, r.channel, msg); err != nil {
		// Announcements carry no delivery guarantee.
		obslog.L().Error("publish challenge result failed", zap.Error(err))
	}
	return nil
}
