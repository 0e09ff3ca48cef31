package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Store wraps the Postgres connection pool. All access goes through
// parameterized statements; callers never see SQL.
type Store struct {
	db *sql.DB
}

func Open(databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ScoreRecord is one persisted play of a game on a machine.
type ScoreRecord struct {
	ID         int64
	GameID     int64
	GameName   string
	UserUUID   string
	MacAddress string
	Score      int64
	Duration   int64
}

// Challenge is a head-to-head row. Score-id slots and the winner stay NULL
// until each side submits and the challenge resolves.
type Challenge struct {
	ID                  int64
	GameName            string
	ChallengerDiscordID string
	ChallengeeDiscordID string
	ChallengerScoreID   sql.NullInt64
	ChallengeeScoreID   sql.NullInt64
	WinnerDiscordID     sql.NullString
}

// RoleMatch carries the open challenge row ids a (user, device, game) triple
// currently occupies, one per role. Either or both may be unset.
type RoleMatch struct {
	ChallengerRowID sql.NullInt64
	ChallengeeRowID sql.NullInt64
}

// ScoresFor returns every score this user has recorded for the game on the
// given machine.
func (s *Store) ScoresFor(ctx context.Context, userUUID, macAddress, gameName string) ([]ScoreRecord, error) {
	const q = `
		SELECT id, game_id, game_name, user_uuid, mac_address, score, duration
		FROM game_scores
		WHERE user_uuid = $1 AND mac_address = $2 AND game_name = $3
		ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, userUUID, macAddress, gameName)
	if err != nil {
		return nil, fmt.Errorf("scores for %s/%s: %w", userUUID, gameName, err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.ID, &r.GameID, &r.GameName, &r.UserUUID, &r.MacAddress, &r.Score, &r.Duration); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ScoreByID returns the score row, or nil when no such row exists.
func (s *Store) ScoreByID(ctx context.Context, id int64) (*ScoreRecord, error) {
	const q = `
		SELECT id, game_id, game_name, user_uuid, mac_address, score, duration
		FROM game_scores
		WHERE id = $1`
	var r ScoreRecord
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&r.ID, &r.GameID, &r.GameName, &r.UserUUID, &r.MacAddress, &r.Score, &r.Duration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("score by id %d: %w", id, err)
	}
	return &r, nil
}

// InsertScore persists a new score record and returns its id.
func (s *Store) InsertScore(ctx context.Context, gameID int64, userUUID, macAddress, gameName string, score, duration int64) (int64, error) {
	const q = `
		INSERT INTO game_scores (game_id, user_uuid, mac_address, game_name, score, duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := s.db.QueryRowContext(ctx, q, gameID, userUUID, macAddress, gameName, score, duration).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert score %s/%s: %w", userUUID, gameName, err)
	}
	return id, nil
}

// GameIDByName resolves a game name against the games table.
func (s *Store) GameIDByName(ctx context.Context, name string) (int64, bool, error) {
	const q = `SELECT id FROM games WHERE name = $1`
	var id int64
	err := s.db.QueryRowContext(ctx, q, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("game id for %q: %w", name, err)
	}
	return id, true, nil
}

// PlayedGameCounts returns the catalog size alongside the number of distinct
// games the user has at least one score for on the given machine.
func (s *Store) PlayedGameCounts(ctx context.Context, userUUID, macAddress string) (total, played int64, err error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM games) AS unique_game_count,
			(SELECT COUNT(DISTINCT game_id) FROM game_scores
				WHERE user_uuid = $1 AND mac_address = $2) AS unique_games_played`
	err = s.db.QueryRowContext(ctx, q, userUUID, macAddress).Scan(&total, &played)
	if err != nil {
		return 0, 0, fmt.Errorf("played game counts for %s: %w", userUUID, err)
	}
	return total, played, nil
}

// OpenChallengeRoles finds, per role, the oldest unresolved challenge for
// this game where the participant slot matches and its score is still
// unsubmitted. Both roles are checked independently.
func (s *Store) OpenChallengeRoles(ctx context.Context, userUUID, macAddress, gameName string) (RoleMatch, error) {
	const q = `
		SELECT
			(SELECT c.id FROM challenges c
				WHERE c.game_name = $1
					AND c.challenger_uuid = $2 AND c.challenger_mac_address = $3
					AND c.challenger_score_id IS NULL AND c.winner_discord_id IS NULL
				ORDER BY c.id LIMIT 1) AS challenger_row_id,
			(SELECT c.id FROM challenges c
				WHERE c.game_name = $1
					AND c.challengee_uuid = $2 AND c.challengee_mac_address = $3
					AND c.challengee_score_id IS NULL AND c.winner_discord_id IS NULL
				ORDER BY c.id LIMIT 1) AS challengee_row_id`
	var m RoleMatch
	err := s.db.QueryRowContext(ctx, q, gameName, userUUID, macAddress).
		Scan(&m.ChallengerRowID, &m.ChallengeeRowID)
	if err != nil {
		return RoleMatch{}, fmt.Errorf("open challenge roles for %s/%s: %w", userUUID, gameName, err)
	}
	return m, nil
}

func (s *Store) SetChallengerScore(ctx context.Context, challengeID, scoreID int64) error {
	const q = `UPDATE challenges SET challenger_score_id = $1 WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, q, scoreID, challengeID); err != nil {
		return fmt.Errorf("set challenger score on %d: %w", challengeID, err)
	}
	return nil
}

func (s *Store) SetChallengeeScore(ctx context.Context, challengeID, scoreID int64) error {
	const q = `UPDATE challenges SET challengee_score_id = $1 WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, q, scoreID, challengeID); err != nil {
		return fmt.Errorf("set challengee score on %d: %w", challengeID, err)
	}
	return nil
}

// ChallengeByID returns the challenge row, or nil when no such row exists.
func (s *Store) ChallengeByID(ctx context.Context, id int64) (*Challenge, error) {
	const q = `
		SELECT id, game_name, challenger_discord_id, challengee_discord_id,
			challenger_score_id, challengee_score_id, winner_discord_id
		FROM challenges
		WHERE id = $1`
	var c Challenge
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.GameName, &c.ChallengerDiscordID, &c.ChallengeeDiscordID,
		&c.ChallengerScoreID, &c.ChallengeeScoreID, &c.WinnerDiscordID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("challenge by id %d: %w", id, err)
	}
	return &c, nil
}

// SetChallengeWinner marks the challenge resolved. The winner is written at
// most once; a second write is a no-op because of the NULL guard.
func (s *Store) SetChallengeWinner(ctx context.Context, challengeID int64, discordID string) error {
	const q = `UPDATE challenges SET winner_discord_id = $1 WHERE id = $2 AND winner_discord_id IS NULL`
	if _, err := s.db.ExecContext(ctx, q, discordID, challengeID); err != nil {
		return fmt.Errorf("set winner on %d: %w", challengeID, err)
	}
	return nil
}

// RecordAchievement appends one achievement event to the player ledger.
// Replays of the same achievement for the same player are absorbed by the
// conflict clause.
func (s *Store) RecordAchievement(ctx context.Context, userUUID, macAddress string, eventID int64, code string) error {
	const q = `
		INSERT INTO player_events (user_uuid, mac_address, event_id, achievement_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_uuid, mac_address, achievement_code) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, userUUID, macAddress, eventID, code); err != nil {
		return fmt.Errorf("record achievement %s for %s: %w", code, userUUID, err)
	}
	return nil
}
