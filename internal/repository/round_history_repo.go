package repository

import (
	"context"
	"encoding/json"

	"cups_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoundHistoryRepository struct {
	db *pgxpool.Pool
}

func NewRoundHistoryRepository(db *pgxpool.Pool) *RoundHistoryRepository {
	return &RoundHistoryRepository{db: db}
}

// Record stores a finished round
func (r *RoundHistoryRepository) Record(ctx context.Context, rec *domain.RoundRecord) error {
	detailsJSON, err := json.Marshal(rec.Details)
	if err != nil || rec.Details == nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO round_history
			(id, session_key, rgs_session, bet, currency, payout_multiplier, result,
			 balance_after, chosen_cup, revealed_cup, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		rec.ID,
		rec.SessionKey,
		rec.RGSSession,
		rec.Bet,
		rec.Currency,
		rec.PayoutMultiplier,
		rec.Result,
		rec.BalanceAfter,
		rec.ChosenCup,
		rec.RevealedCup,
		detailsJSON,
	).Scan(&rec.CreatedAt)
}

// ListBySession returns the latest rounds of a session, newest first
func (r *RoundHistoryRepository) ListBySession(ctx context.Context, sessionKey string, limit int) ([]*domain.RoundRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, session_key, rgs_session, bet, currency, payout_multiplier, result,
				balance_after, chosen_cup, revealed_cup, details, created_at
		 FROM round_history
		 WHERE session_key = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		sessionKey, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRounds(rows)
}

// RoundStats - aggregate of a session's rounds
type RoundStats struct {
	Rounds    int `json:"rounds"`
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	Recovered int `json:"recovered"`
}

func (r *RoundHistoryRepository) StatsBySession(ctx context.Context, sessionKey string) (*RoundStats, error) {
	stats := &RoundStats{}
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE result = 'win'),
			COUNT(*) FILTER (WHERE result = 'loss'),
			COUNT(*) FILTER (WHERE result = 'recovered')
		 FROM round_history
		 WHERE session_key = $1`,
		sessionKey,
	).Scan(&stats.Rounds, &stats.Wins, &stats.Losses, &stats.Recovered)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanRounds(rows pgx.Rows) ([]*domain.RoundRecord, error) {
	var result []*domain.RoundRecord

	for rows.Next() {
		var (
			rec         domain.RoundRecord
			detailsJSON []byte
		)

		if err := rows.Scan(
			&rec.ID, &rec.SessionKey, &rec.RGSSession, &rec.Bet, &rec.Currency,
			&rec.PayoutMultiplier, &rec.Result, &rec.BalanceAfter,
			&rec.ChosenCup, &rec.RevealedCup, &detailsJSON, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &rec.Details)
		}

		result = append(result, &rec)
	}

	return result, rows.Err()
}
