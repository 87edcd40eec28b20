package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"github.com/eskrenkovic/migrate-go"
	"github.com/eskrenkovic/tql"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

type gameRecordRow struct {
	SessionID        string         `db:"session_id"`
	WhiteID          string         `db:"white_id"`
	WhiteName        string         `db:"white_name"`
	BlackID          string         `db:"black_id"`
	BlackName        string         `db:"black_name"`
	BaseMinutes      int            `db:"base_minutes"`
	IncrementSeconds int            `db:"increment_seconds"`
	Reason           string         `db:"reason"`
	Loser            sql.NullString `db:"loser"`
	Moves            int            `db:"moves"`
	WhiteTimeMs      int64          `db:"white_time_ms"`
	BlackTimeMs      int64          `db:"black_time_ms"`
	StartedAt        time.Time      `db:"started_at"`
	EndedAt          time.Time      `db:"ended_at"`
}

func (r gameRecordRow) record() domain.GameRecord {
	record := domain.GameRecord{
		SessionID: r.SessionID,
		WhiteID:   domain.ParticipantID(r.WhiteID),
		WhiteName: r.WhiteName,
		BlackID:   domain.ParticipantID(r.BlackID),
		BlackName: r.BlackName,
		TimeControl: domain.TimeControl{
			BaseMinutes:      r.BaseMinutes,
			IncrementSeconds: r.IncrementSeconds,
		},
		Reason:      domain.EndReason(r.Reason),
		Moves:       r.Moves,
		WhiteTimeMs: r.WhiteTimeMs,
		BlackTimeMs: r.BlackTimeMs,
		StartedAt:   r.StartedAt,
		EndedAt:     r.EndedAt,
	}
	if r.Loser.Valid {
		loser := domain.Color(r.Loser.String)
		record.Loser = &loser
	}
	return record
}

// PostgresStore archives finished games in postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db}
}

// OpenPostgres connects to databaseURL and applies the migrations found
// in migrationsPath.
func OpenPostgres(ctx context.Context, databaseURL, migrationsPath string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	if err := migrate.Run(ctx, db, migrationsPath); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Record(ctx context.Context, record domain.GameRecord) error {
	var loser sql.NullString
	if record.Loser != nil {
		loser = sql.NullString{String: string(*record.Loser), Valid: true}
	}

	err := core.Tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			INSERT INTO
				game_record (
					session_id, white_id, white_name, black_id, black_name,
					base_minutes, increment_seconds, reason, loser, moves,
					white_time_ms, black_time_ms, started_at, ended_at
				)
			VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (session_id) DO NOTHING;`
		_, err := tql.Exec(
			ctx,
			tx,
			stmt,
			record.SessionID,
			string(record.WhiteID),
			record.WhiteName,
			string(record.BlackID),
			record.BlackName,
			record.TimeControl.BaseMinutes,
			record.TimeControl.IncrementSeconds,
			string(record.Reason),
			loser,
			record.Moves,
			record.WhiteTimeMs,
			record.BlackTimeMs,
			record.StartedAt.UTC(),
			record.EndedAt.UTC(),
		)
		return err
	}, core.WithIsolationLevel(sql.LevelReadCommitted))

	return errors.Wrapf(err, "record game %s", record.SessionID)
}

func (s *PostgresStore) FinishedGames(ctx context.Context, id domain.ParticipantID, limit int) ([]domain.GameRecord, error) {
	const query = `
		SELECT
			*
		FROM
			game_record
		WHERE
			white_id = $1 OR black_id = $1
		ORDER BY
			ended_at DESC
		LIMIT $2;`
	var rows []gameRecordRow
	err := core.Tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		rows, err = tql.Query[gameRecordRow](ctx, tx, query, string(id), limit)
		return err
	}, core.ReadOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "finished games of %s", id)
	}

	return core.Map(rows, gameRecordRow.record), nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
