package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adhamsabryco-maker/khamin-Takhmina/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

// LoadPlayers reads the full player table; called once at startup to warm
// the in-memory directory.
func (pgr *PostgresRepo) LoadPlayers(ctx context.Context) ([]domain.Player, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT serial, name, avatar, xp, wins, reports, ban_until, ban_count, is_permanent_ban, reported_by, email, is_admin
		FROM players`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		var reportedBy []byte
		var email *string
		if err := rows.Scan(&p.Serial, &p.Name, &p.Avatar, &p.XP, &p.Wins, &p.Reports,
			&p.BanUntil, &p.BanCount, &p.IsPermanentBan, &reportedBy, &email, &p.IsAdmin); err != nil {
			return nil, wrapDBError(err)
		}
		if email != nil {
			p.Email = *email
		}
		if len(reportedBy) > 0 {
			// A corrupt column should not poison the whole load.
			_ = json.Unmarshal(reportedBy, &p.ReportedBy)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err)
	}
	return players, nil
}

// UpsertPlayers writes the full record set in one transaction. The caller
// treats failures as best-effort: the in-memory state stays authoritative.
func (pgr *PostgresRepo) UpsertPlayers(ctx context.Context, players []domain.Player) error {
	tx, err := pgr.pool.Begin(ctx)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback(ctx)

	for _, p := range players {
		reportedBy, err := json.Marshal(p.ReportedBy)
		if err != nil {
			return err
		}
		var email *string
		if p.Email != "" {
			email = &p.Email
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO players (serial, name, avatar, xp, wins, reports, ban_until, ban_count, is_permanent_ban, reported_by, email, is_admin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (serial) DO UPDATE SET
				name = EXCLUDED.name,
				avatar = EXCLUDED.avatar,
				xp = EXCLUDED.xp,
				wins = EXCLUDED.wins,
				reports = EXCLUDED.reports,
				ban_until = EXCLUDED.ban_until,
				ban_count = EXCLUDED.ban_count,
				is_permanent_ban = EXCLUDED.is_permanent_ban,
				reported_by = EXCLUDED.reported_by,
				email = EXCLUDED.email,
				is_admin = EXCLUDED.is_admin`,
			p.Serial, p.Name, p.Avatar, p.XP, p.Wins, p.Reports,
			p.BanUntil, p.BanCount, p.IsPermanentBan, reportedBy, email, p.IsAdmin)
		if err != nil {
			return wrapDBError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (pgr *PostgresRepo) DeletePlayer(ctx context.Context, serial string) error {
	tag, err := pgr.pool.Exec(ctx, "DELETE FROM players WHERE serial = $1", serial)
	if err != nil {
		return wrapDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (pgr *PostgresRepo) InsertReport(ctx context.Context, report domain.Report) error {
	_, err := pgr.pool.Exec(ctx, `
		INSERT INTO reports (id, timestamp, reporter_serial, reporter_name, reported_serial, reported_name, reason, room_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.ID, report.Timestamp, report.ReporterSerial, report.ReporterName,
		report.ReportedSerial, report.ReportedName, report.Reason, report.RoomID)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (pgr *PostgresRepo) ListReports(ctx context.Context) ([]domain.Report, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT id, timestamp, reporter_serial, reporter_name, reported_serial, reported_name, reason, room_id
		FROM reports ORDER BY timestamp DESC`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.ReporterSerial, &r.ReporterName,
			&r.ReportedSerial, &r.ReportedName, &r.Reason, &r.RoomID); err != nil {
			return nil, wrapDBError(err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err)
	}
	return reports, nil
}

func wrapDBError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrPlayerNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
}
