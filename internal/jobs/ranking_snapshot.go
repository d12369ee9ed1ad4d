package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"dugsiga/staff/internal/config"
	"dugsiga/staff/internal/db"
	"dugsiga/staff/internal/scoring"
)

// StartRankingSnapshotJob periodically recomputes the leaderboard and
// replaces the stored ranking snapshot rows that feed the admin
// dashboard. Scores themselves are never read from these rows; they are
// always recomputed from the raw records.
func StartRankingSnapshotJob(ctx context.Context, cfg config.Config, store *db.Store) {
	if !cfg.RankingSnapshotEnabled {
		return
	}
	interval := cfg.RankingSnapshotEvery
	if interval <= 0 {
		interval = time.Hour
	}
	timeout := cfg.RankingSnapshotTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				count, err := SnapshotRankings(tickCtx, store, time.Now().UTC())
				cancel()
				if err != nil {
					log.Printf("ranking snapshot job error: %v", err)
					continue
				}
				log.Printf("ranking snapshot job stored %d rows", count)
			}
		}
	}()
}

// SnapshotRankings computes the current leaderboard and replaces the
// rankings table contents with it, all in one transaction.
func SnapshotRankings(ctx context.Context, store *db.Store, now time.Time) (int, error) {
	teachers, marks, activities, err := store.ScoringInputs(ctx)
	if err != nil {
		return 0, err
	}
	entries := scoring.Leaderboard(teachers, marks, activities)

	week := weekLabel(now)
	month := now.Format("2006-01")
	generatedAt := pgtype.Timestamptz{Time: now, Valid: true}

	err = store.WithTx(ctx, func(q *db.Queries) error {
		if err := q.DeleteRankings(ctx); err != nil {
			return err
		}
		for _, entry := range entries {
			code := codeForTeacher(teachers, entry.TeacherID)
			if err := q.InsertRanking(ctx, db.InsertRankingParams{
				ID:              pgtype.UUID{Bytes: uuid.New(), Valid: true},
				TeacherID:       pgtype.UUID{Bytes: entry.TeacherID, Valid: true},
				TeacherCode:     code,
				TeacherName:     entry.TeacherName,
				Week:            pgtype.Text{String: week, Valid: true},
				Month:           pgtype.Text{String: month, Valid: true},
				AttendanceScore: int32(entry.AttendanceScore),
				TaskScore:       int32(entry.TaskScore),
				TotalScore:      int32(entry.TotalScore),
				Rank:            int32(entry.Rank),
				GeneratedAt:     generatedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func codeForTeacher(teachers []scoring.Teacher, id uuid.UUID) string {
	for _, t := range teachers {
		if t.ID == id {
			if t.Code != "" {
				return t.Code
			}
			break
		}
	}
	return id.String()
}

func weekLabel(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
