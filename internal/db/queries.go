package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Teachers

const getTeacherByUserID = `
SELECT t.id, t.user_id, t.teacher_code, t.status, u.full_name, u.email, t.created_at
FROM teachers t
JOIN users u ON u.id = t.user_id
WHERE t.user_id = $1
`

func (q *Queries) GetTeacherByUserID(ctx context.Context, userID pgtype.UUID) (Teacher, error) {
	row := q.db.QueryRow(ctx, getTeacherByUserID, userID)
	var t Teacher
	err := row.Scan(&t.ID, &t.UserID, &t.TeacherCode, &t.Status, &t.FullName, &t.Email, &t.CreatedAt)
	return t, err
}

const listTeachers = `
SELECT t.id, t.user_id, t.teacher_code, t.status, u.full_name, u.email, t.created_at
FROM teachers t
LEFT JOIN users u ON u.id = t.user_id
ORDER BY t.created_at, t.id
`

func (q *Queries) ListTeachers(ctx context.Context) ([]Teacher, error) {
	rows, err := q.db.Query(ctx, listTeachers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Teacher
	for rows.Next() {
		var t Teacher
		if err := rows.Scan(&t.ID, &t.UserID, &t.TeacherCode, &t.Status, &t.FullName, &t.Email, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Attendance

const createAttendance = `
INSERT INTO attendance (id, teacher_id, attendance_date, marked_at, tier, points)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, teacher_id, attendance_date, marked_at, tier, points
`

type CreateAttendanceParams struct {
	ID             pgtype.UUID
	TeacherID      pgtype.UUID
	AttendanceDate pgtype.Date
	MarkedAt       pgtype.Timestamptz
	Tier           AttendanceTier
	Points         int32
}

func (q *Queries) CreateAttendance(ctx context.Context, arg CreateAttendanceParams) (Attendance, error) {
	row := q.db.QueryRow(ctx, createAttendance,
		arg.ID, arg.TeacherID, arg.AttendanceDate, arg.MarkedAt, arg.Tier, arg.Points)
	var a Attendance
	err := row.Scan(&a.ID, &a.TeacherID, &a.AttendanceDate, &a.MarkedAt, &a.Tier, &a.Points)
	return a, err
}

const getAttendanceByTeacherAndDate = `
SELECT id, teacher_id, attendance_date, marked_at, tier, points
FROM attendance
WHERE teacher_id = $1 AND attendance_date = $2
`

type GetAttendanceByTeacherAndDateParams struct {
	TeacherID      pgtype.UUID
	AttendanceDate pgtype.Date
}

func (q *Queries) GetAttendanceByTeacherAndDate(ctx context.Context, arg GetAttendanceByTeacherAndDateParams) (Attendance, error) {
	row := q.db.QueryRow(ctx, getAttendanceByTeacherAndDate, arg.TeacherID, arg.AttendanceDate)
	var a Attendance
	err := row.Scan(&a.ID, &a.TeacherID, &a.AttendanceDate, &a.MarkedAt, &a.Tier, &a.Points)
	return a, err
}

const listAttendance = `
SELECT id, teacher_id, attendance_date, marked_at, tier, points
FROM attendance
ORDER BY marked_at
`

func (q *Queries) ListAttendance(ctx context.Context) ([]Attendance, error) {
	rows, err := q.db.Query(ctx, listAttendance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendance(rows)
}

const listAttendanceByTeacher = `
SELECT id, teacher_id, attendance_date, marked_at, tier, points
FROM attendance
WHERE teacher_id = $1
ORDER BY attendance_date DESC
`

func (q *Queries) ListAttendanceByTeacher(ctx context.Context, teacherID pgtype.UUID) ([]Attendance, error) {
	rows, err := q.db.Query(ctx, listAttendanceByTeacher, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendance(rows)
}

func scanAttendance(rows pgx.Rows) ([]Attendance, error) {
	var items []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.TeacherID, &a.AttendanceDate, &a.MarkedAt, &a.Tier, &a.Points); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const countAttendanceByTier = `
SELECT tier, COUNT(*) AS total
FROM attendance
GROUP BY tier
`

type CountAttendanceByTierRow struct {
	Tier  AttendanceTier
	Total int64
}

func (q *Queries) CountAttendanceByTier(ctx context.Context) ([]CountAttendanceByTierRow, error) {
	rows, err := q.db.Query(ctx, countAttendanceByTier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTierCounts(rows)
}

const countAttendanceByTierForTeacher = `
SELECT tier, COUNT(*) AS total
FROM attendance
WHERE teacher_id = $1
GROUP BY tier
`

func (q *Queries) CountAttendanceByTierForTeacher(ctx context.Context, teacherID pgtype.UUID) ([]CountAttendanceByTierRow, error) {
	rows, err := q.db.Query(ctx, countAttendanceByTierForTeacher, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTierCounts(rows)
}

func scanTierCounts(rows pgx.Rows) ([]CountAttendanceByTierRow, error) {
	var items []CountAttendanceByTierRow
	for rows.Next() {
		var row CountAttendanceByTierRow
		if err := rows.Scan(&row.Tier, &row.Total); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

// Activities

const createActivity = `
INSERT INTO activities (id, teacher_id, class_id, subject_id, chapter_id, activity_name, points, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, teacher_id, class_id, subject_id, chapter_id, activity_name, points, created_at
`

type CreateActivityParams struct {
	ID           pgtype.UUID
	TeacherID    pgtype.UUID
	ClassID      pgtype.UUID
	SubjectID    pgtype.UUID
	ChapterID    pgtype.UUID
	ActivityName string
	Points       int32
	CreatedAt    pgtype.Timestamptz
}

func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) (Activity, error) {
	row := q.db.QueryRow(ctx, createActivity,
		arg.ID, arg.TeacherID, arg.ClassID, arg.SubjectID, arg.ChapterID, arg.ActivityName, arg.Points, arg.CreatedAt)
	var a Activity
	err := row.Scan(&a.ID, &a.TeacherID, &a.ClassID, &a.SubjectID, &a.ChapterID, &a.ActivityName, &a.Points, &a.CreatedAt)
	return a, err
}

const getActivity = `
SELECT id, teacher_id, class_id, subject_id, chapter_id, activity_name, points, created_at
FROM activities
WHERE id = $1
`

func (q *Queries) GetActivity(ctx context.Context, id pgtype.UUID) (Activity, error) {
	row := q.db.QueryRow(ctx, getActivity, id)
	var a Activity
	err := row.Scan(&a.ID, &a.TeacherID, &a.ClassID, &a.SubjectID, &a.ChapterID, &a.ActivityName, &a.Points, &a.CreatedAt)
	return a, err
}

const renameActivity = `
UPDATE activities
SET activity_name = $2
WHERE id = $1
RETURNING id, teacher_id, class_id, subject_id, chapter_id, activity_name, points, created_at
`

type RenameActivityParams struct {
	ID           pgtype.UUID
	ActivityName string
}

func (q *Queries) RenameActivity(ctx context.Context, arg RenameActivityParams) (Activity, error) {
	row := q.db.QueryRow(ctx, renameActivity, arg.ID, arg.ActivityName)
	var a Activity
	err := row.Scan(&a.ID, &a.TeacherID, &a.ClassID, &a.SubjectID, &a.ChapterID, &a.ActivityName, &a.Points, &a.CreatedAt)
	return a, err
}

const deleteActivity = `
DELETE FROM activities WHERE id = $1
`

func (q *Queries) DeleteActivity(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteActivity, id)
	return err
}

const listActivitiesDetailed = `
SELECT a.id, a.teacher_id, a.activity_name, a.points, a.created_at,
       c.class_name, s.subject_name, ch.chapter_name
FROM activities a
LEFT JOIN classes c ON c.id = a.class_id
LEFT JOIN subjects s ON s.id = a.subject_id
LEFT JOIN chapters ch ON ch.id = a.chapter_id
ORDER BY a.created_at DESC
`

type ActivityDetailedRow struct {
	ID           pgtype.UUID
	TeacherID    pgtype.UUID
	ActivityName string
	Points       int32
	CreatedAt    pgtype.Timestamptz
	ClassName    pgtype.Text
	SubjectName  pgtype.Text
	ChapterName  pgtype.Text
}

func (q *Queries) ListActivitiesDetailed(ctx context.Context) ([]ActivityDetailedRow, error) {
	rows, err := q.db.Query(ctx, listActivitiesDetailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivitiesDetailed(rows)
}

const listActivitiesByTeacherDetailed = `
SELECT a.id, a.teacher_id, a.activity_name, a.points, a.created_at,
       c.class_name, s.subject_name, ch.chapter_name
FROM activities a
LEFT JOIN classes c ON c.id = a.class_id
LEFT JOIN subjects s ON s.id = a.subject_id
LEFT JOIN chapters ch ON ch.id = a.chapter_id
WHERE a.teacher_id = $1
ORDER BY a.created_at DESC
`

func (q *Queries) ListActivitiesByTeacherDetailed(ctx context.Context, teacherID pgtype.UUID) ([]ActivityDetailedRow, error) {
	rows, err := q.db.Query(ctx, listActivitiesByTeacherDetailed, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivitiesDetailed(rows)
}

func scanActivitiesDetailed(rows pgx.Rows) ([]ActivityDetailedRow, error) {
	var items []ActivityDetailedRow
	for rows.Next() {
		var row ActivityDetailedRow
		if err := rows.Scan(&row.ID, &row.TeacherID, &row.ActivityName, &row.Points, &row.CreatedAt,
			&row.ClassName, &row.SubjectName, &row.ChapterName); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

const countActivitiesByTeacher = `
SELECT COUNT(*) FROM activities WHERE teacher_id = $1
`

func (q *Queries) CountActivitiesByTeacher(ctx context.Context, teacherID pgtype.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countActivitiesByTeacher, teacherID).Scan(&total)
	return total, err
}

// Dashboard

const getEntityCounts = `
SELECT (SELECT COUNT(*) FROM teachers),
       (SELECT COUNT(*) FROM classes),
       (SELECT COUNT(*) FROM subjects),
       (SELECT COUNT(*) FROM chapters),
       (SELECT COUNT(*) FROM activities)
`

type EntityCountsRow struct {
	Teachers   int64
	Classes    int64
	Subjects   int64
	Chapters   int64
	Activities int64
}

func (q *Queries) GetEntityCounts(ctx context.Context) (EntityCountsRow, error) {
	var row EntityCountsRow
	err := q.db.QueryRow(ctx, getEntityCounts).Scan(&row.Teachers, &row.Classes, &row.Subjects, &row.Chapters, &row.Activities)
	return row, err
}

// Ranking snapshots

const deleteRankings = `
DELETE FROM rankings
`

func (q *Queries) DeleteRankings(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteRankings)
	return err
}

const insertRanking = `
INSERT INTO rankings (id, teacher_id, teacher_code, teacher_name, week, month,
                      attendance_score, task_score, total_score, rank, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

type InsertRankingParams struct {
	ID              pgtype.UUID
	TeacherID       pgtype.UUID
	TeacherCode     string
	TeacherName     string
	Week            pgtype.Text
	Month           pgtype.Text
	AttendanceScore int32
	TaskScore       int32
	TotalScore      int32
	Rank            int32
	GeneratedAt     pgtype.Timestamptz
}

func (q *Queries) InsertRanking(ctx context.Context, arg InsertRankingParams) error {
	_, err := q.db.Exec(ctx, insertRanking,
		arg.ID, arg.TeacherID, arg.TeacherCode, arg.TeacherName, arg.Week, arg.Month,
		arg.AttendanceScore, arg.TaskScore, arg.TotalScore, arg.Rank, arg.GeneratedAt)
	return err
}

const listTopRankings = `
SELECT id, teacher_id, teacher_code, teacher_name, week, month,
       attendance_score, task_score, total_score, rank, generated_at
FROM rankings
ORDER BY total_score DESC, rank
LIMIT $1
`

func (q *Queries) ListTopRankings(ctx context.Context, limit int32) ([]Ranking, error) {
	rows, err := q.db.Query(ctx, listTopRankings, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Ranking
	for rows.Next() {
		var r Ranking
		if err := rows.Scan(&r.ID, &r.TeacherID, &r.TeacherCode, &r.TeacherName, &r.Week, &r.Month,
			&r.AttendanceScore, &r.TaskScore, &r.TotalScore, &r.Rank, &r.GeneratedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getLatestRankingByTeacher = `
SELECT id, teacher_id, teacher_code, teacher_name, week, month,
       attendance_score, task_score, total_score, rank, generated_at
FROM rankings
WHERE teacher_id = $1
ORDER BY generated_at DESC
LIMIT 1
`

func (q *Queries) GetLatestRankingByTeacher(ctx context.Context, teacherID pgtype.UUID) (Ranking, error) {
	row := q.db.QueryRow(ctx, getLatestRankingByTeacher, teacherID)
	var r Ranking
	err := row.Scan(&r.ID, &r.TeacherID, &r.TeacherCode, &r.TeacherName, &r.Week, &r.Month,
		&r.AttendanceScore, &r.TaskScore, &r.TotalScore, &r.Rank, &r.GeneratedAt)
	return r, err
}
