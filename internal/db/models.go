package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AttendanceTier string

const (
	AttendanceTierExcellent AttendanceTier = "Excellent"
	AttendanceTierGood      AttendanceTier = "Good"
	AttendanceTierLate      AttendanceTier = "Late"
)

type Teacher struct {
	ID          pgtype.UUID
	UserID      pgtype.UUID
	TeacherCode pgtype.Text
	Status      string
	FullName    pgtype.Text
	Email       pgtype.Text
	CreatedAt   pgtype.Timestamptz
}

type Attendance struct {
	ID             pgtype.UUID
	TeacherID      pgtype.UUID
	AttendanceDate pgtype.Date
	MarkedAt       pgtype.Timestamptz
	Tier           AttendanceTier
	Points         int32
}

type Activity struct {
	ID           pgtype.UUID
	TeacherID    pgtype.UUID
	ClassID      pgtype.UUID
	SubjectID    pgtype.UUID
	ChapterID    pgtype.UUID
	ActivityName string
	Points       int32
	CreatedAt    pgtype.Timestamptz
}

type Ranking struct {
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
