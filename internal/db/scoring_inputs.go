package db

import (
	"context"

	"github.com/google/uuid"

	"dugsiga/staff/internal/scoring"
)

// ScoringInputs loads the full teacher, attendance, and activity record
// sets in the shape the scoring package consumes. Every ranking or
// report computation starts from this snapshot.
func (s *Store) ScoringInputs(ctx context.Context) ([]scoring.Teacher, []scoring.AttendanceMark, []scoring.Activity, error) {
	teacherRows, err := s.Queries.ListTeachers(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	attendanceRows, err := s.Queries.ListAttendance(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	activityRows, err := s.Queries.ListActivitiesDetailed(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	teachers := make([]scoring.Teacher, 0, len(teacherRows))
	for _, row := range teacherRows {
		teachers = append(teachers, scoring.Teacher{
			ID:    uuid.UUID(row.ID.Bytes),
			Code:  row.TeacherCode.String,
			Name:  row.FullName.String,
			Email: row.Email.String,
		})
	}
	marks := make([]scoring.AttendanceMark, 0, len(attendanceRows))
	for _, row := range attendanceRows {
		marks = append(marks, scoring.AttendanceMark{
			TeacherID: uuid.UUID(row.TeacherID.Bytes),
			Tier:      scoring.Tier(row.Tier),
			Points:    int(row.Points),
		})
	}
	activities := make([]scoring.Activity, 0, len(activityRows))
	for _, row := range activityRows {
		activities = append(activities, scoring.Activity{
			TeacherID:   uuid.UUID(row.TeacherID.Bytes),
			Name:        row.ActivityName,
			Points:      int(row.Points),
			CreatedAt:   row.CreatedAt.Time,
			ClassName:   row.ClassName.String,
			SubjectName: row.SubjectName.String,
			ChapterName: row.ChapterName.String,
		})
	}
	return teachers, marks, activities, nil
}
