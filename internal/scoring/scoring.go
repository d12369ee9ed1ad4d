// Package scoring turns raw attendance marks and activity entries into
// per-teacher scores, the ranked leaderboard, and the best-teacher report.
// It is free of I/O and clock reads: callers pass in the record sets and,
// where relevant, the current time.
package scoring

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Tier string

const (
	TierExcellent Tier = "Excellent"
	TierGood      Tier = "Good"
	TierLate      Tier = "Late"
)

const (
	PointsExcellent = 3
	PointsGood      = 2
	PointsLate      = 1

	// Every activity is worth the same fixed score.
	PointsActivity = 2
)

// Display fallbacks used when a reference cannot be resolved. A dangling
// class/subject/chapter id degrades to a placeholder instead of failing
// the computation.
const (
	UnknownClass    = "Unknown Class"
	UnknownSubject  = "Unknown Subject"
	UnknownChapter  = "Unknown Chapter"
	UnknownActivity = "No Activity Name"
	UnknownTeacher  = "Unknown"
	UnknownEmail    = "N/A"
	NameNotSet      = "Name Not Set"
)

// Classify maps a marking time to a punctuality tier and its points.
// Only the hour and minute matter: 07:00-07:40 is Excellent, 07:41-07:50
// is Good, everything else (including before 7 AM) is Late.
func Classify(now time.Time) (Tier, int) {
	hour, minute := now.Hour(), now.Minute()
	if hour == 7 && minute <= 40 {
		return TierExcellent, PointsExcellent
	}
	if hour == 7 && minute <= 50 {
		return TierGood, PointsGood
	}
	return TierLate, PointsLate
}

// Teacher is a directory entry. Empty Name/Email means the directory
// lookup did not resolve.
type Teacher struct {
	ID    uuid.UUID
	Code  string
	Name  string
	Email string
}

// AttendanceMark is one attendance record, already tier-classified.
type AttendanceMark struct {
	TeacherID uuid.UUID
	Tier      Tier
	Points    int
}

// Activity is one logged unit of teaching work. Empty class/subject/
// chapter names mean the reference did not resolve.
type Activity struct {
	TeacherID   uuid.UUID
	Name        string
	Points      int
	CreatedAt   time.Time
	ClassName   string
	SubjectName string
	ChapterName string
}

// Score holds the derived per-teacher totals. TotalScore is always
// AttendanceScore + TaskScore.
type Score struct {
	TeacherID       uuid.UUID
	AttendanceScore int
	TaskScore       int
	TotalScore      int
	ActivityCount   int
	LastActivityAt  *time.Time
}

// ComputeScores derives fresh totals for every teacher in the set.
// Teachers with no records in a category score 0 for that component.
func ComputeScores(teachers []Teacher, marks []AttendanceMark, activities []Activity) map[uuid.UUID]Score {
	scores := make(map[uuid.UUID]Score, len(teachers))
	for _, t := range teachers {
		scores[t.ID] = Score{TeacherID: t.ID}
	}
	for _, m := range marks {
		s, ok := scores[m.TeacherID]
		if !ok {
			continue
		}
		s.AttendanceScore += m.Points
		scores[m.TeacherID] = s
	}
	for _, a := range activities {
		s, ok := scores[a.TeacherID]
		if !ok {
			continue
		}
		s.TaskScore += a.Points
		s.ActivityCount++
		if s.LastActivityAt == nil || a.CreatedAt.After(*s.LastActivityAt) {
			createdAt := a.CreatedAt
			s.LastActivityAt = &createdAt
		}
		scores[a.TeacherID] = s
	}
	for id, s := range scores {
		s.TotalScore = s.AttendanceScore + s.TaskScore
		scores[id] = s
	}
	return scores
}

// EnrichedActivity is an activity annotated with resolved display names,
// placeholders substituted for any reference that failed to resolve.
type EnrichedActivity struct {
	ActivityName string    `json:"activityName"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"createdAt"`
	ClassName    string    `json:"className"`
	SubjectName  string    `json:"subjectName"`
	ChapterName  string    `json:"chapterName"`
}

// RankedEntry is one leaderboard row.
type RankedEntry struct {
	Rank            int                `json:"rank"`
	TeacherID       uuid.UUID          `json:"teacherId"`
	TeacherName     string             `json:"teacherName"`
	Email           string             `json:"email"`
	AttendanceScore int                `json:"attendanceScore"`
	TaskScore       int                `json:"taskScore"`
	TotalScore      int                `json:"totalScore"`
	TotalActivities int                `json:"totalActivities"`
	LastPostedAt    *time.Time         `json:"lastPostedAt"`
	Activities      []EnrichedActivity `json:"activities"`
}

// Leaderboard computes the full ranked list: every teacher, sorted by
// total score descending, rank = position + 1. Teachers tied on total
// score keep distinct consecutive ranks in the stable order of the input
// teacher set; the best-teacher report is the place where ties are
// treated as co-equal.
func Leaderboard(teachers []Teacher, marks []AttendanceMark, activities []Activity) []RankedEntry {
	scores := ComputeScores(teachers, marks, activities)

	byTeacher := make(map[uuid.UUID][]EnrichedActivity, len(teachers))
	for _, a := range activities {
		byTeacher[a.TeacherID] = append(byTeacher[a.TeacherID], Enrich(a))
	}
	for _, list := range byTeacher {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
	}

	entries := make([]RankedEntry, 0, len(teachers))
	for _, t := range teachers {
		s := scores[t.ID]
		acts := byTeacher[t.ID]
		if acts == nil {
			acts = []EnrichedActivity{}
		}
		name := t.Name
		if name == "" {
			name = UnknownTeacher
		}
		email := t.Email
		if email == "" {
			email = UnknownEmail
		}
		entries = append(entries, RankedEntry{
			TeacherID:       t.ID,
			TeacherName:     name,
			Email:           email,
			AttendanceScore: s.AttendanceScore,
			TaskScore:       s.TaskScore,
			TotalScore:      s.TotalScore,
			TotalActivities: s.ActivityCount,
			LastPostedAt:    s.LastActivityAt,
			Activities:      acts,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Enrich substitutes display placeholders for any unresolved reference.
func Enrich(a Activity) EnrichedActivity {
	e := EnrichedActivity{
		ActivityName: a.Name,
		Score:        a.Points,
		CreatedAt:    a.CreatedAt,
		ClassName:    a.ClassName,
		SubjectName:  a.SubjectName,
		ChapterName:  a.ChapterName,
	}
	if e.ActivityName == "" {
		e.ActivityName = UnknownActivity
	}
	if e.ClassName == "" {
		e.ClassName = UnknownClass
	}
	if e.SubjectName == "" {
		e.SubjectName = UnknownSubject
	}
	if e.ChapterName == "" {
		e.ChapterName = UnknownChapter
	}
	return e
}

// TopTeacher is one co-winner in the best-teacher report.
type TopTeacher struct {
	TeacherID   uuid.UUID `json:"teacherId"`
	TeacherCode string    `json:"teacherCode"`
	TeacherName string    `json:"teacherName"`
	TotalScore  int       `json:"totalScore"`
	Email       *string   `json:"email"`
}

// Report is the best-teacher report. Unlike the leaderboard, every
// teacher at the top score is a co-equal winner.
type Report struct {
	TopScore    int          `json:"topScore"`
	IsTie       bool         `json:"isTie"`
	TopTeachers []TopTeacher `json:"topTeachers"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// BestTeacher finds the maximum total score across all teachers and
// returns every teacher achieving it. An empty teacher set yields
// topScore 0 and no winners. A winner with a failed directory lookup is
// reported with placeholder identity, never dropped.
func BestTeacher(teachers []Teacher, marks []AttendanceMark, activities []Activity, generatedAt time.Time) Report {
	report := Report{
		TopTeachers: []TopTeacher{},
		GeneratedAt: generatedAt,
	}
	if len(teachers) == 0 {
		return report
	}

	scores := ComputeScores(teachers, marks, activities)
	topScore := 0
	first := true
	for _, t := range teachers {
		if total := scores[t.ID].TotalScore; first || total > topScore {
			topScore = total
			first = false
		}
	}

	for _, t := range teachers {
		if scores[t.ID].TotalScore != topScore {
			continue
		}
		top := TopTeacher{
			TeacherID:   t.ID,
			TeacherCode: t.Code,
			TeacherName: t.Name,
			TotalScore:  topScore,
		}
		if top.TeacherCode == "" {
			top.TeacherCode = t.ID.String()
		}
		if top.TeacherName == "" {
			top.TeacherName = NameNotSet
		}
		if t.Email != "" {
			email := t.Email
			top.Email = &email
		}
		report.TopTeachers = append(report.TopTeachers, top)
	}

	report.TopScore = topScore
	report.IsTie = len(report.TopTeachers) > 1
	return report
}
