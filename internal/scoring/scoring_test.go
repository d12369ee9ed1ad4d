package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		hour, minute int
		tier         Tier
		points       int
	}{
		{7, 0, TierExcellent, 3},
		{7, 40, TierExcellent, 3},
		{7, 41, TierGood, 2},
		{7, 50, TierGood, 2},
		{7, 51, TierLate, 1},
		{7, 59, TierLate, 1},
		{8, 0, TierLate, 1},
		{6, 30, TierLate, 1},
		{0, 0, TierLate, 1},
		{23, 59, TierLate, 1},
	}
	for _, c := range cases {
		now := time.Date(2026, 3, 2, c.hour, c.minute, 0, 0, time.UTC)
		tier, points := Classify(now)
		if tier != c.tier || points != c.points {
			t.Fatalf("%02d:%02d expected %s/%d got %s/%d", c.hour, c.minute, c.tier, c.points, tier, points)
		}
	}
}

func TestComputeScoresSumsAndZeroes(t *testing.T) {
	a := Teacher{ID: uuid.New(), Name: "Amina"}
	b := Teacher{ID: uuid.New(), Name: "Bashir"}
	teachers := []Teacher{a, b}

	earlier := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	later := earlier.Add(2 * time.Hour)

	marks := []AttendanceMark{
		{TeacherID: a.ID, Tier: TierExcellent, Points: 3},
		{TeacherID: a.ID, Tier: TierLate, Points: 1},
	}
	activities := []Activity{
		{TeacherID: a.ID, Name: "Quiz", Points: 2, CreatedAt: earlier},
		{TeacherID: a.ID, Name: "Homework", Points: 2, CreatedAt: later},
	}

	scores := ComputeScores(teachers, marks, activities)

	got := scores[a.ID]
	if got.AttendanceScore != 4 || got.TaskScore != 4 || got.TotalScore != 8 {
		t.Fatalf("unexpected scores for a: %+v", got)
	}
	if got.ActivityCount != 2 {
		t.Fatalf("expected 2 activities, got %d", got.ActivityCount)
	}
	if got.LastActivityAt == nil || !got.LastActivityAt.Equal(later) {
		t.Fatalf("expected last activity %s, got %v", later, got.LastActivityAt)
	}

	empty := scores[b.ID]
	if empty.AttendanceScore != 0 || empty.TaskScore != 0 || empty.TotalScore != 0 || empty.ActivityCount != 0 {
		t.Fatalf("expected zero scores for teacher without records, got %+v", empty)
	}
	if empty.LastActivityAt != nil {
		t.Fatalf("expected nil last activity for teacher without records")
	}

	for _, s := range scores {
		if s.TotalScore != s.AttendanceScore+s.TaskScore {
			t.Fatalf("total invariant violated: %+v", s)
		}
		if s.AttendanceScore < 0 || s.TaskScore < 0 {
			t.Fatalf("negative component: %+v", s)
		}
	}
}

func TestComputeScoresIgnoresUnknownTeachers(t *testing.T) {
	known := Teacher{ID: uuid.New()}
	marks := []AttendanceMark{{TeacherID: uuid.New(), Points: 3}}
	activities := []Activity{{TeacherID: uuid.New(), Points: 2, CreatedAt: time.Now()}}

	scores := ComputeScores([]Teacher{known}, marks, activities)
	if len(scores) != 1 {
		t.Fatalf("expected scores only for known teachers, got %d entries", len(scores))
	}
	if scores[known.ID].TotalScore != 0 {
		t.Fatalf("expected zero score, got %+v", scores[known.ID])
	}
}

func leaderboardFixture() ([]Teacher, []AttendanceMark) {
	teachers := []Teacher{
		{ID: uuid.New(), Code: "T-1", Name: "Fifty", Email: "fifty@dugsi.so"},
		{ID: uuid.New(), Code: "T-2", Name: "NinetyA", Email: "ninety.a@dugsi.so"},
		{ID: uuid.New(), Code: "T-3", Name: "NinetyB", Email: "ninety.b@dugsi.so"},
		{ID: uuid.New(), Code: "T-4", Name: "Thirty", Email: "thirty@dugsi.so"},
	}
	var marks []AttendanceMark
	totals := []int{50, 90, 90, 30}
	for i, t := range teachers {
		for n := 0; n < totals[i]; n++ {
			marks = append(marks, AttendanceMark{TeacherID: t.ID, Tier: TierLate, Points: 1})
		}
	}
	return teachers, marks
}

func TestLeaderboardOrderingAndSequentialTieRanks(t *testing.T) {
	teachers, marks := leaderboardFixture()

	entries := Leaderboard(teachers, marks, nil)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	wantTotals := []int{90, 90, 50, 30}
	for i, want := range wantTotals {
		if entries[i].TotalScore != want {
			t.Fatalf("position %d expected total %d got %d", i, want, entries[i].TotalScore)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("position %d expected rank %d got %d", i, i+1, entries[i].Rank)
		}
	}

	// Tied teachers keep the stable input order, not a shared rank.
	if entries[0].TeacherName != "NinetyA" || entries[1].TeacherName != "NinetyB" {
		t.Fatalf("expected stable order for tied teachers, got %s then %s", entries[0].TeacherName, entries[1].TeacherName)
	}
}

func TestLeaderboardEnrichmentPlaceholders(t *testing.T) {
	resolved := Teacher{ID: uuid.New(), Name: "Amina", Email: "amina@dugsi.so"}
	dangling := Teacher{ID: uuid.New()}
	createdAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	activities := []Activity{
		{
			TeacherID: dangling.ID,
			Name:      "",
			Points:    2,
			CreatedAt: createdAt,
			// class/subject/chapter refs did not resolve
		},
		{
			TeacherID:   resolved.ID,
			Name:        "Algebra drill",
			Points:      2,
			CreatedAt:   createdAt,
			ClassName:   "Form 1A",
			SubjectName: "Math",
			ChapterName: "Equations",
		},
	}

	entries := Leaderboard([]Teacher{resolved, dangling}, nil, activities)

	var danglingEntry, resolvedEntry *RankedEntry
	for i := range entries {
		switch entries[i].TeacherID {
		case dangling.ID:
			danglingEntry = &entries[i]
		case resolved.ID:
			resolvedEntry = &entries[i]
		}
	}
	if danglingEntry == nil || resolvedEntry == nil {
		t.Fatalf("missing entries")
	}

	if danglingEntry.TeacherName != UnknownTeacher || danglingEntry.Email != UnknownEmail {
		t.Fatalf("expected teacher placeholders, got %s / %s", danglingEntry.TeacherName, danglingEntry.Email)
	}
	act := danglingEntry.Activities[0]
	if act.ClassName != UnknownClass || act.SubjectName != UnknownSubject || act.ChapterName != UnknownChapter || act.ActivityName != UnknownActivity {
		t.Fatalf("expected activity placeholders, got %+v", act)
	}

	// The dangling entry must not degrade the resolved one.
	got := resolvedEntry.Activities[0]
	if got.ClassName != "Form 1A" || got.SubjectName != "Math" || got.ChapterName != "Equations" {
		t.Fatalf("resolved names lost: %+v", got)
	}
}

func TestLeaderboardActivitiesNewestFirst(t *testing.T) {
	teacher := Teacher{ID: uuid.New(), Name: "Amina"}
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	activities := []Activity{
		{TeacherID: teacher.ID, Name: "first", Points: 2, CreatedAt: base},
		{TeacherID: teacher.ID, Name: "third", Points: 2, CreatedAt: base.Add(2 * time.Hour)},
		{TeacherID: teacher.ID, Name: "second", Points: 2, CreatedAt: base.Add(time.Hour)},
	}

	entries := Leaderboard([]Teacher{teacher}, nil, activities)
	got := entries[0].Activities
	if got[0].ActivityName != "third" || got[1].ActivityName != "second" || got[2].ActivityName != "first" {
		t.Fatalf("expected newest-first activities, got %s %s %s", got[0].ActivityName, got[1].ActivityName, got[2].ActivityName)
	}
	if entries[0].LastPostedAt == nil || !entries[0].LastPostedAt.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("expected lastPostedAt of newest activity, got %v", entries[0].LastPostedAt)
	}
}

func TestBestTeacherTie(t *testing.T) {
	teachers, marks := leaderboardFixture()

	report := BestTeacher(teachers, marks, nil, time.Now().UTC())
	if report.TopScore != 90 {
		t.Fatalf("expected top score 90, got %d", report.TopScore)
	}
	if !report.IsTie {
		t.Fatalf("expected tie")
	}
	if len(report.TopTeachers) != 2 {
		t.Fatalf("expected exactly 2 top teachers, got %d", len(report.TopTeachers))
	}
	names := map[string]bool{}
	for _, top := range report.TopTeachers {
		names[top.TeacherName] = true
		if top.TotalScore != 90 {
			t.Fatalf("co-winner with wrong score: %+v", top)
		}
	}
	if !names["NinetyA"] || !names["NinetyB"] {
		t.Fatalf("wrong winners: %v", names)
	}
}

func TestBestTeacherSingleWinner(t *testing.T) {
	winner := Teacher{ID: uuid.New(), Code: "T-9", Name: "Amina", Email: "amina@dugsi.so"}
	other := Teacher{ID: uuid.New(), Code: "T-10", Name: "Bashir"}
	marks := []AttendanceMark{
		{TeacherID: winner.ID, Points: 3},
		{TeacherID: other.ID, Points: 1},
	}

	report := BestTeacher([]Teacher{winner, other}, marks, nil, time.Now().UTC())
	if report.IsTie || len(report.TopTeachers) != 1 {
		t.Fatalf("expected single winner, got %+v", report)
	}
	top := report.TopTeachers[0]
	if top.TeacherCode != "T-9" || top.TeacherName != "Amina" {
		t.Fatalf("unexpected winner identity: %+v", top)
	}
	if top.Email == nil || *top.Email != "amina@dugsi.so" {
		t.Fatalf("expected email, got %v", top.Email)
	}
}

func TestBestTeacherEmptySet(t *testing.T) {
	report := BestTeacher(nil, nil, nil, time.Now().UTC())
	if report.TopScore != 0 {
		t.Fatalf("expected top score 0, got %d", report.TopScore)
	}
	if report.IsTie {
		t.Fatalf("expected no tie")
	}
	if report.TopTeachers == nil || len(report.TopTeachers) != 0 {
		t.Fatalf("expected empty winner list, got %v", report.TopTeachers)
	}
}

func TestBestTeacherUnresolvedDirectoryFallbacks(t *testing.T) {
	ghost := Teacher{ID: uuid.New()}
	marks := []AttendanceMark{{TeacherID: ghost.ID, Points: 3}}

	report := BestTeacher([]Teacher{ghost}, marks, nil, time.Now().UTC())
	if len(report.TopTeachers) != 1 {
		t.Fatalf("winner with missing lookup must not disappear: %+v", report)
	}
	top := report.TopTeachers[0]
	if top.TeacherName != NameNotSet {
		t.Fatalf("expected %q, got %q", NameNotSet, top.TeacherName)
	}
	if top.TeacherCode != ghost.ID.String() {
		t.Fatalf("expected id fallback code, got %q", top.TeacherCode)
	}
	if top.Email != nil {
		t.Fatalf("expected nil email, got %v", top.Email)
	}
}

func TestBestTeacherIncludesActivityOnlyTeachers(t *testing.T) {
	activityOnly := Teacher{ID: uuid.New(), Name: "Amina"}
	attended := Teacher{ID: uuid.New(), Name: "Bashir"}
	marks := []AttendanceMark{{TeacherID: attended.ID, Points: 1}}
	activities := []Activity{
		{TeacherID: activityOnly.ID, Name: "Quiz", Points: 2, CreatedAt: time.Now()},
	}

	report := BestTeacher([]Teacher{activityOnly, attended}, marks, activities, time.Now().UTC())
	if report.TopScore != 2 {
		t.Fatalf("expected top score 2, got %d", report.TopScore)
	}
	if len(report.TopTeachers) != 1 || report.TopTeachers[0].TeacherID != activityOnly.ID {
		t.Fatalf("teacher without attendance must still win: %+v", report.TopTeachers)
	}
}
