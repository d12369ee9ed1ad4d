package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"dugsiga/staff/internal/scoring"
)

func TestWeekLabel(t *testing.T) {
	cases := map[string]time.Time{
		"2026-W10": time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		"2020-W53": time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		"2026-W01": time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC),
	}
	for expected, now := range cases {
		if got := weekLabel(now); got != expected {
			t.Fatalf("%s expected %s got %s", now, expected, got)
		}
	}
}

func TestCodeForTeacherFallsBackToID(t *testing.T) {
	withCode := scoring.Teacher{ID: uuid.New(), Code: "T-7"}
	withoutCode := scoring.Teacher{ID: uuid.New()}
	teachers := []scoring.Teacher{withCode, withoutCode}

	if got := codeForTeacher(teachers, withCode.ID); got != "T-7" {
		t.Fatalf("expected T-7, got %s", got)
	}
	if got := codeForTeacher(teachers, withoutCode.ID); got != withoutCode.ID.String() {
		t.Fatalf("expected id fallback, got %s", got)
	}
	unknown := uuid.New()
	if got := codeForTeacher(teachers, unknown); got != unknown.String() {
		t.Fatalf("expected id fallback for unknown teacher, got %s", got)
	}
}
