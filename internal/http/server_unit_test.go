package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"dugsiga/staff/internal/config"
	"dugsiga/staff/internal/db"
	"dugsiga/staff/internal/scoring"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Bearer  abc": "abc",
		"Token abc":   "",
		"Bearer":      "",
		"":            "",
	}
	for header, expected := range cases {
		if got := bearerToken(header); got != expected {
			t.Fatalf("header %q expected %q got %q", header, expected, got)
		}
	}
}

func TestPgDateDropsTimeComponent(t *testing.T) {
	moment := time.Date(2026, 3, 2, 17, 45, 12, 999, time.UTC)
	date := pgDate(moment)
	if !date.Valid {
		t.Fatalf("expected valid date")
	}
	if date.Time.Hour() != 0 || date.Time.Minute() != 0 || date.Time.Second() != 0 {
		t.Fatalf("expected midnight, got %s", date.Time)
	}
	if date.Time.Year() != 2026 || date.Time.Month() != time.March || date.Time.Day() != 2 {
		t.Fatalf("wrong calendar date: %s", date.Time)
	}

	// Two marks on the same calendar day map to the same date key.
	other := pgDate(time.Date(2026, 3, 2, 7, 40, 0, 0, time.UTC))
	if !date.Time.Equal(other.Time) {
		t.Fatalf("same-day times should map to the same date")
	}
}

func TestMapAttendanceFormatsDateAndTime(t *testing.T) {
	id := uuid.New()
	markedAt := time.Date(2026, 3, 2, 7, 41, 0, 0, time.UTC)
	resp := mapAttendance(db.Attendance{
		ID:             pgtype.UUID{Bytes: id, Valid: true},
		AttendanceDate: pgDate(markedAt),
		MarkedAt:       pgtype.Timestamptz{Time: markedAt, Valid: true},
		Tier:           db.AttendanceTierGood,
		Points:         2,
	})
	if resp.ID != id.String() {
		t.Fatalf("expected id %s got %s", id, resp.ID)
	}
	if resp.Date != "2026-03-02" {
		t.Fatalf("expected date 2026-03-02, got %s", resp.Date)
	}
	if resp.Time != "07:41" {
		t.Fatalf("expected time 07:41, got %s", resp.Time)
	}
	if resp.Tier != "Good" || resp.Points != 2 {
		t.Fatalf("unexpected tier/points: %s/%d", resp.Tier, resp.Points)
	}
}

func TestEnrichedFromRowPlaceholders(t *testing.T) {
	row := db.ActivityDetailedRow{
		ActivityName: "Algebra drill",
		Points:       2,
		CreatedAt:    pgtype.Timestamptz{Time: time.Now(), Valid: true},
		// class/subject/chapter joins came back NULL
	}
	enriched := enrichedFromRow(row)
	if enriched.ClassName != scoring.UnknownClass {
		t.Fatalf("expected %q got %q", scoring.UnknownClass, enriched.ClassName)
	}
	if enriched.SubjectName != scoring.UnknownSubject {
		t.Fatalf("expected %q got %q", scoring.UnknownSubject, enriched.SubjectName)
	}
	if enriched.ChapterName != scoring.UnknownChapter {
		t.Fatalf("expected %q got %q", scoring.UnknownChapter, enriched.ChapterName)
	}
	if enriched.ActivityName != "Algebra drill" {
		t.Fatalf("resolved name lost: %q", enriched.ActivityName)
	}
}

func TestRouterRejectsMissingAndInvalidTokens(t *testing.T) {
	server := NewServer(config.Config{JWTSecret: "secret", JWTIssuer: "issuer"}, nil, nil)
	router := server.Router()

	paths := []string{"/rankings/detailed", "/reports/best-teacher", "/attendance/my", "/dashboard/admin"}
	for _, path := range paths {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != 401 {
			t.Fatalf("%s without token expected 401, got %d", path, rec.Code)
		}

		req = httptest.NewRequest("GET", path, nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != 401 {
			t.Fatalf("%s with bad token expected 401, got %d", path, rec.Code)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer(config.Config{}, nil, nil)
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
