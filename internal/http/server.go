package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"dugsiga/staff/internal/auth"
	"dugsiga/staff/internal/config"
	"dugsiga/staff/internal/db"
	"dugsiga/staff/internal/scoring"
)

type Server struct {
	cfg      config.Config
	store    *db.Store
	redis    *redis.Client
	cacheTTL time.Duration
	now      func() time.Time
}

func NewServer(cfg config.Config, store *db.Store, redisClient *redis.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		redis:    redisClient,
		cacheTTL: cfg.LeaderboardCacheTTL,
		now:      time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(s.authMiddleware).Post("/attendance", s.handleMarkAttendance)
	r.With(s.authMiddleware).Get("/attendance/my", s.handleListMyAttendance)
	r.With(s.authMiddleware).Post("/activities", s.handleCreateActivity)
	r.With(s.authMiddleware).Get("/activities/my", s.handleListMyActivities)
	r.With(s.authMiddleware).Patch("/activities/{activityId}", s.handleRenameActivity)
	r.With(s.authMiddleware).Delete("/activities/{activityId}", s.handleDeleteActivity)
	r.With(s.authMiddleware).Get("/rankings/detailed", s.handleDetailedRanking)
	r.With(s.authMiddleware).Get("/reports/best-teacher", s.handleBestTeacherReport)
	r.With(s.authMiddleware).Get("/dashboard/teacher", s.handleTeacherDashboard)
	r.With(s.authMiddleware).Get("/dashboard/admin", s.handleAdminDashboard)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

// resolveTeacher maps the authenticated user to their teacher record.
func (s *Server) resolveTeacher(ctx context.Context, claims *auth.Claims) (db.Teacher, *handlerError) {
	userID, err := parseUUID(claims.UserID)
	if err != nil {
		return db.Teacher{}, &handlerError{status: http.StatusUnauthorized, code: "invalid_token"}
	}
	teacher, err := s.store.Queries.GetTeacherByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Teacher{}, &handlerError{status: http.StatusNotFound, code: "teacher_not_found"}
	}
	if err != nil {
		return db.Teacher{}, &handlerError{status: http.StatusInternalServerError, code: "server_error"}
	}
	return teacher, nil
}

type handlerError struct {
	status int
	code   string
}

// Models

type attendanceResponse struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Tier   string `json:"tier"`
	Points int32  `json:"points"`
}

type activityResponse struct {
	ID           string    `json:"id"`
	TeacherID    string    `json:"teacherId"`
	ClassID      string    `json:"classId"`
	SubjectID    string    `json:"subjectId"`
	ChapterID    string    `json:"chapterId"`
	ActivityName string    `json:"activityName"`
	Points       int32     `json:"points"`
	CreatedAt    time.Time `json:"createdAt"`
}

type createActivityRequest struct {
	ClassID      string `json:"classId"`
	SubjectID    string `json:"subjectId"`
	ChapterID    string `json:"chapterId"`
	ActivityName string `json:"activityName"`
}

type renameActivityRequest struct {
	ActivityName string `json:"activityName"`
}

// Attendance handlers

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if claims.UserType != "teacher" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	teacher, herr := s.resolveTeacher(r.Context(), claims)
	if herr != nil {
		writeError(w, herr.status, herr.code)
		return
	}

	now := s.now()
	today := pgDate(now)

	_, err := s.store.Queries.GetAttendanceByTeacherAndDate(r.Context(), db.GetAttendanceByTeacherAndDateParams{
		TeacherID:      teacher.ID,
		AttendanceDate: today,
	})
	if err == nil {
		writeError(w, http.StatusConflict, "attendance_exists")
		return
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	tier, points := scoring.Classify(now)

	record, err := s.store.Queries.CreateAttendance(r.Context(), db.CreateAttendanceParams{
		ID:             pgUUID(uuid.New()),
		TeacherID:      teacher.ID,
		AttendanceDate: today,
		MarkedAt:       pgTime(now),
		Tier:           db.AttendanceTier(tier),
		Points:         int32(points),
	})
	if err != nil {
		// The unique constraint closes the race between the check above
		// and a concurrent mark for the same day.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "attendance_exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateLeaderboard(r.Context())
	attendanceMarks.WithLabelValues(string(tier)).Inc()

	writeJSON(w, http.StatusOK, mapAttendance(record))
}

func (s *Server) handleListMyAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if claims.UserType != "teacher" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	teacher, herr := s.resolveTeacher(r.Context(), claims)
	if herr != nil {
		writeError(w, herr.status, herr.code)
		return
	}

	rows, err := s.store.Queries.ListAttendanceByTeacher(r.Context(), teacher.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]attendanceResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, mapAttendance(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Activity handlers

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if claims.UserType != "teacher" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req createActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if strings.TrimSpace(req.ClassID) == "" || strings.TrimSpace(req.SubjectID) == "" ||
		strings.TrimSpace(req.ChapterID) == "" || strings.TrimSpace(req.ActivityName) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	teacher, herr := s.resolveTeacher(r.Context(), claims)
	if herr != nil {
		writeError(w, herr.status, herr.code)
		return
	}

	classID, err := parseUUID(req.ClassID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}
	subjectID, err := parseUUID(req.SubjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_subject_id")
		return
	}
	chapterID, err := parseUUID(req.ChapterID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_chapter_id")
		return
	}

	activity, err := s.store.Queries.CreateActivity(r.Context(), db.CreateActivityParams{
		ID:           pgUUID(uuid.New()),
		TeacherID:    teacher.ID,
		ClassID:      classID,
		SubjectID:    subjectID,
		ChapterID:    chapterID,
		ActivityName: strings.TrimSpace(req.ActivityName),
		Points:       scoring.PointsActivity,
		CreatedAt:    pgTime(s.now()),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateLeaderboard(r.Context())
	activityWrites.WithLabelValues("create").Inc()

	writeJSON(w, http.StatusCreated, mapActivity(activity))
}

func (s *Server) handleListMyActivities(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if claims.UserType != "teacher" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	teacher, herr := s.resolveTeacher(r.Context(), claims)
	if herr != nil {
		writeError(w, herr.status, herr.code)
		return
	}

	rows, err := s.store.Queries.ListActivitiesByTeacherDetailed(r.Context(), teacher.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]scoring.EnrichedActivity, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, enrichedFromRow(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRenameActivity(w http.ResponseWriter, r *http.Request) {
	activity, herr := s.ownedActivity(r)
	if herr != nil {
		writeError(w, herr.status, herr.code)
		return
	}

	var req renameActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if strings.TrimSpace(req.ActivityName) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	renamed, err := s.store.Queries.RenameActivity(r.Context(), db.RenameActivityParams{
		ID:           activity.ID,
		ActivityName: strings.TrimSpace(req.ActivityName),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateLeaderboard(r.Context())
	activityWrites.WithLabelValues("rename").Inc()

	writeJSON(w, http.StatusOK, mapActivity(renamed))
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	activity, herr := s.ownedActivity(r)
	if herr != nil {
		writeError(w, herr.status, herr.code)
		return
	}

	if err := s.store.Queries.DeleteActivity(r.Context(), activity.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateLeaderboard(r.Context())
	activityWrites.WithLabelValues("delete").Inc()

	w.WriteHeader(http.StatusNoContent)
}

// ownedActivity loads the activity from the URL and enforces that the
// caller is the owning teacher.
func (s *Server) ownedActivity(r *http.Request) (db.Activity, *handlerError) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		return db.Activity{}, &handlerError{status: http.StatusUnauthorized, code: "missing_token"}
	}
	if claims.UserType != "teacher" {
		return db.Activity{}, &handlerError{status: http.StatusForbidden, code: "forbidden"}
	}

	activityID, err := parseUUID(chi.URLParam(r, "activityId"))
	if err != nil {
		return db.Activity{}, &handlerError{status: http.StatusBadRequest, code: "invalid_activity_id"}
	}

	teacher, herr := s.resolveTeacher(r.Context(), claims)
	if herr != nil {
		return db.Activity{}, herr
	}

	activity, err := s.store.Queries.GetActivity(r.Context(), activityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Activity{}, &handlerError{status: http.StatusNotFound, code: "activity_not_found"}
	}
	if err != nil {
		return db.Activity{}, &handlerError{status: http.StatusInternalServerError, code: "server_error"}
	}
	if uuidString(activity.TeacherID) != uuidString(teacher.ID) {
		return db.Activity{}, &handlerError{status: http.StatusForbidden, code: "forbidden"}
	}
	return activity, nil
}

// Ranking handlers

func (s *Server) handleDetailedRanking(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	if cached, ok := s.cachedLeaderboard(r.Context()); ok {
		writeRawJSON(w, http.StatusOK, cached)
		return
	}

	teachers, marks, activities, err := s.store.ScoringInputs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	entries := scoring.Leaderboard(teachers, marks, activities)

	if payload, err := json.Marshal(entries); err == nil {
		s.storeLeaderboard(r.Context(), payload)
		writeRawJSON(w, http.StatusOK, payload)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleBestTeacherReport(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	teachers, marks, activities, err := s.store.ScoringInputs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	report := scoring.BestTeacher(teachers, marks, activities, s.now().UTC())
	writeJSON(w, http.StatusOK, report)
}

// Dashboard handlers

type attendanceStatRow struct {
	Tier  string `json:"tier"`
	Total int64  `json:"total"`
}

type rankingSnapshotResponse struct {
	TeacherID       string    `json:"teacherId"`
	TeacherCode     string    `json:"teacherCode"`
	TeacherName     string    `json:"teacherName"`
	Week            string    `json:"week,omitempty"`
	Month           string    `json:"month,omitempty"`
	AttendanceScore int32     `json:"attendanceScore"`
	TaskScore       int32     `json:"taskScore"`
	TotalScore      int32     `json:"totalScore"`
	Rank            int32     `json:"rank"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

func (s *Server) handleTeacherDashboard(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if claims.UserType != "teacher" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	teacher, herr := s.resolveTeacher(r.Context(), claims)
	if herr != nil {
		writeError(w, herr.status, herr.code)
		return
	}

	stats, err := s.store.Queries.CountAttendanceByTierForTeacher(r.Context(), teacher.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	activityCount, err := s.store.Queries.CountActivitiesByTeacher(r.Context(), teacher.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	var ranking *rankingSnapshotResponse
	if snapshot, err := s.store.Queries.GetLatestRankingByTeacher(r.Context(), teacher.ID); err == nil {
		mapped := mapRanking(snapshot)
		ranking = &mapped
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"teacher": map[string]any{
			"id":          uuidString(teacher.ID),
			"teacherCode": teacher.TeacherCode.String,
			"fullName":    teacher.FullName.String,
			"email":       teacher.Email.String,
			"status":      teacher.Status,
		},
		"summary": map[string]any{
			"activities": activityCount,
		},
		"attendanceStats": mapTierCounts(stats),
		"ranking":         ranking,
	})
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if claims.UserType != "admin" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	counts, err := s.store.Queries.GetEntityCounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	stats, err := s.store.Queries.CountAttendanceByTier(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	snapshots, err := s.store.Queries.ListTopRankings(r.Context(), 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	rankings := make([]rankingSnapshotResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		rankings = append(rankings, mapRanking(snapshot))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary": map[string]any{
			"teachers":   counts.Teachers,
			"classes":    counts.Classes,
			"subjects":   counts.Subjects,
			"chapters":   counts.Chapters,
			"activities": counts.Activities,
		},
		"attendanceStats": mapTierCounts(stats),
		"rankings":        rankings,
	})
}

// Leaderboard cache

const leaderboardCacheKey = "leaderboard:detailed"

func (s *Server) cachedLeaderboard(ctx context.Context) ([]byte, bool) {
	if s.redis == nil {
		return nil, false
	}
	value, err := s.redis.Get(ctx, leaderboardCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

func (s *Server) storeLeaderboard(ctx context.Context, payload []byte) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Set(ctx, leaderboardCacheKey, payload, s.cacheTTL).Err()
}

func (s *Server) invalidateLeaderboard(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, leaderboardCacheKey).Err()
}

// Mapping helpers

func mapAttendance(a db.Attendance) attendanceResponse {
	return attendanceResponse{
		ID:     uuidString(a.ID),
		Date:   a.AttendanceDate.Time.Format("2006-01-02"),
		Time:   a.MarkedAt.Time.Format("15:04"),
		Tier:   string(a.Tier),
		Points: a.Points,
	}
}

func mapActivity(a db.Activity) activityResponse {
	return activityResponse{
		ID:           uuidString(a.ID),
		TeacherID:    uuidString(a.TeacherID),
		ClassID:      uuidString(a.ClassID),
		SubjectID:    uuidString(a.SubjectID),
		ChapterID:    uuidString(a.ChapterID),
		ActivityName: a.ActivityName,
		Points:       a.Points,
		CreatedAt:    a.CreatedAt.Time,
	}
}

func mapRanking(r db.Ranking) rankingSnapshotResponse {
	return rankingSnapshotResponse{
		TeacherID:       uuidString(r.TeacherID),
		TeacherCode:     r.TeacherCode,
		TeacherName:     r.TeacherName,
		Week:            r.Week.String,
		Month:           r.Month.String,
		AttendanceScore: r.AttendanceScore,
		TaskScore:       r.TaskScore,
		TotalScore:      r.TotalScore,
		Rank:            r.Rank,
		GeneratedAt:     r.GeneratedAt.Time,
	}
}

func mapTierCounts(rows []db.CountAttendanceByTierRow) []attendanceStatRow {
	stats := make([]attendanceStatRow, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, attendanceStatRow{Tier: string(row.Tier), Total: row.Total})
	}
	return stats
}

func enrichedFromRow(row db.ActivityDetailedRow) scoring.EnrichedActivity {
	a := scoring.Activity{
		Name:        row.ActivityName,
		Points:      int(row.Points),
		CreatedAt:   row.CreatedAt.Time,
		ClassName:   row.ClassName.String,
		SubjectName: row.SubjectName.String,
		ChapterName: row.ChapterName.String,
	}
	return scoring.Enrich(a)
}

// Utilities

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func parseUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func pgDate(t time.Time) pgtype.Date {
	year, month, day := t.Date()
	return pgtype.Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}
