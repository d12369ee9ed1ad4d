package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "staff_attendance_marks_total",
		Help: "Attendance marks created, by punctuality tier.",
	}, []string{"tier"})

	activityWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "staff_activity_writes_total",
		Help: "Activity create/rename/delete operations.",
	}, []string{"op"})
)
