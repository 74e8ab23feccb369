// Package domain defines read-only views over the local academic records
// (enrollments, grades, certificates). The CRUD side that owns these tables
// lives in another service; this one only reads them per period to produce
// submissions and reconciliation diffs.
package domain

import "strconv"

// Enrollment is a local matricula record.
type Enrollment struct {
	StudentID  string
	PeriodID   string
	Program    string
	Status     string
	EnrolledAt string
}

// Key returns the diffing key for the record.
func (e Enrollment) Key() string { return e.StudentID }

// Fields returns the comparable fields in the local vocabulary.
func (e Enrollment) Fields() map[string]string {
	return map[string]string{
		"period_id":   e.PeriodID,
		"program":     e.Program,
		"status":      e.Status,
		"enrolled_at": e.EnrolledAt,
	}
}

// Grade is a local calificacion record.
type Grade struct {
	GradeID        string
	StudentID      string
	PeriodID       string
	CourseCode     string
	NumericalGrade float64
	Status         string
}

// Key returns the diffing key for the record.
func (g Grade) Key() string { return g.GradeID }

// Fields returns the comparable fields in the local vocabulary.
func (g Grade) Fields() map[string]string {
	return map[string]string{
		"period_id":       g.PeriodID,
		"course_code":     g.CourseCode,
		"numerical_grade": formatNumber(g.NumericalGrade),
		"status":          g.Status,
	}
}

// Certificate is a local certificado record.
type Certificate struct {
	CertificateID   string
	StudentID       string
	PeriodID        string
	CertificateType string
	Status          string
	IssuedAt        string
}

// Key returns the diffing key for the record.
func (c Certificate) Key() string { return c.CertificateID }

// Fields returns the comparable fields in the local vocabulary.
func (c Certificate) Fields() map[string]string {
	return map[string]string{
		"period_id":        c.PeriodID,
		"certificate_type": c.CertificateType,
		"status":           c.Status,
		"issued_at":        c.IssuedAt,
	}
}

// formatNumber renders grades the same way ministry responses are
// normalized, so 14 and 14.0 compare equal.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
