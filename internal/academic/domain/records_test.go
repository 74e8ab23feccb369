package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade_Fields(t *testing.T) {
	g := Grade{
		GradeID:        "G-1",
		StudentID:      "S-100",
		PeriodID:       "2026-I",
		CourseCode:     "MAT-101",
		NumericalGrade: 14,
		Status:         "REGISTRADA",
	}

	fields := g.Fields()

	assert.Equal(t, "G-1", g.Key())
	// Whole grades render without a decimal part so they compare equal to
	// ministry values.
	assert.Equal(t, "14", fields["numerical_grade"])
	assert.Equal(t, "MAT-101", fields["course_code"])

	g.NumericalGrade = 13.5
	assert.Equal(t, "13.5", g.Fields()["numerical_grade"])
}

func TestEnrollment_Fields(t *testing.T) {
	e := Enrollment{
		StudentID:  "S-100",
		PeriodID:   "2026-I",
		Program:    "Enfermeria Tecnica",
		Status:     "ACTIVA",
		EnrolledAt: "2026-03-15",
	}

	assert.Equal(t, "S-100", e.Key())
	assert.Equal(t, map[string]string{
		"period_id":   "2026-I",
		"program":     "Enfermeria Tecnica",
		"status":      "ACTIVA",
		"enrolled_at": "2026-03-15",
	}, e.Fields())
}

func TestCertificate_Fields(t *testing.T) {
	c := Certificate{
		CertificateID:   "C-9",
		StudentID:       "S-100",
		PeriodID:        "2026-II",
		CertificateType: "EGRESADO",
		Status:          "EMITIDO",
		IssuedAt:        "2026-12-20",
	}

	assert.Equal(t, "C-9", c.Key())
	assert.Equal(t, "EGRESADO", c.Fields()["certificate_type"])
}
