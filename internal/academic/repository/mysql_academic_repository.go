package repository

import (
	"context"
	"database/sql"

	"github.com/GarciaKevinFab/academico-sync/internal/academic/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
)

// MySQLAcademicRepository reads local academic records from MySQL.
type MySQLAcademicRepository struct {
	db *sql.DB
}

// NewMySQLAcademicRepository creates a new MySQLAcademicRepository.
func NewMySQLAcademicRepository(db *sql.DB) *MySQLAcademicRepository {
	return &MySQLAcademicRepository{db: db}
}

// ListEnrollmentsByPeriod retrieves the period's enrollments.
func (m *MySQLAcademicRepository) ListEnrollmentsByPeriod(
	ctx context.Context,
	periodID string,
) ([]domain.Enrollment, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT student_id, period_id, program, status, enrolled_at
			  FROM enrollments
			  WHERE period_id = ?
			  ORDER BY student_id ASC`

	rows, err := querier.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list enrollments")
	}
	defer rows.Close() //nolint:errcheck

	var records []domain.Enrollment
	for rows.Next() {
		var r domain.Enrollment
		if err := rows.Scan(&r.StudentID, &r.PeriodID, &r.Program, &r.Status, &r.EnrolledAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan enrollment")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate enrollments")
	}
	return records, nil
}

// ListGradesByPeriod retrieves the period's grades.
func (m *MySQLAcademicRepository) ListGradesByPeriod(
	ctx context.Context,
	periodID string,
) ([]domain.Grade, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT grade_id, student_id, period_id, course_code, numerical_grade, status
			  FROM grades
			  WHERE period_id = ?
			  ORDER BY grade_id ASC`

	rows, err := querier.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list grades")
	}
	defer rows.Close() //nolint:errcheck

	var records []domain.Grade
	for rows.Next() {
		var r domain.Grade
		if err := rows.Scan(&r.GradeID, &r.StudentID, &r.PeriodID, &r.CourseCode, &r.NumericalGrade, &r.Status); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan grade")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate grades")
	}
	return records, nil
}

// ListCertificatesByPeriod retrieves the period's certificates.
func (m *MySQLAcademicRepository) ListCertificatesByPeriod(
	ctx context.Context,
	periodID string,
) ([]domain.Certificate, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT certificate_id, student_id, period_id, certificate_type, status, issued_at
			  FROM certificates
			  WHERE period_id = ?
			  ORDER BY certificate_id ASC`

	rows, err := querier.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list certificates")
	}
	defer rows.Close() //nolint:errcheck

	var records []domain.Certificate
	for rows.Next() {
		var r domain.Certificate
		if err := rows.Scan(&r.CertificateID, &r.StudentID, &r.PeriodID, &r.CertificateType, &r.Status, &r.IssuedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan certificate")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate certificates")
	}
	return records, nil
}
