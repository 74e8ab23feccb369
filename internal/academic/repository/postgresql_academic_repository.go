// Package repository implements read-only queries over the local academic
// tables. Both PostgreSQL and MySQL are supported, mirroring the outbox
// repositories.
package repository

import (
	"context"
	"database/sql"

	"github.com/GarciaKevinFab/academico-sync/internal/academic/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
)

// PostgreSQLAcademicRepository reads local academic records from PostgreSQL.
type PostgreSQLAcademicRepository struct {
	db *sql.DB
}

// NewPostgreSQLAcademicRepository creates a new PostgreSQLAcademicRepository.
func NewPostgreSQLAcademicRepository(db *sql.DB) *PostgreSQLAcademicRepository {
	return &PostgreSQLAcademicRepository{db: db}
}

// ListEnrollmentsByPeriod retrieves the period's enrollments.
func (p *PostgreSQLAcademicRepository) ListEnrollmentsByPeriod(
	ctx context.Context,
	periodID string,
) ([]domain.Enrollment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT student_id, period_id, program, status, enrolled_at
			  FROM enrollments
			  WHERE period_id = $1
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
func (p *PostgreSQLAcademicRepository) ListGradesByPeriod(
	ctx context.Context,
	periodID string,
) ([]domain.Grade, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT grade_id, student_id, period_id, course_code, numerical_grade, status
			  FROM grades
			  WHERE period_id = $1
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
func (p *PostgreSQLAcademicRepository) ListCertificatesByPeriod(
	ctx context.Context,
	periodID string,
) ([]domain.Certificate, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT certificate_id, student_id, period_id, certificate_type, status, issued_at
			  FROM certificates
			  WHERE period_id = $1
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
