package domain

// Payload shapes for the three synchronized entity types. The JSON field
// names follow the ministry write-API contract, so a marshaled payload can
// be posted as-is.

// EnrollmentPayload is the matricula submission body.
type EnrollmentPayload struct {
	StudentID  string `json:"estudiante_id"`
	PeriodID   string `json:"periodo"`
	Program    string `json:"programa"`
	Status     string `json:"estado"`
	EnrolledAt string `json:"fecha_matricula"`
}

// GradePayload is the calificacion submission body.
type GradePayload struct {
	GradeID        string  `json:"calificacion_id"`
	StudentID      string  `json:"estudiante_id"`
	PeriodID       string  `json:"periodo"`
	CourseCode     string  `json:"codigo_curso"`
	NumericalGrade float64 `json:"nota_numerica"`
	Status         string  `json:"estado"`
}

// CertificatePayload is the certificado submission body.
type CertificatePayload struct {
	CertificateID   string `json:"certificado_id"`
	StudentID       string `json:"estudiante_id"`
	PeriodID        string `json:"periodo"`
	CertificateType string `json:"tipo_certificado"`
	Status          string `json:"estado"`
	IssuedAt        string `json:"fecha_emision"`
}
