package ministry

import "fmt"

// vocabulary maps local field names to the ministry's field names, per
// entity type. The reconciler compares records in the local vocabulary;
// LocalizeRecord translates ministry responses into it.
var vocabulary = map[string]map[string]string{
	EntityEnrollment: {
		"entity_id":   "estudiante_id",
		"status":      "estado",
		"period_id":   "periodo",
		"program":     "programa",
		"enrolled_at": "fecha_matricula",
	},
	EntityGrade: {
		"entity_id":       "calificacion_id",
		"status":          "estado",
		"period_id":       "periodo",
		"course_code":     "codigo_curso",
		"numerical_grade": "nota_numerica",
	},
	EntityCertificate: {
		"entity_id":        "certificado_id",
		"status":           "estado",
		"period_id":        "periodo",
		"certificate_type": "tipo_certificado",
		"issued_at":        "fecha_emision",
	},
}

// RemoteFieldName returns the ministry's name for a local field, or the
// local name unchanged when no mapping exists.
func RemoteFieldName(entityType, localField string) string {
	if m, ok := vocabulary[entityType]; ok {
		if remote, ok := m[localField]; ok {
			return remote
		}
	}
	return localField
}

// LocalizeRecord translates one ministry record into the local vocabulary.
// Unmapped remote fields are dropped; only fields both sides know about can
// be compared meaningfully.
func LocalizeRecord(entityType string, raw map[string]any) RemoteRecord {
	rec := RemoteRecord{Fields: make(map[string]string)}
	m, ok := vocabulary[entityType]
	if !ok {
		return rec
	}
	for localField, remoteField := range m {
		value, present := raw[remoteField]
		if !present {
			continue
		}
		s := stringify(value)
		if localField == "entity_id" {
			rec.Key = s
			continue
		}
		rec.Fields[localField] = s
	}
	return rec
}

// stringify normalizes JSON scalar values for field comparison. Numbers are
// formatted without a trailing ".0" for whole values so 9 and 9.0 compare
// equal across the two APIs.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
