package typeconv

// MapGoTypeToSQL picks the column type for a model field. sqlite has no
// native UUID or JSONB type and stores them as TEXT.
func MapGoTypeToSQL(goType, provider string) string {
	sqlite := provider == "sqlite"
	switch goType {
	case "int", "int32":
		return "INTEGER"
	case "int64":
		return "BIGINT"
	case "string":
		return "TEXT"
	case "bool":
		return "BOOLEAN"
	case "float32", "float64":
		return "REAL"
	case "time.Time":
		return "TIMESTAMP"
	case "uuid.UUID":
		if sqlite {
			return "TEXT"
		}
		return "UUID"
	case "map[string]interface{}":
		if sqlite {
			return "TEXT"
		}
		return "JSONB"
	default:
		return "TEXT"
	}
}
