package queryUtils

import (
	"bytes"
	"text/template"

	"gorm.io/gorm"
)

const (
	Dialect_Postgres = "postgres"
	Dialect_Sqlite   = "sqlite"
)

func RenderQueryTemplate(query string, variables map[string]string) (string, error) {
	queryTmpl, err := template.New("").Parse(query)
	if err != nil {
		return "", err
	}

	var dest bytes.Buffer
	if err := queryTmpl.Execute(&dest, variables); err != nil {
		return "", err
	}
	return dest.String(), nil
}

// JsonObjectAgg returns the aggregate expression that folds key/value columns
// into a JSON object rendered as text for the connected database.
func JsonObjectAgg(grm *gorm.DB, keyColumn string, valueColumn string) string {
	if grm.Dialector.Name() == Dialect_Sqlite {
		return "json_group_object(" + keyColumn + ", " + valueColumn + ")"
	}
	return "jsonb_object_agg(" + keyColumn + ", " + valueColumn + ")::text"
}
