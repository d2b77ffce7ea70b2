package parquet

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbitlytics/neocollector/internal"
)

type Field struct {
	Name          string
	Type          string
	ConvertedType string
}

type Schema []Field

// NeoSchema is the parquet layout of the collected table, in the snapshot
// source's column order.
func NeoSchema() Schema {
	return Schema{
		{Name: "id", Type: "INT64"},
		{Name: "neo_reference_id", Type: "BYTE_ARRAY", ConvertedType: "UTF8"},
		{Name: "name", Type: "BYTE_ARRAY", ConvertedType: "UTF8"},
		{Name: "nasa_jpl_url", Type: "BYTE_ARRAY", ConvertedType: "UTF8"},
		{Name: "absolute_magnitude_h", Type: "DOUBLE"},
		{Name: "is_potentially_hazardous_asteroid", Type: "BOOLEAN"},
		{Name: "is_sentry_object", Type: "BOOLEAN"},
		{Name: "estimated_diameter_min", Type: "DOUBLE"},
		{Name: "estimated_diameter_max", Type: "DOUBLE"},
		{Name: "close_approach_datetime", Type: "INT64", ConvertedType: "TIMESTAMP_MILLIS"},
		{Name: "relative_velocity", Type: "DOUBLE"},
		{Name: "miss_distance", Type: "DOUBLE"},
		{Name: "orbiting_body", Type: "BYTE_ARRAY", ConvertedType: "UTF8"},
	}
}

func (s Schema) ToGoParquetSchema() []string {
	schema := make([]string, len(s))
	for i, field := range s {
		parts := []string{
			fmt.Sprintf("name=%s", field.Name),
			fmt.Sprintf("type=%s", field.Type),
		}
		if field.ConvertedType != "" {
			parts = append(parts, fmt.Sprintf("convertedtype=%s", field.ConvertedType))
		}
		schema[i] = strings.Join(parts, ", ")
	}

	return schema
}

func (s Schema) RecordToParquetRow(r *internal.Record) ([]any, error) {
	if len(s) != r.Len() {
		return nil, fmt.Errorf(
			"schema and record fields mismatch: schema has %d fields, record has %d fields",
			len(s),
			r.Len(),
		)
	}

	row := make([]any, len(s))
	values := r.Values()

	for i, field := range s {
		row[i] = values[i]
		switch field.ConvertedType {
		case "TIMESTAMP_MILLIS":
			t, ok := values[i].(time.Time)
			if !ok {
				return nil, fmt.Errorf("field %s: expected time.Time, got %T", field.Name, values[i])
			}
			row[i] = t.UnixMilli()
		}
	}

	return row, nil
}
