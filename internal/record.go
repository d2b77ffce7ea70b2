package internal

// Record is an ordered set of column names and their values, one row read
// back from the destination table during a snapshot. Column order matters to
// the parquet serializer, so names and values live in parallel slices.
type Record struct {
	fields []string
	values []any
}

func NewRecord(fields []string, values []any) *Record {
	return &Record{
		fields: fields,
		values: values,
	}
}

func (r *Record) Len() int {
	return len(r.fields)
}

func (r *Record) Fields() []string {
	return r.fields
}

func (r *Record) Values() []any {
	return r.values
}

func (r *Record) Map() map[string]any {
	m := make(map[string]any)
	for i, field := range r.fields {
		m[field] = r.values[i]
	}
	return m
}
