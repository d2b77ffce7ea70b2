// Package catalog records what a snapshot produced. The catalog is written
// next to the parquet parts and is the primitive for verifying and auditing
// archived datasets.
package catalog

import "time"

// Catalog is the audit record of one snapshot of the collected table.
type Catalog struct {
	SnapshotID          string    `json:"snapshot_id"`
	Table               string    `json:"table"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	NumSourceRecords    int       `json:"num_source_records"`
	NumRecordsProcessed int       `json:"num_records_processed"`
	NumParts            int       `json:"num_parts"`
	Success             bool      `json:"success"`
}
