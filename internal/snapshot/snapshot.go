// Package snapshot archives the collected table as parquet parts plus a
// catalog record describing what was written.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal"
	"github.com/orbitlytics/neocollector/internal/catalog"
	"github.com/orbitlytics/neocollector/internal/parquet"
)

const catalogKey = "catalog.json"

type Option func(*Snapshotter)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Snapshotter) {
		s.logger = logger
	}
}

func WithSource(source *Source) Option {
	return func(s *Snapshotter) {
		s.source = source
	}
}

func WithPreserver(preserver *parquet.Preserver) Option {
	return func(s *Snapshotter) {
		s.preserver = preserver
	}
}

func WithRepository(repository internal.Repository) Option {
	return func(s *Snapshotter) {
		s.repository = repository
	}
}

// Snapshotter drains the source through the preserver and writes a catalog
// next to the parquet parts.
type Snapshotter struct {
	logger     *zap.Logger
	source     *Source
	preserver  *parquet.Preserver
	repository internal.Repository
}

func New(opts ...Option) *Snapshotter {
	s := &Snapshotter{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Snapshotter) Close(ctx context.Context) error {
	return s.source.Close(ctx)
}

func (s *Snapshotter) Run(ctx context.Context, sid uuid.UUID) (*catalog.Catalog, error) {
	cat := &catalog.Catalog{
		SnapshotID: sid.String(),
		Table:      s.source.Name(),
		StartTime:  time.Now().UTC(),
	}

	numSource, err := s.source.Count(ctx)
	if err != nil {
		return nil, err
	}
	cat.NumSourceRecords = numSource

	s.logger.Info("starting snapshot",
		zap.String("snapshot_id", sid.String()),
		zap.String("table", cat.Table),
		zap.Int("num_source_records", numSource),
	)

	cursor, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for {
		record, err := cursor.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := s.preserver.Preserve(ctx, record); err != nil {
			return nil, err
		}
	}

	if err := s.preserver.Flush(ctx); err != nil {
		return nil, err
	}

	cat.EndTime = time.Now().UTC()
	cat.NumRecordsProcessed = s.preserver.Processed()
	cat.NumParts = s.preserver.Parts()
	cat.Success = cat.NumRecordsProcessed == cat.NumSourceRecords

	if err := s.writeCatalog(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot complete",
		zap.String("snapshot_id", sid.String()),
		zap.Int("num_records_processed", cat.NumRecordsProcessed),
		zap.Int("num_parts", cat.NumParts),
		zap.Bool("success", cat.Success),
	)

	return cat, nil
}

func (s *Snapshotter) writeCatalog(ctx context.Context, cat *catalog.Catalog) error {
	bs, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return err
	}
	return s.repository.Write(ctx, catalogKey, bytes.NewReader(bs))
}
