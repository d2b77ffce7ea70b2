// Package parquet preserves table records as parquet parts in a repository.
package parquet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal"
)

const defaultBatchSizeNumRecords = 1000

type Option func(*Preserver)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Preserver) {
		p.logger = logger
	}
}

func WithSchema(schema Schema) Option {
	return func(p *Preserver) {
		p.schema = schema
	}
}

func WithRepository(repository internal.Repository) Option {
	return func(p *Preserver) {
		p.repository = repository
	}
}

func WithBatchSizeNumRecords(n int) Option {
	return func(p *Preserver) {
		p.batchSize = n
	}
}

// Preserver buffers records into parquet parts of batchSize rows and writes
// each finished part to the repository.
type Preserver struct {
	logger     *zap.Logger
	schema     Schema
	repository internal.Repository
	batchSize  int

	buf  *bytes.Buffer
	file source.ParquetFile
	pw   *writer.CSVWriter

	numInPart int
	numParts  int
	processed int
}

func New(opts ...Option) (*Preserver, error) {
	p := &Preserver{
		logger:    zap.NewNop(),
		batchSize: defaultBatchSizeNumRecords,
	}

	for _, opt := range opts {
		opt(p)
	}

	if len(p.schema) == 0 {
		return nil, fmt.Errorf("parquet: schema is required")
	}
	if p.repository == nil {
		return nil, fmt.Errorf("parquet: repository is required")
	}

	return p, nil
}

// Preserve adds one record to the current part, cutting a new part when the
// batch size is reached.
func (p *Preserver) Preserve(ctx context.Context, record *internal.Record) error {
	if p.pw == nil {
		if err := p.openPart(); err != nil {
			return err
		}
	}

	row, err := p.schema.RecordToParquetRow(record)
	if err != nil {
		return err
	}

	if err := p.pw.Write(row); err != nil {
		return err
	}

	p.numInPart++
	p.processed++

	if p.numInPart >= p.batchSize {
		return p.closePart(ctx)
	}
	return nil
}

// Flush finalizes the in-progress part, if any.
func (p *Preserver) Flush(ctx context.Context) error {
	if p.pw == nil {
		return nil
	}
	return p.closePart(ctx)
}

func (p *Preserver) Processed() int {
	return p.processed
}

func (p *Preserver) Parts() int {
	return p.numParts
}

func (p *Preserver) openPart() error {
	p.buf = &bytes.Buffer{}
	p.file = writerfile.NewWriterFile(p.buf)

	pw, err := writer.NewCSVWriter(p.schema.ToGoParquetSchema(), p.file, 1)
	if err != nil {
		return err
	}

	p.pw = pw
	p.numInPart = 0
	return nil
}

func (p *Preserver) closePart(ctx context.Context) error {
	if err := p.pw.WriteStop(); err != nil {
		return err
	}
	if err := p.file.Close(); err != nil {
		return err
	}

	key := fmt.Sprintf("part-%05d.parquet", p.numParts)
	p.logger.Info("writing parquet part",
		zap.String("key", key),
		zap.Int("records", p.numInPart),
	)

	if err := p.repository.Write(ctx, key, bytes.NewReader(p.buf.Bytes())); err != nil {
		return err
	}

	p.numParts++
	p.pw = nil
	p.file = nil
	p.buf = nil
	return nil
}
