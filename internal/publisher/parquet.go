package publisher

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/hogyzen12/optimisoor/models"
)

// HoldingRow is the parquet schema for the per-cycle holdings export.
type HoldingRow struct {
	AssetID string  `parquet:"name=asset_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Owner   string  `parquet:"name=owner, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount  float64 `parquet:"name=amount, type=DOUBLE"`
}

// memoryFileWriter implements ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{
		buffer: &bytes.Buffer{},
	}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

// buildHoldingsParquet flattens a snapshot into one snappy-compressed
// parquet file, ordered by asset id for stable output.
func buildHoldingsParquet(snap models.Snapshot) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := writer.NewParquetWriter(fw, new(HoldingRow), 4)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	assetIDs := make([]string, 0, len(snap))
	for assetID := range snap {
		assetIDs = append(assetIDs, assetID)
	}
	sort.Strings(assetIDs)

	for _, assetID := range assetIDs {
		for _, holding := range snap[assetID] {
			row := HoldingRow{
				AssetID: assetID,
				Owner:   holding.Owner,
				Amount:  holding.Amount,
			}
			if err := pw.Write(row); err != nil {
				pw.WriteStop()
				return nil, fmt.Errorf("write parquet row: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet file: %w", err)
	}
	return fw.Bytes(), nil
}
