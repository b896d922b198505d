package ingest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/Aytaditya/salessense/internal/dataset"
)

// FromParquet decodes a parquet file into a Dataset. Only flat schemas are
// supported; nested groups are rejected by the column-index mapping.
func FromParquet(raw []byte) (*dataset.Dataset, error) {
	file, err := parquet.OpenFile(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	fields := file.Schema().Fields()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name()
	}

	var out [][]any
	for _, rowGroup := range file.RowGroups() {
		rows := rowGroup.Rows()
		buf := make([]parquet.Row, 128)
		for {
			n, err := rows.ReadRows(buf)
			for _, parquetRow := range buf[:n] {
				row := make([]any, len(columns))
				for _, value := range parquetRow {
					idx := value.Column()
					if idx < 0 || idx >= len(columns) {
						_ = rows.Close()
						return nil, fmt.Errorf("parquet schema is not flat")
					}
					row[idx] = convertParquetValue(value)
				}
				out = append(out, row)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("read parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close parquet rows: %w", err)
		}
	}

	return &dataset.Dataset{Columns: columns, Rows: out}, nil
}

func convertParquetValue(value parquet.Value) any {
	if value.IsNull() {
		return nil
	}
	switch value.Kind() {
	case parquet.Boolean:
		return value.Boolean()
	case parquet.Int32:
		return float64(value.Int32())
	case parquet.Int64:
		return float64(value.Int64())
	case parquet.Float:
		return dataset.ScrubValue(float64(value.Float()))
	case parquet.Double:
		return dataset.ScrubValue(value.Double())
	default:
		return value.String()
	}
}
