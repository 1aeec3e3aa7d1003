package dataset

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/spacesedan/tokharvest/internal/models"
)

func EncodeRows(rows []models.CollectedRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return nil, fmt.Errorf("[DatasetCodec] failed to encode rows: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeRows(data []byte) ([]models.CollectedRow, error) {
	rows, err := parquet.Read[models.CollectedRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("[DatasetCodec] failed to decode rows: %w", err)
	}
	for i := range rows {
		if rows[i].TopComments == nil {
			rows[i].TopComments = []string{}
		}
	}
	return rows, nil
}
