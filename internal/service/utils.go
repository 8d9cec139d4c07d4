package service

import (
	"encoding/json"
	"fmt"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func requireExactlyOne(rows int64, operation string) error {
	if rows != 1 {
		return fmt.Errorf("%s affected %d rows", operation, rows)
	}
	return nil
}

func marshalReasonMetadata(reason string) ([]byte, error) {
	return json.Marshal(map[string]string{
		"reason": reason,
	})
}

// marshalMetadata encodes audit metadata, dropping empty values.
func marshalMetadata(kv map[string]string) []byte {
	clean := make(map[string]string, len(kv))
	for k, v := range kv {
		if v != "" {
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		return nil
	}
	out, err := json.Marshal(clean)
	if err != nil {
		return nil
	}
	return out
}

// pageBounds converts a 1-based page into limit/offset.
func pageBounds(page, pageSize int) (int32, int32) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return int32(pageSize), int32((page - 1) * pageSize)
}
