package postgres

import (
	"encoding/json"
	"fmt"
)

func jsonBytes(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	return data, nil
}

func jsonUnmarshal(data []byte, v any) error {
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
