package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

func nullableString(s string) interface{} {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonValue 將 map/slice 轉成 JSONB 參數；nil 以 fallback 取代。
func jsonValue(v interface{}, fallback string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	if string(b) == "null" {
		return fallback, nil
	}
	return string(b), nil
}

func scanJSON(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}
