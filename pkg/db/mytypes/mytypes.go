// Package mytypes holds column types stored as JSON.
package mytypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Splits maps checkpoint tags to the split time since the lap start.
type Splits map[uint8]time.Duration

func (h *Splits) Scan(value any) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case nil:
		*h = Splits{}
		return nil
	default:
		return fmt.Errorf("value is not []byte")
	}

	return json.Unmarshal(bytes, &h)
}

func (h Splits) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
