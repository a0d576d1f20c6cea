package ingest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/nerrad567/homesync-core/internal/tenant"
)

// payload is the wire form published by sensors:
//
//	{"value": 21.5, "unit": "°C", "timestamp": 1760000000000}
type payload struct {
	Value     *float64 `json:"value"`
	Unit      *string  `json:"unit"`
	Timestamp *int64   `json:"timestamp"`
}

// decode parses a reading. A missing unit falls back to defaultUnit and a
// missing or non-positive timestamp to nowMillis.
func decode(data []byte, defaultUnit string, nowMillis int64) (tenant.Reading, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return tenant.Reading{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if p.Value == nil {
		return tenant.Reading{}, fmt.Errorf("%w: missing value", ErrMalformed)
	}
	if math.IsNaN(*p.Value) || math.IsInf(*p.Value, 0) {
		return tenant.Reading{}, fmt.Errorf("%w: value is not finite", ErrMalformed)
	}

	r := tenant.Reading{
		Value:     *p.Value,
		Unit:      defaultUnit,
		Timestamp: nowMillis,
	}
	if p.Unit != nil {
		r.Unit = *p.Unit
	}
	if p.Timestamp != nil && *p.Timestamp > 0 {
		r.Timestamp = *p.Timestamp
	}
	return r, nil
}
