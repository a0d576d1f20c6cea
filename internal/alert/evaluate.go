package alert

import (
	"strconv"
)

// Kind identifies which bound a reading breached.
type Kind string

const (
	KindBelowMinimum Kind = "below_minimum"
	KindAboveMaximum Kind = "above_maximum"
)

// Alert is the outcome of a breached limit.
type Alert struct {
	Sensor  string  `json:"sensor"`
	Kind    Kind    `json:"kind"`
	Value   float64 `json:"value"`
	Limit   float64 `json:"limit"`
	Message string  `json:"message"`
}

// Evaluate returns an Alert when value breaches limit, or nil.
// A disabled limit never alerts.
func Evaluate(sensor string, limit Limit, value float64) *Alert {
	if !limit.Enabled {
		return nil
	}

	if limit.Min != nil && value < *limit.Min {
		return &Alert{
			Sensor:  sensor,
			Kind:    KindBelowMinimum,
			Value:   value,
			Limit:   *limit.Min,
			Message: sensor + " value " + formatFloat(value) + " is below minimum " + formatFloat(*limit.Min),
		}
	}

	if limit.Max != nil && value > *limit.Max {
		return &Alert{
			Sensor:  sensor,
			Kind:    KindAboveMaximum,
			Value:   value,
			Limit:   *limit.Max,
			Message: sensor + " value " + formatFloat(value) + " exceeds maximum " + formatFloat(*limit.Max),
		}
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
