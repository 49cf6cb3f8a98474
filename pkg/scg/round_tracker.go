package scg

import (
	"encoding/json"
	"os"
	"time"
)

// RoundEvent is one JSON line written per round
type RoundEvent struct {
	Rounding  string  `json:"rounding"`
	Round     int     `json:"round"`
	Z         int     `json:"z"`
	Positive  int     `json:"positive"`
	Negative  int     `json:"negative"`
	Active    int     `json:"active"`
	Largest   float64 `json:"largest_eigenvalue"`
	Smallest  float64 `json:"smallest_eigenvalue"`
	Rayleigh  float64 `json:"rayleigh_quotient"`
	Objective float64 `json:"objective"`
	Timestamp int64   `json:"timestamp"`
}

// RoundTracker appends round events to a JSON-lines file. A nil tracker
// ignores every call.
type RoundTracker struct {
	file     *os.File
	encoder  *json.Encoder
	rounding string
}

func NewRoundTracker(filename, rounding string) (*RoundTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &RoundTracker{
		file:     file,
		encoder:  json.NewEncoder(file),
		rounding: rounding,
	}, nil
}

func (rt *RoundTracker) LogRound(info RoundInfo) error {
	if rt == nil {
		return nil
	}

	return rt.encoder.Encode(RoundEvent{
		Rounding:  rt.rounding,
		Round:     info.Round,
		Z:         info.Z,
		Positive:  info.Positive,
		Negative:  info.Negative,
		Active:    info.ActiveAfter,
		Largest:   info.LargestEigen,
		Smallest:  info.SmallestEigen,
		Rayleigh:  info.Rayleigh,
		Objective: info.Objective,
		Timestamp: time.Now().Unix(),
	})
}

func (rt *RoundTracker) Close() error {
	if rt == nil || rt.file == nil {
		return nil
	}
	return rt.file.Close()
}
