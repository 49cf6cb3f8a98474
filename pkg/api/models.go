package api

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gilchrisn/polarized-clustering-service/pkg/evaluation"
	"github.com/gilchrisn/polarized-clustering-service/pkg/experiment"
	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
)

// JobRequest is the body of POST /jobs. Exactly one of Dataset and EdgeList
// names the input graph.
type JobRequest struct {
	Dataset  string `json:"dataset,omitempty" validate:"required_without=EdgeList,excluded_with=EdgeList,dataset"`
	EdgeList string `json:"edgeList,omitempty" validate:"required_without=Dataset"`
	K        int    `json:"k" validate:"gte=2"`
	Rounding string `json:"rounding,omitempty" validate:"omitempty,rounding"`
	Seed     *int64 `json:"seed,omitempty"`
}

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	_ = requestValidate.RegisterValidation("rounding", func(fl validator.FieldLevel) bool {
		return scg.IsRoundingStrategy(fl.Field().String())
	})
	_ = requestValidate.RegisterValidation("dataset", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name == "" || experiment.IsDataset(name)
	})
}

// Validate checks the shape of the request before any configuration is built
func (r JobRequest) Validate() error {
	return requestValidate.Struct(r)
}

// Job represents a clustering job
type Job struct {
	ID          string      `json:"id"`
	Request     JobRequest  `json:"request"`
	Status      JobStatus   `json:"status"`
	Progress    JobProgress `json:"progress"`
	Result      *JobResult  `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the job can no longer change state
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

type JobProgress struct {
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	Message     string `json:"message"`
}

// JobResult is the outcome of a completed job. Assignment maps node ids to
// labels 1..K, with -1 for neutral nodes.
type JobResult struct {
	Assignment map[string]int     `json:"assignment"`
	Summary    evaluation.Summary `json:"summary"`
	Rounds     []scg.RoundInfo    `json:"rounds"`
}

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
