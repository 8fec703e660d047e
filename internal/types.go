package internal

import "time"

// Run states recorded in the history database.
const (
	RunRunning     = "running"
	RunCompleted   = "completed"
	RunFailed      = "failed"
	RunInterrupted = "interrupted"
)

// CleaningRun is one invocation of the cleaning pipeline.
type CleaningRun struct {
	ID          string    `json:"id"`
	InputDir    string    `json:"input_dir"`
	OutputDir   string    `json:"output_dir"`
	SourceLang  string    `json:"source_lang"`
	TargetLang  string    `json:"target_lang"`
	Concurrency int       `json:"concurrency"`
	Corpora     int       `json:"corpora"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
}

// CorpusResult holds the counters of one corpus cleaned during a run.
type CorpusResult struct {
	RunID    string        `json:"run_id"`
	Corpus   string        `json:"corpus"`
	Read     int           `json:"read"`
	Written  int           `json:"written"`
	Dropped  int           `json:"dropped"`
	Digest   string        `json:"digest,omitempty"`
	Duration time.Duration `json:"duration"`
}
