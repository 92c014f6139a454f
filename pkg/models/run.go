package models

import "time"

type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

type Phase string

const (
	PhaseAuthors    Phase = "authors"
	PhaseTaxonomies Phase = "taxonomies"
	PhaseMedia      Phase = "media"
	PhasePosts      Phase = "posts"
)

type FailureType string

const (
	FailureFetchExhausted FailureType = "fetch_exhausted"
	FailureWrite          FailureType = "write_error"
	FailureMediaDownload  FailureType = "media_download"
)

type Failure struct {
	Type    FailureType `json:"type"`
	Kind    Kind        `json:"kind,omitempty"`
	ID      int         `json:"id,omitempty"`
	Page    int         `json:"page,omitempty"`
	Message string      `json:"message"`
}

type Counts struct {
	Posts      int `json:"posts"`
	Authors    int `json:"authors"`
	Categories int `json:"categories"`
	Tags       int `json:"tags"`
	Media      int `json:"media"`
}

type Reference struct {
	Kind Kind `json:"kind"`
	ID   int  `json:"id"`
}

type BackupRun struct {
	SiteURL        string      `json:"site_url"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
	State          RunState    `json:"state"`
	Counts         Counts      `json:"counts"`
	Failures       []Failure   `json:"failures,omitempty"`
	UnresolvedRefs []Reference `json:"unresolved_refs,omitempty"`
}
