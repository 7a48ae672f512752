package domain

import (
	"slices"
	"strings"
	"time"
)

// JobStatus enumerates the provider-side lifecycle states of a generation job.
type JobStatus string

const (
	JobStatusWait JobStatus = "WAIT"
	JobStatusRun  JobStatus = "RUN"
	JobStatusDone JobStatus = "DONE"
	JobStatusFail JobStatus = "FAIL"
)

// ParseJobStatus normalizes a provider status string. Unknown values are kept
// verbatim because the remote side is authoritative.
func ParseJobStatus(s string) JobStatus {
	return JobStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// IsTerminal reports whether the job is not expected to change anymore.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusFail
}

// ResultFile locates one generated asset at the provider.
type ResultFile struct {
	Type       string `json:"type"`
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// JobError carries the provider failure detail of a FAIL job.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *JobError) String() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Code + " " + e.Message)
}

// Edition names the provider API a job was submitted through. A job must be
// polled through the same API.
type Edition string

const (
	EditionStandard Edition = ""
	EditionPro      Edition = "pro"
)

// Generation types accepted by the pro API.
const (
	GenerateNormal   = "Normal"
	GenerateLowPoly  = "LowPoly"
	GenerateGeometry = "Geometry"
	GenerateSketch   = "Sketch"
)

// GenerateTypes lists the pro generation types.
var GenerateTypes = []string{GenerateNormal, GenerateLowPoly, GenerateGeometry, GenerateSketch}

// Face count bounds of the pro API.
const (
	MinFaceCount = 40000
	MaxFaceCount = 500000
)

// Job is the locally cached view of the last observed remote job state.
type Job struct {
	ID        string       `json:"job_id"`
	Edition   Edition      `json:"edition,omitempty"`
	Status    JobStatus    `json:"status"`
	Files     []ResultFile `json:"files"`
	Error     *JobError    `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	UpdatedAt time.Time    `json:"updated_at,omitzero"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (j Job) Clone() Job {
	out := j
	out.Files = slices.Clone(j.Files)
	if j.Error != nil {
		e := *j.Error
		out.Error = &e
	}
	return out
}

// SubmitPayload is the normalized request handed to the provider. FaceCount
// and GenerateType are only understood by the pro API.
type SubmitPayload struct {
	Prompt       string
	ImageBase64  string
	ResultFormat string
	EnablePBR    bool
	FaceCount    *int64
	GenerateType string
}

// Edition reports which provider API the payload needs.
func (p SubmitPayload) Edition() Edition {
	if p.FaceCount != nil || p.GenerateType != "" {
		return EditionPro
	}
	return EditionStandard
}

// QueryResult is the provider's answer to a status poll.
type QueryResult struct {
	Status    JobStatus
	Files     []ResultFile
	Error     *JobError
	RequestID string
}
