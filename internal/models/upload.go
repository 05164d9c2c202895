package models

// UploadedFile is the single value type produced at the HTTP boundary for an
// incoming archive, replacing any further inspection of the transport object.
type UploadedFile struct {
	Path         string
	Size         int64
	OriginalName string
}

// UploadStage tracks how far an upload made it through the pipeline.
type UploadStage string

const (
	UploadStageReceived          UploadStage = "received"
	UploadStageExtracted         UploadStage = "extracted"
	UploadStageStatusFileLocated UploadStage = "status_file_located"
	UploadStageStatusFileParsed  UploadStage = "status_file_parsed"
	UploadStageUpdatesApplied    UploadStage = "updates_applied"
	UploadStageSessionFlagged    UploadStage = "session_flagged"
	UploadStageAborted           UploadStage = "aborted"
)

// UploadResult is the consolidated outcome of one status-file upload. The
// pipeline never raises past the request boundary; whatever happened is
// reported here.
type UploadResult struct {
	Stage          UploadStage `json:"stage"`
	UpdatesApplied bool        `json:"updatesApplied"`
	AppliedCount   int         `json:"appliedCount"`
	FailedSubjects []string    `json:"failedSubjects,omitempty"`
	FeedbackFiles  int         `json:"feedbackFiles"`
	SecurityEvents int         `json:"securityEvents"`
	Message        string      `json:"message,omitempty"`
}
