package scan

// State represents where a session is in its lifecycle.
type State string

const (
	StateInitializing State = "initializing"
	StateCheckingURL  State = "checking_url"
	StateLaunching    State = "launching"
	StateRunningPrep  State = "running_prep"
	StateRunningTasks State = "running_tasks"
	StateClosing      State = "closing"
	StateUploading    State = "uploading"
	StateComplete     State = "complete"
	StateFailed       State = "failed"
)
