package usecase

// State is one step of an upload or download task.
type State string

const (
	StateIdle                State = "idle"
	StateSelecting           State = "selecting"
	StateProcessing          State = "processing"
	StateCompressing         State = "compressing"
	StateGeneratingThumbnail State = "generating_thumbnail"
	StatePaymentRequired     State = "payment_required"
	StatePaymentPending      State = "payment_pending"
	StateEncrypting          State = "encrypting"
	StateUploading           State = "uploading"
	StateComplete            State = "complete"

	StateLoadingMetadata State = "loading_metadata"
	StateDownloading     State = "downloading"
	StateDecrypting      State = "decrypting"
	StateReady           State = "ready"

	StateError State = "error"
)

func (s State) Terminal() bool {
	return s == StateComplete || s == StateReady || s == StateError
}

// transitions lists the legal successors of each state. Error is reachable
// from every non-terminal state and is not listed.
type transitions map[State][]State

var uploadTransitions = transitions{
	StateIdle:                {StateSelecting},
	StateSelecting:           {StateProcessing},
	StateProcessing:          {StateCompressing, StateGeneratingThumbnail, StatePaymentRequired, StateEncrypting},
	StateCompressing:         {StateGeneratingThumbnail, StatePaymentRequired, StateEncrypting},
	StateGeneratingThumbnail: {StatePaymentRequired, StateEncrypting},
	StatePaymentRequired:     {StatePaymentPending},
	StatePaymentPending:      {StateEncrypting},
	StateEncrypting:          {StateUploading},
	StateUploading:           {StateUploading, StateComplete},
}

// Download retries always restart at LoadingMetadata.
var downloadTransitions = transitions{
	StateIdle:            {StateLoadingMetadata},
	StateLoadingMetadata: {StateLoadingMetadata, StateDownloading},
	StateDownloading:     {StateLoadingMetadata, StateDecrypting},
	StateDecrypting:      {StateLoadingMetadata, StateReady},
}

func (t transitions) allows(from, to State) bool {
	if from.Terminal() {
		return false
	}

	if to == StateError {
		return true
	}

	for _, next := range t[from] {
		if next == to {
			return true
		}
	}

	return false
}

// ValidUploadTrace reports whether trace, starting from Idle, only follows legal edges.
func ValidUploadTrace(trace []State) bool { return uploadTransitions.validTrace(trace) }

func ValidDownloadTrace(trace []State) bool { return downloadTransitions.validTrace(trace) }

func (t transitions) validTrace(trace []State) bool {
	prev := StateIdle
	for _, s := range trace {
		if !t.allows(prev, s) {
			return false
		}
		prev = s
	}

	return true
}
