package dto

// TransferDescriptor is returned by the agent API after a successful send.
type TransferDescriptor struct {
	RecordID     string   `json:"record_id"`
	StoragePath  string   `json:"storage_path"`
	MimeType     string   `json:"mime_type"`
	FileName     string   `json:"file_name"`
	Size         int64    `json:"size"`
	ExpiresAt    int64    `json:"expires_at"`
	PreviewURL   string   `json:"preview_url,omitempty"`
	PaymentToken string   `json:"payment_token,omitempty"`
	Trace        []string `json:"trace"`
}

// ErrorDescriptor carries the human-readable reason of a fatal state.
type ErrorDescriptor struct {
	Kind   string   `json:"kind"`
	Reason string   `json:"reason"`
	Trace  []string `json:"trace,omitempty"`
}
