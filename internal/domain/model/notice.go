package model

import "time"

// TransferNotice announces a finalized transfer to its recipient.
type TransferNotice struct {
	RecordID     string    `json:"record_id"`
	Conversation string    `json:"conversation"`
	Recipient    string    `json:"recipient"`
	ExpiresAt    time.Time `json:"expires_at"`
}
