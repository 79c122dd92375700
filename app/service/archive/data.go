package archive

import (
	"time"

	"clubintake/app/service/conversation"
)

// Record is one finished application as written to the journal.
type Record struct {
	SubmittedAt time.Time                 `json:"submitted_at"`
	Profile     *conversation.ProfileData `json:"profile"`
	Delivered   bool                      `json:"delivered"`
	Error       string                    `json:"error,omitempty"`
}
