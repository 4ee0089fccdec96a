package types

// JournalStatus is the lifecycle status of a ledger journal.
type JournalStatus string

const (
	JournalStatusDraft      JournalStatus = "Draft"
	JournalStatusValidated  JournalStatus = "Validated"
	JournalStatusReview     JournalStatus = "Review"
	JournalStatusGenerating JournalStatus = "Generating"
	JournalStatusGenerated  JournalStatus = "Generated"
	JournalStatusAccepted   JournalStatus = "Accepted"
	JournalStatusCompleted  JournalStatus = "Completed"
)

// IsKnown reports whether the billing run knows how to handle a journal in this status.
func (s JournalStatus) IsKnown() bool {
	switch s {
	case JournalStatusDraft,
		JournalStatusValidated,
		JournalStatusReview,
		JournalStatusGenerating,
		JournalStatusGenerated,
		JournalStatusAccepted,
		JournalStatusCompleted:
		return true
	}
	return false
}
