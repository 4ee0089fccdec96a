package billing

import "github.com/finops/ffc-billing/internal/types"

// ProcessResultInfo is the outcome of the billing run of one authorization
type ProcessResultInfo struct {
	AuthorizationID string
	Result          types.ProcessResult
	JournalID       string
	Message         string
}

func NewGeneratedResult(authorizationID, journalID string) *ProcessResultInfo {
	return &ProcessResultInfo{
		AuthorizationID: authorizationID,
		Result:          types.ProcessResultJournalGenerated,
		JournalID:       journalID,
	}
}

func NewSkippedResult(authorizationID, journalID, message string) *ProcessResultInfo {
	return &ProcessResultInfo{
		AuthorizationID: authorizationID,
		Result:          types.ProcessResultJournalSkipped,
		JournalID:       journalID,
		Message:         message,
	}
}

func NewErrorResult(authorizationID, journalID, message string) *ProcessResultInfo {
	return &ProcessResultInfo{
		AuthorizationID: authorizationID,
		Result:          types.ProcessResultError,
		JournalID:       journalID,
		Message:         message,
	}
}
