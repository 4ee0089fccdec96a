package types

import "strings"

// ProcessResult is the outcome of one authorization's billing run.
type ProcessResult string

const (
	ProcessResultJournalGenerated ProcessResult = "journal_generated"
	ProcessResultJournalSkipped   ProcessResult = "journal_skipped"
	ProcessResultError            ProcessResult = "error"
)

// Label is the upper-case form shown in notifications.
func (r ProcessResult) Label() string {
	return strings.ToUpper(string(r))
}

// NotificationLevel classifies the summary notification of a billing run.
type NotificationLevel string

const (
	NotificationLevelSuccess    NotificationLevel = "success"
	NotificationLevelInProgress NotificationLevel = "in_progress"
	NotificationLevelError      NotificationLevel = "error"
)

// ProcessState is a step of the authorization state machine.
type ProcessState string

const (
	ProcessStateStart                   ProcessState = "START"
	ProcessStateCheckActiveAgreements   ProcessState = "CHECK_ACTIVE_AGREEMENTS"
	ProcessStateSkip                    ProcessState = "SKIP"
	ProcessStateCheckExistingJournal    ProcessState = "CHECK_EXISTING_JOURNAL"
	ProcessStateJournalAlreadyValidated ProcessState = "JOURNAL_ALREADY_VALIDATED"
	ProcessStateJournalExistsNonDraft   ProcessState = "JOURNAL_EXISTS_NON_DRAFT"
	ProcessStateGenerateCharges         ProcessState = "GENERATE_CHARGES"
	ProcessStateNoCharges               ProcessState = "NO_CHARGES"
	ProcessStateUploadAndValidate       ProcessState = "UPLOAD_AND_VALIDATE"
	ProcessStateValidated               ProcessState = "VALIDATED"
	ProcessStateValidationTimeout       ProcessState = "VALIDATION_TIMEOUT"
	ProcessStateFailed                  ProcessState = "FAILED"
)
