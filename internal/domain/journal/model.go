package journal

import (
	"context"
	"time"

	"github.com/finops/ffc-billing/internal/types"
)

// AttachmentDescription labels the exchange-rate tables attached to a journal
const AttachmentDescription = "Currency conversion rates"

type Reference struct {
	ID string `json:"id"`
}

type ExternalIDs struct {
	Vendor string `json:"vendor"`
}

// Journal is the ledger's batch-upload unit for one authorization and billing period.
type Journal struct {
	ID            string              `json:"id,omitempty" validate:"required"`
	Name          string              `json:"name"`
	ExternalIDs   ExternalIDs         `json:"externalIds"`
	Authorization Reference           `json:"authorization"`
	Status        types.JournalStatus `json:"status,omitempty" validate:"required"`
	DueDate       *time.Time          `json:"dueDate,omitempty"`
}

// Attachment is a named file stored alongside a journal
type Attachment struct {
	ID          string `json:"id,omitempty" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// File is the content uploaded to a journal
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Repository manages journals on the ledger.
// Lookups return an ErrNotFound error when nothing matches.
type Repository interface {
	GetByExternalID(ctx context.Context, authorizationID, externalID string) (*Journal, error)
	Get(ctx context.Context, id string) (*Journal, error)
	Create(ctx context.Context, j *Journal) (*Journal, error)
	Submit(ctx context.Context, id string) error
	UploadCharges(ctx context.Context, id string, file *File) error

	FindAttachment(ctx context.Context, journalID, namePrefix string) (*Attachment, error)
	CreateAttachment(ctx context.Context, journalID string, attachment *Attachment, file *File) (*Attachment, error)
	DeleteAttachment(ctx context.Context, journalID, attachmentID string) error
}
