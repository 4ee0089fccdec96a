package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/finops/ffc-billing/internal/domain/agreement"
	"github.com/finops/ffc-billing/internal/domain/authorization"
	"github.com/finops/ffc-billing/internal/domain/journal"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/types"
)

// InMemoryAuthorizationStore implements authorization.Repository
type InMemoryAuthorizationStore struct {
	mu    sync.RWMutex
	items []*authorization.Authorization
}

func NewInMemoryAuthorizationStore() *InMemoryAuthorizationStore {
	return &InMemoryAuthorizationStore{}
}

func (s *InMemoryAuthorizationStore) Add(auths ...*authorization.Authorization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, auths...)
}

func (s *InMemoryAuthorizationStore) Get(_ context.Context, id string) (*authorization.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ierr.NewErrorf("authorization %s not found", id).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryAuthorizationStore) List(_ context.Context, _ string) ([]*authorization.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*authorization.Authorization(nil), s.items...), nil
}

func (s *InMemoryAuthorizationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// InMemoryAgreementStore implements agreement.Repository
type InMemoryAgreementStore struct {
	mu             sync.RWMutex
	activeCounts   map[string]int
	byOrganization map[string][]*agreement.Agreement
	countErr       error
}

func NewInMemoryAgreementStore() *InMemoryAgreementStore {
	return &InMemoryAgreementStore{
		activeCounts:   make(map[string]int),
		byOrganization: make(map[string][]*agreement.Agreement),
	}
}

// SetActiveCount sets what CountActive returns for the authorization
func (s *InMemoryAgreementStore) SetActiveCount(authorizationID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCounts[authorizationID] = count
}

// FailCount makes every CountActive call fail with err
func (s *InMemoryAgreementStore) FailCount(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countErr = err
}

func (s *InMemoryAgreementStore) AddForOrganization(organizationID string, agreements ...*agreement.Agreement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOrganization[organizationID] = append(s.byOrganization[organizationID], agreements...)
}

func (s *InMemoryAgreementStore) CountActive(_ context.Context, authorizationID string, _ types.BillingPeriod) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.activeCounts[authorizationID], nil
}

func (s *InMemoryAgreementStore) ListByOrganization(_ context.Context, organizationID string) ([]*agreement.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*agreement.Agreement(nil), s.byOrganization[organizationID]...), nil
}

func (s *InMemoryAgreementStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCounts = make(map[string]int)
	s.byOrganization = make(map[string][]*agreement.Agreement)
	s.countErr = nil
}

// InMemoryJournalStore implements journal.Repository and records every mutating call.
// Get serves the statuses queued with QueueStatuses before falling back to the stored one.
type InMemoryJournalStore struct {
	mu          sync.Mutex
	seq         int
	journals    map[string]*journal.Journal
	attachments map[string][]*journal.Attachment
	statusQueue []types.JournalStatus
	failures    map[string]error

	Created            []*journal.Journal
	Submitted          []string
	Uploads            map[string][]*journal.File
	AttachmentFiles    map[string][]*journal.File
	DeletedAttachments []string
	GetCalls           int
}

func NewInMemoryJournalStore() *InMemoryJournalStore {
	s := &InMemoryJournalStore{}
	s.reset()
	return s
}

func (s *InMemoryJournalStore) reset() {
	s.seq = 0
	s.journals = make(map[string]*journal.Journal)
	s.attachments = make(map[string][]*journal.Attachment)
	s.statusQueue = nil
	s.failures = make(map[string]error)
	s.Created = nil
	s.Submitted = nil
	s.Uploads = make(map[string][]*journal.File)
	s.AttachmentFiles = make(map[string][]*journal.File)
	s.DeletedAttachments = nil
	s.GetCalls = 0
}

// Add stores an existing journal
func (s *InMemoryJournalStore) Add(j *journal.Journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journals[j.ID] = j
}

// AddAttachment stores an existing attachment of a journal
func (s *InMemoryJournalStore) AddAttachment(journalID string, a *journal.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[journalID] = append(s.attachments[journalID], a)
}

// QueueStatuses scripts the statuses returned by successive Get calls
func (s *InMemoryJournalStore) QueueStatuses(statuses ...types.JournalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusQueue = append(s.statusQueue, statuses...)
}

// Fail makes the named method return err
func (s *InMemoryJournalStore) Fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
}

func (s *InMemoryJournalStore) GetByExternalID(_ context.Context, authorizationID, externalID string) (*journal.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["GetByExternalID"]; err != nil {
		return nil, err
	}
	for _, j := range s.sorted() {
		if j.Authorization.ID == authorizationID && j.ExternalIDs.Vendor == externalID {
			cp := *j
			return &cp, nil
		}
	}
	return nil, ierr.NewErrorf("journal %s not found", externalID).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryJournalStore) Get(_ context.Context, id string) (*journal.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if err := s.failures["Get"]; err != nil {
		return nil, err
	}
	j, ok := s.journals[id]
	if !ok {
		return nil, ierr.NewErrorf("journal %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	if len(s.statusQueue) > 0 {
		j.Status = s.statusQueue[0]
		if len(s.statusQueue) > 1 {
			s.statusQueue = s.statusQueue[1:]
		}
	}
	cp := *j
	return &cp, nil
}

func (s *InMemoryJournalStore) Create(_ context.Context, j *journal.Journal) (*journal.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["Create"]; err != nil {
		return nil, err
	}
	s.seq++
	created := *j
	created.ID = fmt.Sprintf("BJO-%04d-%04d", s.seq/10000, s.seq%10000)
	created.Status = types.JournalStatusDraft
	s.journals[created.ID] = &created
	s.Created = append(s.Created, &created)
	cp := created
	return &cp, nil
}

func (s *InMemoryJournalStore) Submit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["Submit"]; err != nil {
		return err
	}
	s.Submitted = append(s.Submitted, id)
	return nil
}

func (s *InMemoryJournalStore) UploadCharges(_ context.Context, id string, file *journal.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["UploadCharges"]; err != nil {
		return err
	}
	s.Uploads[id] = append(s.Uploads[id], file)
	return nil
}

func (s *InMemoryJournalStore) FindAttachment(_ context.Context, journalID, namePrefix string) (*journal.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attachments[journalID] {
		if len(a.Name) >= len(namePrefix) && a.Name[:len(namePrefix)] == namePrefix {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ierr.NewErrorf("attachment %s* not found", namePrefix).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryJournalStore) CreateAttachment(_ context.Context, journalID string, a *journal.Attachment, file *journal.File) (*journal.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["CreateAttachment"]; err != nil {
		return nil, err
	}
	s.seq++
	created := *a
	created.ID = fmt.Sprintf("JOA-%04d", s.seq)
	s.attachments[journalID] = append(s.attachments[journalID], &created)
	s.AttachmentFiles[journalID] = append(s.AttachmentFiles[journalID], file)
	cp := created
	return &cp, nil
}

func (s *InMemoryJournalStore) DeleteAttachment(_ context.Context, journalID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.attachments[journalID][:0]
	for _, a := range s.attachments[journalID] {
		if a.ID != attachmentID {
			kept = append(kept, a)
		}
	}
	s.attachments[journalID] = kept
	s.DeletedAttachments = append(s.DeletedAttachments, attachmentID)
	return nil
}

// Attachments returns the attachments currently stored for a journal
func (s *InMemoryJournalStore) Attachments(journalID string) []*journal.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*journal.Attachment(nil), s.attachments[journalID]...)
}

func (s *InMemoryJournalStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *InMemoryJournalStore) sorted() []*journal.Journal {
	out := make([]*journal.Journal, 0, len(s.journals))
	for _, j := range s.journals {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
