package mpt

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/finops/ffc-billing/internal/domain/journal"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/integration/base"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/finops/ffc-billing/internal/validator"
)

const journalsEndpoint = "/billing/journals"

type journalRepository struct {
	client *Client
}

func NewJournalRepository(client *Client) journal.Repository {
	return &journalRepository{client: client}
}

func (r *journalRepository) GetByExternalID(ctx context.Context, authorizationID, externalID string) (*journal.Journal, error) {
	rql := base.And(
		base.Eq("authorization.id", authorizationID),
		base.Eq("externalIds.vendor", externalID),
		base.Ne("status", "Deleted"),
	)
	page, err := r.client.getPage(ctx, journalsEndpoint+"?"+rql)
	if err != nil {
		return nil, err
	}
	return base.First[journal.Journal](page, fmt.Sprintf("journal %s of authorization %s", externalID, authorizationID))
}

func (r *journalRepository) Get(ctx context.Context, id string) (*journal.Journal, error) {
	var j journal.Journal
	if err := r.client.getJSON(ctx, fmt.Sprintf("%s/%s", journalsEndpoint, id), &j); err != nil {
		return nil, err
	}
	if err := validator.ValidateRequest(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *journalRepository) Create(ctx context.Context, j *journal.Journal) (*journal.Journal, error) {
	body, err := types.JSON.Marshal(j)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode journal").
			Mark(ierr.ErrSystem)
	}

	resp, err := r.client.Do(ctx, http.MethodPost, journalsEndpoint, &httpclient.Request{Body: body})
	if err != nil {
		return nil, err
	}

	var created journal.Journal
	if err := decode(resp.Body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, ierr.NewError("journal created without id").
			WithHintf("Marketplace returned no id for journal %s", j.ExternalIDs.Vendor).
			Mark(ierr.ErrValidation)
	}
	return &created, nil
}

func (r *journalRepository) Submit(ctx context.Context, id string) error {
	_, err := r.client.Do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/submit", journalsEndpoint, id), nil)
	return err
}

func (r *journalRepository) UploadCharges(ctx context.Context, id string, file *journal.File) error {
	form := newMultipartForm()
	if err := form.addFile("file", file.Name, file.ContentType, file.Data); err != nil {
		return err
	}

	req, err := form.request()
	if err != nil {
		return err
	}
	_, err = r.client.Do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/upload", journalsEndpoint, id), req)
	return err
}

func (r *journalRepository) FindAttachment(ctx context.Context, journalID, namePrefix string) (*journal.Attachment, error) {
	path := fmt.Sprintf("%s/%s/attachments?%s", journalsEndpoint, journalID, base.Like("name", namePrefix+"*"))
	page, err := r.client.getPage(ctx, path)
	if err != nil {
		return nil, err
	}
	return base.First[journal.Attachment](page, fmt.Sprintf("attachment %s* of journal %s", namePrefix, journalID))
}

func (r *journalRepository) CreateAttachment(ctx context.Context, journalID string, attachment *journal.Attachment, file *journal.File) (*journal.Attachment, error) {
	meta, err := types.JSON.Marshal(attachment)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode attachment").
			Mark(ierr.ErrSystem)
	}

	form := newMultipartForm()
	if err := form.addFile("file", file.Name, file.ContentType, file.Data); err != nil {
		return nil, err
	}
	if err := form.addJSON("attachment", meta); err != nil {
		return nil, err
	}

	req, err := form.request()
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/attachments", journalsEndpoint, journalID), req)
	if err != nil {
		return nil, err
	}

	created := &journal.Attachment{}
	if len(resp.Body) > 0 {
		if err := decode(resp.Body, created); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (r *journalRepository) DeleteAttachment(ctx context.Context, journalID, attachmentID string) error {
	_, err := r.client.Do(ctx, http.MethodDelete, fmt.Sprintf("%s/%s/attachments/%s", journalsEndpoint, journalID, attachmentID), nil)
	return err
}

type multipartForm struct {
	buf    *bytes.Buffer
	writer *multipart.Writer
}

func newMultipartForm() *multipartForm {
	buf := &bytes.Buffer{}
	return &multipartForm{buf: buf, writer: multipart.NewWriter(buf)}
}

func (f *multipartForm) addFile(field, filename, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	return f.write(h, data)
}

func (f *multipartForm) addJSON(field string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, field))
	h.Set("Content-Type", "application/json")
	return f.write(h, data)
}

func (f *multipartForm) write(h textproto.MIMEHeader, data []byte) error {
	part, err := f.writer.CreatePart(h)
	if err == nil {
		_, err = part.Write(data)
	}
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to build multipart form").
			Mark(ierr.ErrSystem)
	}
	return nil
}

func (f *multipartForm) request() (*httpclient.Request, error) {
	if err := f.writer.Close(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build multipart form").
			Mark(ierr.ErrSystem)
	}
	return &httpclient.Request{
		Body:        f.buf.Bytes(),
		ContentType: f.writer.FormDataContentType(),
	}, nil
}
