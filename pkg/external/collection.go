package external

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// collection implements the operations every diagnosis collection shares.
// Diagnose differs per domain and lives on the concrete clients.
type collection[T any] struct {
	client  *Client
	limiter *rate.Limiter
	source  string
	prefix  string // e.g. "/diagnosis/"
}

func newCollection[T any](client *Client, source, prefix string) collection[T] {
	return collection[T]{
		client:  client,
		limiter: client.newLimiter(),
		source:  source,
		prefix:  prefix,
	}
}

func (c collection[T]) fail(operation string, err error) error {
	return domain.NewSourceFetchError(c.source, operation, err)
}

// List fetches one page of the collection.
func (c collection[T]) List(ctx context.Context, skip, limit int) (*domain.ListResponse[T], error) {
	req, err := c.client.request(ctx, c.limiter)
	if err != nil {
		return nil, c.fail("list", err)
	}

	resp, err := req.
		SetQueryParam("skip", strconv.Itoa(skip)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		Get(c.prefix)
	if err != nil {
		return nil, c.fail("list", err)
	}

	var page domain.ListResponse[T]
	if err := decode(resp, &page); err != nil {
		return nil, c.fail("list", err)
	}

	c.client.logger.WithFields(logrus.Fields{
		"source":    c.source,
		"operation": "list",
		"skip":      skip,
		"limit":     limit,
		"fetched":   len(page.Results),
		"total":     page.Total,
	}).Debug("Fetched diagnosis page")

	return &page, nil
}

// Get fetches a single record.
func (c collection[T]) Get(ctx context.Context, id int64) (*T, error) {
	req, err := c.client.request(ctx, c.limiter)
	if err != nil {
		return nil, c.fail("get", err)
	}

	resp, err := req.Get(c.recordPath(id))
	if err != nil {
		return nil, c.fail("get", err)
	}

	var record T
	if err := decode(resp, &record); err != nil {
		return nil, c.fail("get", err)
	}
	return &record, nil
}

// Update applies the narrow notes PATCH.
func (c collection[T]) Update(ctx context.Context, id int64, update domain.DiagnosisUpdate) (*T, error) {
	req, err := c.client.request(ctx, c.limiter)
	if err != nil {
		return nil, c.fail("update", err)
	}

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(update).
		Patch(c.recordPath(id))
	if err != nil {
		return nil, c.fail("update", err)
	}

	var record T
	if err := decode(resp, &record); err != nil {
		return nil, c.fail("update", err)
	}
	return &record, nil
}

// Delete removes a record.
func (c collection[T]) Delete(ctx context.Context, id int64) (*domain.MessageResponse, error) {
	req, err := c.client.request(ctx, c.limiter)
	if err != nil {
		return nil, c.fail("delete", err)
	}

	resp, err := req.Delete(c.recordPath(id))
	if err != nil {
		return nil, c.fail("delete", err)
	}

	var msg domain.MessageResponse
	if err := decode(resp, &msg); err != nil {
		return nil, c.fail("delete", err)
	}
	return &msg, nil
}

// diagnose uploads an image as multipart form-data to <prefix>diagnose.
func (c collection[T]) diagnose(ctx context.Context, upload domain.Upload, fields map[string]string) (*T, error) {
	if upload.Content == nil {
		return nil, c.fail("diagnose", fmt.Errorf("upload has no content"))
	}

	req, err := c.client.request(ctx, c.limiter)
	if err != nil {
		return nil, c.fail("diagnose", err)
	}

	form := map[string]string{}
	if upload.Notes != "" {
		form["notes"] = upload.Notes
	}
	for k, v := range fields {
		form[k] = v
	}

	filename := upload.Filename
	if filename == "" {
		filename = "upload"
	}

	resp, err := req.
		SetFileReader("file", filename, upload.Content).
		SetFormData(form).
		Post(c.prefix + "diagnose")
	if err != nil {
		return nil, c.fail("diagnose", err)
	}

	var record T
	if err := decode(resp, &record); err != nil {
		return nil, c.fail("diagnose", err)
	}
	return &record, nil
}

func (c collection[T]) recordPath(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}
