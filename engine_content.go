package backoffice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/omjyotish/backoffice/internal/content"
	"github.com/omjyotish/backoffice/storage"
)

// Collections returns the allowed content collection names.
func Collections() []string {
	return append([]string(nil), content.Collections...)
}

// ContentList returns every row of a collection ordered by creation
// time.
func (e *Engine) ContentList(ctx context.Context, collection string) ([]ContentRow, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	rows, err := e.content.List(ctx, collection)
	if err != nil {
		return nil, e.contentErr(err)
	}
	e.metricInc(MetricContentRead)
	return rows, nil
}

// ContentGet loads one row.
func (e *Engine) ContentGet(ctx context.Context, collection, id string) (*ContentRow, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	row, err := e.content.Get(ctx, collection, id)
	if err != nil {
		return nil, e.contentErr(err)
	}
	e.metricInc(MetricContentRead)
	return row, nil
}

// ContentPut creates or replaces a row. A missing ID means create; the
// generated ID comes back on the returned row.
func (e *Engine) ContentPut(ctx context.Context, collection, id string, data json.RawMessage) (*ContentRow, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if len(data) == 0 || !json.Valid(data) {
		return nil, fmt.Errorf("%w: body must be a JSON document", ErrValidation)
	}
	if id == "" {
		id = uuid.NewString()
	}

	row, err := e.content.Put(ctx, collection, content.Row{ID: id, Data: data})
	if err != nil {
		return nil, e.contentErr(err)
	}

	e.metricInc(MetricContentWrite)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditContentWrite,
		Success:   true,
		Metadata:  map[string]string{"collection": collection, "id": id},
	})
	return row, nil
}

// ContentDelete removes a row. Missing rows are not an error.
func (e *Engine) ContentDelete(ctx context.Context, collection, id string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if id == "" {
		return fmt.Errorf("%w: row id required", ErrValidation)
	}

	if err := e.content.Delete(ctx, collection, id); err != nil {
		return e.contentErr(err)
	}

	e.metricInc(MetricContentWrite)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditContentDelete,
		Success:   true,
		Metadata:  map[string]string{"collection": collection, "id": id},
	})
	return nil
}

func (e *Engine) contentErr(err error) error {
	switch {
	case errors.Is(err, content.ErrUnknownCollection):
		return ErrUnknownCollection
	case errors.Is(err, content.ErrNotFound):
		return content.ErrNotFound
	case errors.Is(err, content.ErrUnavailable):
		return ErrBackendUnavailable
	default:
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
}

// ContentRowMissing reports whether err means the requested row does
// not exist.
func ContentRowMissing(err error) bool {
	return errors.Is(err, content.ErrNotFound)
}

// SaveObject stores an uploaded file in the media store and returns
// its metadata plus the public URL. The key is generated server side;
// the client filename only contributes the extension and the optional
// folder only a sanitized prefix.
//
// Requires the elevated service credential configured at build time.
func (e *Engine) SaveObject(ctx context.Context, bucket, folder, filename, contentType string, data []byte) (*StoredObject, string, error) {
	if e == nil {
		return nil, "", ErrEngineNotReady
	}
	if err := e.requireServiceKey(); err != nil {
		e.metricInc(MetricUploadFailure)
		return nil, "", err
	}

	obj, url, err := e.objects.Put(ctx, bucket, folder, filename, contentType, data)
	if err != nil {
		e.metricInc(MetricUploadFailure)
		switch {
		case errors.Is(err, storage.ErrBucketUnknown):
			return nil, "", fmt.Errorf("%w: unknown bucket %q", ErrValidation, bucket)
		case errors.Is(err, storage.ErrTooLarge):
			return nil, "", fmt.Errorf("%w: file too large", ErrValidation)
		case errors.Is(err, storage.ErrUnavailable):
			return nil, "", ErrBackendUnavailable
		default:
			return nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	e.metricInc(MetricUploadSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditUpload,
		Success:   true,
		Metadata:  map[string]string{"bucket": bucket, "path": obj.Path},
	})
	return obj, url, nil
}

// GetObject loads a stored object and its payload for serving.
func (e *Engine) GetObject(ctx context.Context, bucket, path string) (*StoredObject, []byte, error) {
	if e == nil {
		return nil, nil, ErrEngineNotReady
	}
	obj, data, err := e.objects.Get(ctx, bucket, path)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBucketUnknown):
			return nil, nil, fmt.Errorf("%w: unknown bucket %q", ErrValidation, bucket)
		case errors.Is(err, storage.ErrNotFound):
			return nil, nil, storage.ErrNotFound
		default:
			return nil, nil, ErrBackendUnavailable
		}
	}
	return obj, data, nil
}

// ObjectMissing reports whether err means the requested object does
// not exist.
func ObjectMissing(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
