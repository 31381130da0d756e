package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog"

	"github.com/rezonia/ubl-ingest/internal/model"
	ublxml "github.com/rezonia/ubl-ingest/internal/parser/xml"
)

// FileError is one per-file failure surfaced on the response, never
// aborting the batch.
type FileError struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

// RecoveryNote is a malformed numeric field that was resolved to zero
// while mapping the named file.
type RecoveryNote struct {
	Filename string `json:"filename"`
	Field    string `json:"field"`
	Raw      string `json:"raw"`
}

// BatchResult is the worker's response: mapped documents in original
// file order, plus per-file errors and data-quality notes.
type BatchResult struct {
	Documents  []model.MappedDocument `json:"documents"`
	Errors     []FileError            `json:"errors"`
	Recoveries []RecoveryNote         `json:"recoveries,omitempty"`
}

// Worker maps batches of file payloads off the caller's thread of
// control. It owns no store: the request carries everything it needs
// and the response carries everything it produced.
type Worker struct {
	log zerolog.Logger
}

// NewWorker creates a worker logging per-file outcomes on log.
func NewWorker(log zerolog.Logger) *Worker {
	return &Worker{log: log}
}

// Go runs Process on its own goroutine and delivers the single response
// on the returned channel. Cancelling ctx aborts the remainder of the
// batch; since nothing is persisted here, a cancelled run loses work
// but never leaves partial state behind.
func (w *Worker) Go(ctx context.Context, files []FilePayload) <-chan *BatchResult {
	out := make(chan *BatchResult, 1)
	go func() {
		defer close(out)
		out <- w.Process(ctx, files)
	}()
	return out
}

// Process expands, hashes and maps every payload strictly sequentially,
// keeping result order equal to input order.
func (w *Worker) Process(ctx context.Context, files []FilePayload) *BatchResult {
	result := &BatchResult{}

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if !f.IsArchive() {
			w.processOne(f, result)
			continue
		}
		members, err := expandArchive(f)
		if err != nil {
			result.Errors = append(result.Errors, FileError{
				Filename: f.Name,
				Code:     model.ErrCodeParse,
				Detail:   err.Error(),
			})
			continue
		}
		for _, m := range members {
			if ctx.Err() != nil {
				break
			}
			w.processOne(m, result)
		}
	}
	return result
}

// processOne hashes, parses and maps one XML payload.
func (w *Worker) processOne(f FilePayload, result *BatchResult) {
	sum := sha256.Sum256(f.Data)
	hash := hex.EncodeToString(sum[:])

	tree, err := ublxml.Parse(f.Data)
	if err != nil {
		w.fail(f.Name, model.ErrCodeParse, err, result)
		return
	}
	kind, root, err := ublxml.Root(tree)
	if err != nil {
		code := model.ErrCodeParse
		var unsupported *model.UnsupportedDocumentError
		if errors.As(err, &unsupported) {
			code = model.ErrCodeUnsupported
		}
		w.fail(f.Name, code, err, result)
		return
	}

	mapped, notes := ublxml.MapDocument(kind, root, hash, f.Name)
	for _, n := range notes {
		w.log.Warn().
			Str("file", f.Name).
			Str("field", n.Field).
			Str("raw", n.Raw).
			Msg("malformed number resolved to zero")
		result.Recoveries = append(result.Recoveries, RecoveryNote{
			Filename: f.Name,
			Field:    n.Field,
			Raw:      n.Raw,
		})
	}

	w.log.Debug().
		Str("file", f.Name).
		Str("kind", string(kind)).
		Str("serie", mapped.Document.Serie).
		Str("numero", mapped.Document.Numero).
		Int("lines", len(mapped.Lines)).
		Msg("mapped document")
	result.Documents = append(result.Documents, *mapped)
}

func (w *Worker) fail(name, code string, err error, result *BatchResult) {
	w.log.Warn().Str("file", name).Str("code", code).Err(err).Msg("file failed")
	result.Errors = append(result.Errors, FileError{
		Filename: name,
		Code:     code,
		Detail:   err.Error(),
	})
}
