// Package attachment validates and encodes files staged for a request. It
// performs no network I/O; the encoded payloads are handed to the store,
// which owns the upload.
package attachment

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/campusdesk/reqsync/consts"
	"github.com/campusdesk/reqsync/schema"
)

var (
	ErrFileTooLarge        = fmt.Errorf("file exceeds the 5MB limit")
	ErrFileTypeNotAccepted = fmt.Errorf("file type is not accepted")
)

// Source is one selected file. Open is called at most once per encode; Size
// and MIME are known up front so validation never touches the content.
type Source struct {
	Name string
	Size int64
	MIME string
	Open func() (io.ReadCloser, error)
}

// FromPath builds a source backed by the local filesystem. The MIME type is
// resolved from the extension; an unknown extension is reported at encode
// time by Validate, not here, so callers can still show the selected file.
func FromPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("stat %s: %w", path, err)
	}

	mime, _ := consts.FileTypeByName(path)

	return Source{
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: mime,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Pipeline validates sources against a size limit and an extension
// allow-list and encodes accepted ones to base64 attachments.
type Pipeline struct {
	maxSize  int64
	accepted map[string]string
}

// New returns a pipeline with the portal limits. An empty accepted map
// disables the type allow-list; the size limit always applies.
func New(maxSize int64, accepted map[string]string) *Pipeline {
	return &Pipeline{
		maxSize:  maxSize,
		accepted: accepted,
	}
}

// NewDefault returns a pipeline configured with the portal's published
// limits: 5MB per file, pdf/doc/docx/xls/xlsx/jpg/jpeg/png.
func NewDefault() *Pipeline {
	return New(consts.MaxAttachmentSize, consts.AcceptedFileTypes)
}

// Validate rejects an oversized or off-list file before any content is read.
func (p *Pipeline) Validate(src Source) error {
	if src.Size > p.maxSize {
		return fmt.Errorf("%s: %w", src.Name, ErrFileTooLarge)
	}

	if len(p.accepted) > 0 {
		ext := strings.ToLower(filepath.Ext(src.Name))
		if _, ok := p.accepted[ext]; !ok {
			return fmt.Errorf("%s: %w", src.Name, ErrFileTypeNotAccepted)
		}
	}

	return nil
}

// Encode reads the full content of an accepted source and returns the staged
// attachment carrying the raw base64 payload (no data-URI prefix).
func (p *Pipeline) Encode(ctx context.Context, src Source) (*schema.Attachment, error) {
	if err := p.Validate(src); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer r.Close()

	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name, err)
	}

	return &schema.Attachment{
		StagedID: uuid.New().String(),
		FileName: src.Name,
		FileSize: src.Size,
		FileType: src.MIME,
		FileData: base64.StdEncoding.EncodeToString(content),
	}, nil
}

// EncodeBatch encodes the sources concurrently, preserving input order. Any
// failing source aborts the whole batch with a single error; attachments
// staged by earlier batches are not affected.
func (p *Pipeline) EncodeBatch(ctx context.Context, srcs []Source) ([]schema.Attachment, error) {
	for _, src := range srcs {
		if err := p.Validate(src); err != nil {
			return nil, err
		}
	}

	encoded := make([]schema.Attachment, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			a, err := p.Encode(gctx, src)
			if err != nil {
				return err
			}
			encoded[i] = *a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("encoding attachments: %w", err)
	}

	return encoded, nil
}
