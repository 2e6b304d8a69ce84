package s3

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var errAborted = errors.New("s3: upload aborted")

// UploadConfig tunes multipart uploads.
type UploadConfig struct {
	PartSize    int64 // minimum part size, 8 MiB by default
	Concurrency int   // parts in flight, 5 by default

	// EnableChecksum requests CRC32C validation on every object.
	EnableChecksum bool

	// LeavePartsOnError keeps the parts of a failed multipart upload
	// instead of aborting it.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 << 20,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// upload pipes writes into a background manager.Uploader call.
type upload struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
	err      error
}

func startUpload(ctx context.Context, uploader *manager.Uploader, input func(io.Reader) *s3.PutObjectInput) *upload {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := uploader.Upload(ctx, input(pr))
		_ = pr.CloseWithError(err)
		u.done <- err
	}()

	return u
}

func (u *upload) Write(p []byte) (int, error) {
	u.mu.Lock()
	finished := u.finished
	u.mu.Unlock()
	if finished {
		return 0, io.ErrClosedPipe
	}
	return u.pw.Write(p)
}

// Sync is a no-op; data is committed on Close.
func (u *upload) Sync() error { return nil }

// Close completes the upload. Later calls return the same result.
func (u *upload) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return u.err
	}
	u.finished = true

	if u.err = u.pw.Close(); u.err == nil {
		u.err = <-u.done
	}
	return u.err
}

// Abort abandons the upload. The uploader aborts the multipart upload
// itself unless LeavePartsOnError is set.
func (u *upload) Abort() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return nil
	}
	u.finished = true

	_ = u.pw.CloseWithError(errAborted)
	<-u.done
	u.err = errAborted
	return nil
}
