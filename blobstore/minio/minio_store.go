package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/sightline/blobstore"
)

var errAborted = errors.New("minio: upload aborted")

// Options configures a Store created with New.
type Options struct {
	AccessKey string
	SecretKey string
	Secure    bool // HTTPS
	Region    string
	Prefix    string // prepended to every key
	// PartSize is the multipart chunk size for streaming uploads. Zero lets
	// the client pick.
	PartSize uint64
}

// DefaultOptions contains the default options for New.
var DefaultOptions = Options{
	Secure: true,
}

// OptionsFromEnv reads MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_REGION and
// MINIO_SECURE. MINIO_SECURE accepts any strconv.ParseBool value; an unset or
// malformed value keeps HTTPS on.
func OptionsFromEnv(o *Options) {
	o.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
	o.SecretKey = os.Getenv("MINIO_SECRET_KEY")
	if region := os.Getenv("MINIO_REGION"); region != "" {
		o.Region = region
	}
	if secure, err := strconv.ParseBool(os.Getenv("MINIO_SECURE")); err == nil {
		o.Secure = secure
	}
}

// Store keeps snapshots in a MinIO or S3-compatible bucket.
type Store struct {
	client   *minio.Client
	bucket   string
	prefix   string
	partSize uint64
}

var _ blobstore.BlobStore = (*Store)(nil)

// New connects to endpoint with static credentials.
func New(endpoint, bucket string, optFns ...func(o *Options)) (*Store, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", endpoint, err)
	}

	s := NewStore(client, bucket, opts.Prefix)
	s.partSize = opts.PartSize
	return s, nil
}

// NewStore wraps an existing client. rootPrefix is prepended to every key,
// e.g. "L25N512/".
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// putOptions tags the object with a content type and format derived from
// the snapshot file extension.
func (s *Store) putOptions(name string) minio.PutObjectOptions {
	f := blobstore.FormatOf(name)
	return minio.PutObjectOptions{
		ContentType:  f.ContentType,
		UserMetadata: map[string]string{blobstore.FormatMetadataKey: f.Name},
		PartSize:     s.partSize,
	}
}

// Open stats the object and returns a ranged-read handle.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("minio: %s/%s: %w", s.bucket, key, blobstore.ErrNotFound)
		}
		return nil, err
	}

	return &object{store: s, key: key, size: info.Size}, nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), s.putOptions(name))
	return err
}

// Create starts a streaming upload. The object appears when Close returns
// without error.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, s.putOptions(name))
		_ = pr.CloseWithError(err)
		u.done <- err
	}()

	return u, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the sorted names below prefix, relative to the store root.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.key(prefix)
	if strings.HasSuffix(prefix, "/") {
		full += "/"
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: full, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := s.relative(obj.Key); name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return names, nil
}

func (s *Store) relative(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// object is a read handle that issues one ranged GET per read.
type object struct {
	store *Store
	key   string
	size  int64
}

func (o *object) Size() int64  { return o.size }
func (o *object) Close() error { return nil }

// get fetches the inclusive byte range [off, last].
func (o *object) get(ctx context.Context, off, last int64) (*minio.Object, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, last); err != nil {
		return nil, err
	}
	return o.store.client.GetObject(ctx, o.store.bucket, o.key, opts)
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	last, ok := blobstore.Range(o.size, off, length)
	if !ok {
		return nil, io.EOF
	}
	return o.get(ctx, off, last)
}

func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 && off >= 0 {
		return 0, nil
	}
	last, ok := blobstore.Range(o.size, off, int64(len(p)))
	if !ok {
		return 0, io.EOF
	}

	r, err := o.get(ctx, off, last)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, p[:last-off+1])
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

// upload feeds a streaming PutObject through a pipe.
type upload struct {
	pw       *io.PipeWriter
	done     chan error
	finished atomic.Bool
}

func (u *upload) Write(p []byte) (int, error) {
	if u.finished.Load() {
		return 0, io.ErrClosedPipe
	}
	return u.pw.Write(p)
}

// Sync is a no-op; data is committed on Close.
func (u *upload) Sync() error { return nil }

func (u *upload) Close() error {
	if !u.finished.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.done
}

// Abort abandons the upload without creating the object.
func (u *upload) Abort() error {
	if !u.finished.CompareAndSwap(false, true) {
		return nil
	}
	return u.pw.CloseWithError(errAborted)
}
