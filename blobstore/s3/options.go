package s3

// Options configures a Store created with New.
type Options struct {
	// Prefix is prepended to all keys (e.g. "runs/L25N512/").
	Prefix string

	// Region overrides the region from the shared AWS configuration.
	Region string

	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string

	// UsePathStyle addresses buckets as path components instead of subdomains.
	UsePathStyle bool

	// Upload configures multipart uploads.
	Upload UploadConfig
}

// DefaultOptions contains the default options for a Store.
var DefaultOptions = Options{
	Upload: DefaultUploadConfig(),
}
