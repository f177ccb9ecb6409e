package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/metrics"
	"github.com/proteinapura/storefront/pkg/storage/supabase"
)

const (
	// DefaultBucket receives uploads when neither the request nor the config names one.
	DefaultBucket      = "products"
	defaultContentType = "application/octet-stream"
	uploadPrefix       = "uploads"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type objectStore interface {
	Upload(ctx context.Context, bucket, objectPath string, body io.Reader, contentType string, upsert bool) (string, error)
	PublicURL(bucket, objectPath string) string
	CreateSignedUploadURL(ctx context.Context, bucket, objectPath string, upsert bool) (*supabase.SignedUpload, error)
	ListBuckets(ctx context.Context) ([]supabase.Bucket, error)
}

// Service stores product images for the back-office.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	CreateUploadURL(ctx context.Context, input UploadURLInput) (*UploadURLOutput, error)
}

// UploadInput is one file received through the admin form.
type UploadInput struct {
	Bucket      string
	Path        string
	FileName    string
	ContentType string
	Body        io.Reader
}

// UploadOutput is returned verbatim to the admin client.
type UploadOutput struct {
	Bucket    string `json:"bucket"`
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

// UploadURLInput asks for a signed upload URL.
type UploadURLInput struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

// UploadURLOutput lets the browser upload directly to storage.
type UploadURLOutput struct {
	SignedURL string `json:"signedUrl"`
	Path      string `json:"path"`
	Token     string `json:"token"`
	Bucket    string `json:"bucket"`
	PublicURL string `json:"publicUrl"`
}

type service struct {
	store   objectStore
	bucket  string
	metrics *metrics.AdminMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService constructs the upload service. bucket is the configured bucket and may be empty.
func NewService(store objectStore, bucket string, m *metrics.AdminMetrics, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("storage client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:   store,
		bucket:  strings.TrimSpace(bucket),
		metrics: m,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required").
			WithDetails(map[string]string{"file": "is required"})
	}

	bucket := firstNonEmpty(input.Bucket, s.bucket, DefaultBucket)
	objectPath := strings.TrimSpace(input.Path)
	if objectPath == "" {
		objectPath = BuildObjectPath(input.FileName, s.now())
	}
	contentType := normalizeContentType(input.ContentType)

	ctx = s.logg.WithFields(ctx, map[string]any{"bucket": bucket, "object_path": objectPath})
	_, err := s.store.Upload(ctx, bucket, objectPath, input.Body, contentType, true)
	s.metrics.Mutation("upload", err)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreRejected, err, err.Error())
	}
	s.logg.Info(ctx, "image uploaded")

	return &UploadOutput{
		Bucket:    bucket,
		Path:      objectPath,
		PublicURL: s.store.PublicURL(bucket, objectPath),
	}, nil
}

func (s *service) CreateUploadURL(ctx context.Context, input UploadURLInput) (*UploadURLOutput, error) {
	bucket := firstNonEmpty(input.Bucket, s.bucket)
	if bucket == "" {
		buckets, err := s.store.ListBuckets(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStoreRejected, err, err.Error())
		}
		if len(buckets) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStoreRejected, "no buckets available")
		}
		bucket = buckets[0].Name
	}

	objectPath := strings.TrimSpace(input.Path)
	if objectPath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "path is required").
			WithDetails(map[string]string{"path": "is required"})
	}

	signed, err := s.store.CreateSignedUploadURL(ctx, bucket, objectPath, true)
	s.metrics.Mutation("upload_url", err)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreRejected, err, err.Error())
	}

	return &UploadURLOutput{
		SignedURL: signed.SignedURL,
		Path:      signed.Path,
		Token:     signed.Token,
		Bucket:    bucket,
		PublicURL: s.store.PublicURL(bucket, objectPath),
	}, nil
}

// BuildObjectPath names an upload as uploads/<unix millis>_<sanitized file name>.
func BuildObjectPath(fileName string, now time.Time) string {
	return path.Join(uploadPrefix, strconv.FormatInt(now.UnixMilli(), 10)+"_"+SanitizeFileName(fileName))
}

// SanitizeFileName replaces every character outside [A-Za-z0-9._-] with an underscore.
func SanitizeFileName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

func normalizeContentType(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return defaultContentType
	}
	if _, _, err := mime.ParseMediaType(clean); err != nil {
		return defaultContentType
	}
	return clean
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
