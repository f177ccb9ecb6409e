package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/storage/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	uploadErr   error
	signErr     error
	listErr     error
	buckets     []supabase.Bucket
	gotBucket   string
	gotPath     string
	gotType     string
	gotBody     string
	gotUpsert   bool
	listCalls   int
	signedCalls int
}

func (s *stubStore) Upload(_ context.Context, bucket, objectPath string, body io.Reader, contentType string, upsert bool) (string, error) {
	s.gotBucket, s.gotPath, s.gotType, s.gotUpsert = bucket, objectPath, contentType, upsert
	raw, _ := io.ReadAll(body)
	s.gotBody = string(raw)
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return bucket + "/" + objectPath, nil
}

func (s *stubStore) PublicURL(bucket, objectPath string) string {
	return "https://demo.supabase.co/storage/v1/object/public/" + bucket + "/" + objectPath
}

func (s *stubStore) CreateSignedUploadURL(_ context.Context, bucket, objectPath string, upsert bool) (*supabase.SignedUpload, error) {
	s.signedCalls++
	s.gotBucket, s.gotPath, s.gotUpsert = bucket, objectPath, upsert
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &supabase.SignedUpload{
		SignedURL: "https://demo.supabase.co/storage/v1/object/upload/sign/" + bucket + "/" + objectPath + "?token=tok",
		Path:      objectPath,
		Token:     "tok",
	}, nil
}

func (s *stubStore) ListBuckets(context.Context) ([]supabase.Bucket, error) {
	s.listCalls++
	return s.buckets, s.listErr
}

func newService(t *testing.T, store *stubStore, bucket string) *service {
	t.Helper()
	svc, err := NewService(store, bucket, nil, nil)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return impl
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "whey_gold__1_.png", SanitizeFileName("whey gold (1).png"))
	assert.Equal(t, "prote_na.jpg", SanitizeFileName("proteína.jpg"))
	assert.Equal(t, "a-b_c.d", SanitizeFileName("a-b_c.d"))
	assert.Equal(t, "dir_file.png", SanitizeFileName("dir/file.png"))
}

func TestBuildObjectPath(t *testing.T) {
	got := BuildObjectPath("my photo.png", time.UnixMilli(1700000000123))
	assert.Equal(t, "uploads/1700000000123_my_photo.png", got)
}

func TestUploadResolvesBucketAndPath(t *testing.T) {
	cases := []struct {
		name       string
		configured string
		input      UploadInput
		wantBucket string
		wantPath   string
		wantType   string
	}{
		{
			name:       "form values win",
			configured: "configured",
			input:      UploadInput{Bucket: "form", Path: "custom/img.png", FileName: "x.png", ContentType: "image/png"},
			wantBucket: "form",
			wantPath:   "custom/img.png",
			wantType:   "image/png",
		},
		{
			name:       "configured bucket",
			configured: "configured",
			input:      UploadInput{FileName: "foto 1.jpg", ContentType: "image/jpeg"},
			wantBucket: "configured",
			wantPath:   "uploads/1700000000123_foto_1.jpg",
			wantType:   "image/jpeg",
		},
		{
			name:       "default bucket and content type",
			input:      UploadInput{FileName: "raw.bin"},
			wantBucket: DefaultBucket,
			wantPath:   "uploads/1700000000123_raw.bin",
			wantType:   "application/octet-stream",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{}
			svc := newService(t, store, tc.configured)
			tc.input.Body = strings.NewReader("bytes")

			out, err := svc.Upload(context.Background(), tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.wantBucket, out.Bucket)
			assert.Equal(t, tc.wantPath, out.Path)
			assert.Equal(t, "https://demo.supabase.co/storage/v1/object/public/"+tc.wantBucket+"/"+tc.wantPath, out.PublicURL)
			assert.Equal(t, tc.wantType, store.gotType)
			assert.True(t, store.gotUpsert)
			assert.Equal(t, "bytes", store.gotBody)
		})
	}
}

func TestUploadErrors(t *testing.T) {
	svc := newService(t, &stubStore{}, "")
	_, err := svc.Upload(context.Background(), UploadInput{FileName: "x.png"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	svc = newService(t, &stubStore{uploadErr: errors.New("bucket not found")}, "")
	_, err = svc.Upload(context.Background(), UploadInput{FileName: "x.png", Body: strings.NewReader("x")})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeStoreRejected, typed.Code())
	assert.Equal(t, "bucket not found", typed.Message())
}

func TestCreateUploadURLBucketResolution(t *testing.T) {
	t.Run("body bucket", func(t *testing.T) {
		store := &stubStore{}
		svc := newService(t, store, "configured")
		out, err := svc.CreateUploadURL(context.Background(), UploadURLInput{Bucket: "body", Path: "a.png"})
		require.NoError(t, err)
		assert.Equal(t, "body", out.Bucket)
		assert.Zero(t, store.listCalls)
	})

	t.Run("configured bucket", func(t *testing.T) {
		store := &stubStore{}
		svc := newService(t, store, "configured")
		out, err := svc.CreateUploadURL(context.Background(), UploadURLInput{Path: "a.png"})
		require.NoError(t, err)
		assert.Equal(t, "configured", out.Bucket)
		assert.Equal(t, "tok", out.Token)
		assert.Equal(t, "a.png", out.Path)
		assert.Equal(t, "https://demo.supabase.co/storage/v1/object/public/configured/a.png", out.PublicURL)
		assert.True(t, store.gotUpsert)
	})

	t.Run("first listed bucket", func(t *testing.T) {
		store := &stubStore{buckets: []supabase.Bucket{{Name: "images"}, {Name: "docs"}}}
		svc := newService(t, store, "")
		out, err := svc.CreateUploadURL(context.Background(), UploadURLInput{Path: "a.png"})
		require.NoError(t, err)
		assert.Equal(t, "images", out.Bucket)
		assert.Equal(t, 1, store.listCalls)
	})

	t.Run("no buckets", func(t *testing.T) {
		store := &stubStore{}
		svc := newService(t, store, "")
		_, err := svc.CreateUploadURL(context.Background(), UploadURLInput{Path: "a.png"})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		assert.Equal(t, pkgerrors.CodeStoreRejected, typed.Code())
		assert.Equal(t, "no buckets available", typed.Message())
		assert.Zero(t, store.signedCalls)
	})

	t.Run("missing path", func(t *testing.T) {
		store := &stubStore{}
		svc := newService(t, store, "configured")
		_, err := svc.CreateUploadURL(context.Background(), UploadURLInput{})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		assert.Zero(t, store.signedCalls)
	})
}
