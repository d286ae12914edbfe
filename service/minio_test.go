package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
)

// fakeS3 answers the few S3 calls the media storage makes.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		f.objects[bucket+"/"+key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeMinio(t *testing.T) (*MinioService, *fakeS3) {
	t.Helper()
	fake := &fakeS3{buckets: map[string]bool{}, objects: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	u, _ := url.Parse(server.URL)
	svc, err := NewMinioService(&config.StorageConfig{
		Endpoint:   u.Host,
		AccessKey:  "test",
		SecretKey:  "testsecret",
		Bucket:     "participa-df",
		Region:     "us-east-1",
		ExpireDays: 7,
	})
	if err != nil {
		t.Fatalf("NewMinioService failed: %v", err)
	}
	return svc, fake
}

func TestMinioServiceEnsureBucket(t *testing.T) {
	svc, fake := newFakeMinio(t)

	if err := svc.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket failed: %v", err)
	}
	if !fake.buckets["participa-df"] {
		t.Error("Expected bucket to be created")
	}
	// Second call finds it
	if err := svc.EnsureBucket(context.Background()); err != nil {
		t.Errorf("EnsureBucket on existing bucket failed: %v", err)
	}
}

func TestMinioServicePutMedia(t *testing.T) {
	svc, fake := newFakeMinio(t)
	ctx := context.Background()
	name := ObjectName("abc", "foto.png")

	if err := svc.PutMedia(ctx, name, strings.NewReader("png!"), 4, "image/png"); err != nil {
		t.Fatalf("PutMedia failed: %v", err)
	}
	if ct := fake.objects["participa-df/uploads/abc/foto.png"]; ct != "image/png" {
		t.Errorf("Expected stored object with content type, got %q", ct)
	}
}

func TestMinioServicePresignedURL(t *testing.T) {
	svc, _ := newFakeMinio(t)

	got, err := svc.PresignedURL(context.Background(), "uploads/abc/foto.png")
	if err != nil {
		t.Fatalf("PresignedURL failed: %v", err)
	}
	if !strings.Contains(got, "/participa-df/uploads/abc/foto.png") {
		t.Errorf("Expected object path in URL, got %s", got)
	}
	if !strings.Contains(got, "X-Amz-Expires=604800") {
		t.Errorf("Expected 7 day expiry, got %s", got)
	}
}

func TestObjectName(t *testing.T) {
	tests := map[string]string{
		"foto.png":             "uploads/id/foto.png",
		"../../etc/passwd":     "uploads/id/passwd",
		`C:\Users\maria\a.jpg`: "uploads/id/a.jpg",
		"":                     "uploads/id/arquivo",
	}
	for in, want := range tests {
		if got := ObjectName("id", in); got != want {
			t.Errorf("ObjectName(%q) = %q, want %q", in, got, want)
		}
	}
}
