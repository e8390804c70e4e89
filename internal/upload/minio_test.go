package upload_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/upload"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// objectServer answers the subset of the S3 API the store uses, with path-style
// addressing and no signature checks.
type objectServer struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

func newObjectServer() *objectServer {
	return &objectServer{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (s *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]

	if _, ok := r.URL.Query()["location"]; ok {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></LocationConstraint>`))
		return
	}

	if len(parts) == 1 || parts[1] == "" {
		switch r.Method {
		case http.MethodHead:
			if !s.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			s.buckets[bucket] = true
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	key := bucket + "/" + parts[1]
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		s.objects[key] = data
		w.Header().Set("ETag", etag(data))
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		data, ok := s.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", etag(data))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodDelete:
		delete(s.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *objectServer) hasBucket(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buckets[name]
}

func (s *objectServer) hasObject(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func etag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

var _ = Describe("MinioStore", func() {
	var (
		ctx     context.Context
		objects *objectServer
		server  *httptest.Server
		store   *upload.MinioStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		objects = newObjectServer()
		server = httptest.NewServer(objects)

		var err error
		store, err = upload.NewMinioStore(ctx, internal.MinioConfig{
			Endpoint: strings.TrimPrefix(server.URL, "http://"),
			Bucket:   "employee-photos",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("creates the bucket when it is missing", func() {
		Expect(objects.hasBucket("employee-photos")).To(BeTrue())
	})

	It("stores, serves and removes an object", func() {
		content := "png-bytes"
		Expect(store.Save(ctx, "a.png", strings.NewReader(content), int64(len(content)), "image/png")).To(Succeed())
		Expect(objects.hasObject("employee-photos/a.png")).To(BeTrue())

		rc, err := store.Open(ctx, "a.png")
		Expect(err).NotTo(HaveOccurred())
		data, err := io.ReadAll(rc)
		Expect(err).NotTo(HaveOccurred())
		Expect(rc.Close()).To(Succeed())
		Expect(string(data)).To(ContainSubstring(content))

		Expect(store.Remove(ctx, "a.png")).To(Succeed())
		Expect(objects.hasObject("employee-photos/a.png")).To(BeFalse())
	})

	It("maps a missing key to ErrNotFound", func() {
		_, err := store.Open(ctx, "missing.png")
		Expect(err).To(MatchError(upload.ErrNotFound))
	})
})
