package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/quay/zlog"

	"github.com/candlekeep/astore-go"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCreateBucket(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/s3/releases" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
	})
	if err := c.CreateBucket(ctx, "releases"); err != nil {
		t.Fatal(err)
	}
}

func TestCreateBucketConflict(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error": "Bucket already exists"}`)
	})
	err := c.CreateBucket(ctx, "releases")
	if !errors.Is(err, astore.ErrConflict) {
		t.Fatalf("got: %v, want conflict kind", err)
	}
	var domain *astore.Error
	if !errors.As(err, &domain) {
		t.Fatal("not an *astore.Error")
	}
	if got, want := domain.Message, "Bucket already exists"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

func TestDeleteBucket(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "Bucket not found"}`)
	})
	if err := c.DeleteBucket(ctx, "gone"); !errors.Is(err, astore.ErrNotFound) {
		t.Errorf("got: %v, want not found kind", err)
	}
}

func TestListBuckets(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/s3" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"buckets": [
			{"name": "releases", "creationDate": "2024-01-15T10:30:00Z"},
			{"name": "snapshots", "creationDate": "2024-02-01T00:00:00Z"}
		]}`)
	})
	got, err := c.ListBuckets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := &astore.ListBucketsResult{Buckets: []astore.Bucket{
		{Name: "releases", CreationDate: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{Name: "snapshots", CreationDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	payload := bytes.Repeat([]byte("artifact"), 1024)

	var gotBody []byte
	var gotHeader http.Header
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/s3/releases/app-1.0.0.tar.gz" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotHeader = r.Header.Clone()
		var err error
		gotBody, err = io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
	})

	var progress []int64
	err := c.Upload(ctx, "releases", "app-1.0.0.tar.gz", bytes.NewReader(payload), int64(len(payload)), &UploadOptions{
		ContentType: "application/gzip",
		Metadata:    map[string]string{"version": "1.0.0"},
		Progress:    func(n int64) { progress = append(progress, n) },
	})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(gotBody, payload) {
		t.Error("uploaded body does not match")
	}
	if got, want := gotHeader.Get("Content-Type"), "application/gzip"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := gotHeader.Get("X-Amz-Meta-version"), "1.0.0"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	checkProgress(t, progress, int64(len(payload)))
}

func TestDownload(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	payload := bytes.Repeat([]byte("binary"), 10000) // several chunks worth

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	var buf bytes.Buffer
	var progress []int64
	err := c.Download(ctx, "releases", "app", &buf, &DownloadOptions{
		Progress: func(n int64) { progress = append(progress, n) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Error("downloaded body does not match")
	}
	checkProgress(t, progress, int64(len(payload)))
	if len(progress) < 2 {
		t.Errorf("expected chunked progress reports, got %d", len(progress))
	}
}

func TestDownloadRange(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	var gotRange string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("partial"))
	})
	var buf bytes.Buffer
	if err := c.Download(ctx, "releases", "app", &buf, &DownloadOptions{Range: "bytes=0-1023"}); err != nil {
		t.Fatal(err)
	}
	if got, want := gotRange, "bytes=0-1023"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

func TestDownloadNotFound(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "Object not found"}`)
	})
	err := c.Download(ctx, "releases", "gone", io.Discard, nil)
	if !errors.Is(err, astore.ErrNotFound) {
		t.Errorf("got: %v, want not found kind", err)
	}
}

func TestGetObjectMetadata(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	lastMod := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method: %s", r.Method)
		}
		h := w.Header()
		h.Set("Content-Length", "2048")
		h.Set("Content-Type", "application/gzip")
		h.Set("ETag", `"d41d8cd98f"`)
		h.Set("Last-Modified", lastMod.Format(http.TimeFormat))
		h.Set("X-Amz-Meta-version", "1.0.0")
		h.Set("X-Amz-Meta-built-by", "ci")
	})

	got, err := c.GetObjectMetadata(ctx, "releases", "app")
	if err != nil {
		t.Fatal(err)
	}
	want := &astore.Object{
		Key:          "app",
		Size:         2048,
		LastModified: lastMod,
		ETag:         "d41d8cd98f",
		ContentType:  "application/gzip",
		Metadata: map[string]string{
			"version":  "1.0.0",
			"built-by": "ci",
		},
	}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}

func TestGetObjectMetadataMissingLastModified(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1")
	})
	before := time.Now()
	got, err := c.GetObjectMetadata(ctx, "releases", "app")
	if err != nil {
		t.Fatal(err)
	}
	// The documented quirk: absent header decodes as "now", not an error.
	if got.LastModified.Before(before) {
		t.Errorf("expected a current-time substitute, got %v", got.LastModified)
	}
}

func TestListObjects(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	var gotQuery url.Values
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{
			"contents": [
				{"key": "app/a.tar.gz", "size": 10, "lastModified": "2024-03-10T08:00:00Z", "etag": "aaa"},
				{"key": "app/b.tar.gz", "size": 20}
			],
			"prefix": "app/",
			"maxKeys": 100,
			"isTruncated": true
		}`)
	})

	res, err := c.ListObjects(ctx, "releases", &ListOptions{Prefix: "app/", MaxKeys: 100})
	if err != nil {
		t.Fatal(err)
	}

	if got, want := gotQuery.Get("prefix"), "app/"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := gotQuery.Get("max-keys"), "100"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := res.Prefix, "app/"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if !res.IsTruncated {
		t.Error("expected IsTruncated")
	}
	if got, want := res.Objects[0].LastModified, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got: %v, want: %v", got, want)
	}
	// Missing lastModified gets the current-time substitute.
	if res.Objects[1].LastModified.IsZero() {
		t.Error("expected a current-time substitute for a missing lastModified")
	}
}

func TestListObjectsOmitsEmptyParams(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	var gotQuery url.Values
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"contents": [], "prefix": "", "maxKeys": 0, "isTruncated": false}`)
	})
	if _, err := c.ListObjects(ctx, "releases", &ListOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, ok := gotQuery["prefix"]; ok {
		t.Error("empty prefix should be omitted")
	}
	if _, ok := gotQuery["max-keys"]; ok {
		t.Error("zero max-keys should be omitted")
	}
}

func TestCopyObject(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	var gotSource, gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSource = r.Header.Get("X-Amz-Copy-Source")
		gotPath = r.URL.Path
	})
	if err := c.CopyObject(ctx, "releases", "app-1.0.0", "archive", "app-1.0.0"); err != nil {
		t.Fatal(err)
	}
	if got, want := gotSource, "/releases/app-1.0.0"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := gotPath, "/s3/archive/app-1.0.0"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

// checkProgress asserts the cumulative-progress invariant: values are
// non-decreasing and the final report equals the total transfer size.
func checkProgress(t *testing.T, reports []int64, total int64) {
	t.Helper()
	if len(reports) == 0 {
		t.Fatal("no progress reports")
	}
	if !slices.IsSorted(reports) {
		t.Error("progress reports are not non-decreasing")
	}
	if got, want := reports[len(reports)-1], total; got != want {
		t.Errorf("final progress report: got %d, want %d", got, want)
	}
}
