package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quay/zlog"

	"github.com/candlekeep/astore-go"
)

// downloadChunk is the read granularity for Download; the progress callback
// fires at most once per chunk.
const downloadChunk = 8192

const defaultContentType = "application/octet-stream"

// UploadOptions carries the optional parameters for Upload and
// InitiateMultipartUpload.
type UploadOptions struct {
	// ContentType defaults to "application/octet-stream".
	ContentType string

	// Metadata entries are sent as "X-Amz-Meta-<key>" headers.
	Metadata map[string]string

	// Progress, when non-nil, receives the cumulative bytes read from the
	// upload body.
	Progress ProgressFunc
}

// DownloadOptions carries the optional parameters for Download.
type DownloadOptions struct {
	// Range requests a byte range, e.g. "bytes=0-1023".
	Range string

	// Progress, when non-nil, receives the cumulative bytes written to
	// the destination after every chunk.
	Progress ProgressFunc
}

// ListOptions carries the optional parameters for ListObjects.
type ListOptions struct {
	// Prefix filters keys; omitted from the request when empty.
	Prefix string

	// MaxKeys caps the number of entries returned; omitted from the
	// request when zero or negative.
	MaxKeys int
}

// CreateBucket creates a new bucket. The error is conflict-kind if the
// bucket already exists.
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	res, err := c.do(ctx, "CreateBucket", http.MethodPut, "/s3/"+bucket, nil, nil, nil, 0)
	if err != nil {
		return err
	}
	return res.Body.Close()
}

// DeleteBucket deletes a bucket. The error is not-found-kind if the bucket
// does not exist.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	res, err := c.do(ctx, "DeleteBucket", http.MethodDelete, "/s3/"+bucket, nil, nil, nil, 0)
	if err != nil {
		return err
	}
	return res.Body.Close()
}

// ListBuckets lists all buckets.
func (c *Client) ListBuckets(ctx context.Context) (*astore.ListBucketsResult, error) {
	res, err := c.do(ctx, "ListBuckets", http.MethodGet, "/s3", nil, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out astore.ListBucketsResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, decodeErr("ListBuckets", err)
	}
	return &out, nil
}

// Upload stores an artifact under bucket/key, streaming data as the request
// body without buffering it. Size must be the exact byte length of data.
func (c *Client) Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, opts *UploadOptions) error {
	if opts == nil {
		opts = &UploadOptions{}
	}

	body := data
	if opts.Progress != nil {
		body = &progressReader{r: data, fn: opts.Progress}
	}

	headers := metadataHeaders(opts.ContentType, opts.Metadata)

	res, err := c.do(ctx, "Upload", http.MethodPut, fmt.Sprintf("/s3/%s/%s", bucket, key), nil, headers, body, size)
	if err != nil {
		return err
	}
	return res.Body.Close()
}

// Download fetches an artifact and writes it to dst in 8 KiB chunks,
// bounding memory for large objects. The error is not-found-kind if the
// object does not exist.
func (c *Client) Download(ctx context.Context, bucket, key string, dst io.Writer, opts *DownloadOptions) error {
	if opts == nil {
		opts = &DownloadOptions{}
	}

	var headers map[string]string
	if opts.Range != "" {
		headers = map[string]string{"Range": opts.Range}
	}

	res, err := c.do(ctx, "Download", http.MethodGet, fmt.Sprintf("/s3/%s/%s", bucket, key), nil, headers, nil, 0)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	w := dst
	if opts.Progress != nil {
		w = &progressWriter{w: dst, fn: opts.Progress}
	}
	if _, err := io.CopyBuffer(struct{ io.Writer }{w}, res.Body, make([]byte, downloadChunk)); err != nil {
		return &astore.Error{
			Kind:    astore.ErrTransport,
			Message: "download interrupted",
			Op:      "Download",
			Inner:   err,
		}
	}
	return nil
}

// GetObjectMetadata retrieves an object's metadata via a HEAD request,
// without transferring the object body.
//
// Quirk preserved from the server's reference clients: a missing or
// unparseable Last-Modified header yields the current time rather than an
// error. The substitution is logged.
func (c *Client) GetObjectMetadata(ctx context.Context, bucket, key string) (*astore.Object, error) {
	res, err := c.do(ctx, "GetObjectMetadata", http.MethodHead, fmt.Sprintf("/s3/%s/%s", bucket, key), nil, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	obj := &astore.Object{
		Key:         key,
		ETag:        strings.Trim(res.Header.Get("ETag"), `"`),
		ContentType: res.Header.Get("Content-Type"),
		Metadata:    map[string]string{},
	}

	if cl := res.Header.Get("Content-Length"); cl != "" {
		size, err := strconv.ParseInt(cl, 10, 64)
		if err != nil {
			return nil, decodeErr("GetObjectMetadata", fmt.Errorf("bad Content-Length %q: %w", cl, err))
		}
		obj.Size = size
	}

	lm, err := http.ParseTime(res.Header.Get("Last-Modified"))
	if err != nil {
		zlog.Warn(ctx).
			Str("bucket", bucket).
			Str("key", key).
			Msg("missing or unparseable Last-Modified header, substituting current time")
		lm = time.Now()
	}
	obj.LastModified = lm

	for name, vs := range res.Header {
		if rest, ok := cutMetaPrefix(name); ok && len(vs) > 0 {
			obj.Metadata[rest] = vs[0]
		}
	}
	return obj, nil
}

// DeleteObject deletes an artifact.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	res, err := c.do(ctx, "DeleteObject", http.MethodDelete, fmt.Sprintf("/s3/%s/%s", bucket, key), nil, nil, nil, 0)
	if err != nil {
		return err
	}
	return res.Body.Close()
}

// ListObjects lists objects in a bucket. A nil opts lists with the server
// default prefix and a 1000-key cap.
//
// Entries without a lastModified value get the current time; same quirk and
// logging as [Client.GetObjectMetadata].
func (c *Client) ListObjects(ctx context.Context, bucket string, opts *ListOptions) (*astore.ListObjectsResult, error) {
	if opts == nil {
		opts = &ListOptions{MaxKeys: 1000}
	}

	query := url.Values{}
	if opts.Prefix != "" {
		query.Set("prefix", opts.Prefix)
	}
	if opts.MaxKeys > 0 {
		query.Set("max-keys", strconv.Itoa(opts.MaxKeys))
	}

	res, err := c.do(ctx, "ListObjects", http.MethodGet, "/s3/"+bucket, query, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out astore.ListObjectsResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, decodeErr("ListObjects", err)
	}
	for i := range out.Objects {
		if out.Objects[i].LastModified.IsZero() {
			zlog.Warn(ctx).
				Str("bucket", bucket).
				Str("key", out.Objects[i].Key).
				Msg("listing entry has no lastModified, substituting current time")
			out.Objects[i].LastModified = time.Now()
		}
	}
	return &out, nil
}

// CopyObject copies an object server-side; no object data moves through the
// client.
func (c *Client) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	headers := map[string]string{
		"X-Amz-Copy-Source": fmt.Sprintf("/%s/%s", srcBucket, srcKey),
	}
	res, err := c.do(ctx, "CopyObject", http.MethodPut, fmt.Sprintf("/s3/%s/%s", dstBucket, dstKey), nil, headers, nil, 0)
	if err != nil {
		return err
	}
	return res.Body.Close()
}

// metadataHeaders builds the Content-Type and X-Amz-Meta-* headers shared
// by Upload and InitiateMultipartUpload.
func metadataHeaders(contentType string, metadata map[string]string) map[string]string {
	if contentType == "" {
		contentType = defaultContentType
	}
	headers := map[string]string{"Content-Type": contentType}
	for k, v := range metadata {
		headers["X-Amz-Meta-"+k] = v
	}
	return headers
}

// cutMetaPrefix strips the user metadata header prefix, case-insensitively.
// The remainder is lowercased: net/http canonicalizes received header names,
// so this is the only way "version" survives a round trip as "version".
func cutMetaPrefix(name string) (string, bool) {
	const prefix = "x-amz-meta-"
	if len(name) <= len(prefix) || !strings.EqualFold(name[:len(prefix)], prefix) {
		return "", false
	}
	return strings.ToLower(name[len(prefix):]), true
}
