package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/candlekeep/astore-go"
)

// Multipart upload is a strict four-step protocol: initiate, upload parts,
// then complete or abort. Each step is an independent, stateless call; the
// SDK enforces no ordering and keeps no session state. Sequencing mistakes
// (a part for an unknown upload ID, say) surface as server errors.

// InitiateMultipartUpload opens a multipart upload session for bucket/key
// and returns its server-assigned upload ID. Content type and metadata are
// fixed at initiation, as with [Client.Upload].
func (c *Client) InitiateMultipartUpload(ctx context.Context, bucket, key string, opts *UploadOptions) (*astore.MultipartUpload, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}

	headers := metadataHeaders(opts.ContentType, opts.Metadata)
	query := url.Values{"uploads": {""}}

	res, err := c.do(ctx, "InitiateMultipartUpload", http.MethodPost, fmt.Sprintf("/s3/%s/%s", bucket, key), query, headers, nil, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var doc struct {
		UploadID string `json:"uploadId"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, decodeErr("InitiateMultipartUpload", err)
	}
	return &astore.MultipartUpload{
		UploadID: doc.UploadID,
		Bucket:   bucket,
		Key:      key,
	}, nil
}

// UploadPart transfers one part of a multipart upload and returns the
// server's ETag for it, which the caller must collect into an
// [astore.CompletedPart] for the completion call. Part numbers are 1-based.
func (c *Client) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, data io.Reader, size int64) (string, error) {
	query := url.Values{}
	query.Set("uploadId", uploadID)
	query.Set("partNumber", strconv.Itoa(partNumber))

	res, err := c.do(ctx, "UploadPart", http.MethodPut, fmt.Sprintf("/s3/%s/%s", bucket, key), query, nil, data, size)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	return strings.Trim(res.Header.Get("ETag"), `"`), nil
}

// CompleteMultipartUpload combines previously uploaded parts into the final
// object. Parts are sent in the order supplied; the SDK does not sort them
// or validate contiguity.
func (c *Client) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []astore.CompletedPart) error {
	doc := struct {
		Parts []astore.CompletedPart `json:"parts"`
	}{Parts: parts}
	body, err := json.Marshal(&doc)
	if err != nil {
		return decodeErr("CompleteMultipartUpload", err)
	}

	query := url.Values{}
	query.Set("uploadId", uploadID)
	headers := map[string]string{"Content-Type": "application/json"}

	res, err := c.do(ctx, "CompleteMultipartUpload", http.MethodPost, fmt.Sprintf("/s3/%s/%s", bucket, key), query, headers, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return err
	}
	return res.Body.Close()
}

// AbortMultipartUpload discards an in-progress multipart upload and any
// parts the server holds for it.
func (c *Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	query := url.Values{}
	query.Set("uploadId", uploadID)

	res, err := c.do(ctx, "AbortMultipartUpload", http.MethodDelete, fmt.Sprintf("/s3/%s/%s", bucket, key), query, nil, nil, 0)
	if err != nil {
		return err
	}
	return res.Body.Close()
}
