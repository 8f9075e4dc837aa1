package astore

import "time"

// Object is a stored artifact: a named binary blob under a bucket, plus the
// metadata the server records about it.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	// LastModified may be absent in listing responses from older servers;
	// see the notes on [client.Client.ListObjects].
	LastModified time.Time `json:"lastModified"`
	// ETag is the server-assigned opaque version identifier, without the
	// surrounding quotes the wire format carries.
	ETag        string            `json:"etag,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	// Metadata holds the user metadata, with the "X-Amz-Meta-" header
	// prefix stripped.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListObjectsResult is the decoded response of an object listing.
type ListObjectsResult struct {
	Objects     []Object `json:"contents"`
	Prefix      string   `json:"prefix"`
	MaxKeys     int      `json:"maxKeys"`
	IsTruncated bool     `json:"isTruncated"`
}
