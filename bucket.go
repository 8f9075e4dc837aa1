// Package astore holds the data model for the candlekeep artifact store.
//
// Types in this package are plain value objects constructed from server
// responses; they carry no behavior and the SDK never mutates them after
// decode. The [client] subpackage implements the operations that produce
// them.
package astore

import "time"

// Bucket is a named container for objects.
type Bucket struct {
	Name string `json:"name"`
	// CreationDate is reported by the server in RFC 3339 form with a "Z"
	// suffix.
	CreationDate time.Time `json:"creationDate"`
}

// ListBucketsResult is the decoded response of a bucket listing.
type ListBucketsResult struct {
	Buckets []Bucket `json:"buckets"`
}
