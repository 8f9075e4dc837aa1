package astore

// MultipartUpload identifies a server-side multipart upload session.
//
// The UploadID is assigned by the server and is opaque; the SDK keeps no
// state about the session beyond this value.
type MultipartUpload struct {
	UploadID string `json:"uploadId"`
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
}

// CompletedPart pairs a 1-based part number with the ETag the server
// returned for that part. Callers collect these from UploadPart calls and
// pass them, in the order they want, to CompleteMultipartUpload. The SDK
// does not sort or validate contiguity; that is the server's job.
type CompletedPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}
