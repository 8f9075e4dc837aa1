package astore

import "time"

// Signature is a cryptographic signature over an artifact.
type Signature struct {
	ID string `json:"id"`
	// ArtifactDigest identifies the exact artifact version that was
	// signed, in "algorithm:hex" form.
	ArtifactDigest Digest `json:"artifactDigest"`
	// Signature is the base64 signature value as produced by the server.
	Signature string    `json:"signature"`
	Algorithm string    `json:"algorithm"`
	SignedBy  string    `json:"signedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// SBOM is a Software Bill of Materials attached to an artifact. Content is
// opaque to the SDK; Format names the document format ("spdx",
// "cyclonedx").
type SBOM struct {
	ID             string    `json:"id"`
	ArtifactDigest Digest    `json:"artifactDigest"`
	Format         string    `json:"format"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// Attestation is a structured claim (build, test, scan provenance)
// associated with an artifact.
type Attestation struct {
	ID             string         `json:"id"`
	ArtifactDigest Digest         `json:"artifactDigest"`
	Type           string         `json:"type"`
	Data           map[string]any `json:"data"`
	Timestamp      time.Time      `json:"timestamp"`
}

// VerificationResult reports the outcome of verifying an artifact's
// signatures against a set of public keys.
type VerificationResult struct {
	Valid      bool        `json:"valid"`
	Message    string      `json:"message"`
	Signatures []Signature `json:"signatures"`
}
