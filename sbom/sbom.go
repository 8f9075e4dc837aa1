// Package sbom defines the interface for producing SBOM documents suitable
// for attaching to artifacts via the client's AttachSBOM operation.
package sbom

import (
	"context"
	"io"

	"github.com/candlekeep/astore-go"
)

// Encoder produces an SBOM document describing an artifact.
type Encoder interface {
	// Encode writes the document for the given artifact to w.
	Encode(ctx context.Context, w io.Writer, a *Artifact) error
	// Format reports the format tag the store expects for documents this
	// encoder produces, e.g. "spdx".
	Format() string
}

// Artifact describes the artifact an SBOM is generated for.
type Artifact struct {
	// Name is a human-readable identifier, typically the object key.
	Name string
	// Digest is the artifact's content address, as reported by the store.
	Digest astore.Digest
	// Components are the artifact's known constituent packages.
	Components []Component
}

// Component is one constituent package of an artifact.
type Component struct {
	Name    string
	Version string
	// Kind is the package ecosystem in package-url terms ("golang",
	// "npm", "rpm", ...). Used to synthesize a purl when PURL is unset.
	Kind string
	// PURL is the component's package-url. Optional; synthesized from
	// Kind, Name, and Version when empty.
	PURL string
}
