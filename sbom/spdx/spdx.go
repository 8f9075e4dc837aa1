// Package spdx implements an SPDX encoder for artifact SBOMs.
package spdx

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/package-url/packageurl-go"
	spdxjson "github.com/spdx/tools-golang/json"
	"github.com/spdx/tools-golang/spdx/common"
	v2common "github.com/spdx/tools-golang/spdx/v2/common"
	"github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/candlekeep/astore-go"
	"github.com/candlekeep/astore-go/sbom"
)

// Version describes the SPDX version to target.
type Version string

const (
	V2_3 Version = "v2.3"
)

// Format describes the data format for the SPDX document.
type Format string

const JSONFormat Format = "json"

// Option is a type for setting optional fields for the Encoder.
type Option func(*Encoder)

// Creator describes the creator of the SPDX document that will be produced
// from the encoding.
type Creator struct {
	// Creator is the value of the [Creator] relationship.
	Creator string
	// CreatorType is the key of the [Creator] relationship.
	// In accordance to the SPDX v2 spec, CreatorType should be one of
	// "Person", "Organization", or "Tool".
	CreatorType string
}

var _ sbom.Encoder = (*Encoder)(nil)

// Encoder renders an [sbom.Artifact] as an SPDX document. The produced
// document describes the artifact as its root package, carrying the
// artifact digest as a package checksum, with one CONTAINS-related package
// per component.
type Encoder struct {
	// The target SPDX version in which to encode.
	Version Version
	// The data format in which to encode.
	DataFormat Format
	// The SPDX document creator information.
	Creators []Creator
	// The SPDX document namespace field.
	DocumentNamespace string
	// The SPDX document comment field.
	DocumentComment string
}

// NewDefaultEncoder creates an Encoder with default values and sets
// optional fields based on the provided options.
func NewDefaultEncoder(options ...Option) *Encoder {
	e := &Encoder{
		Version:    V2_3,
		DataFormat: JSONFormat,
		Creators: []Creator{
			{
				Creator:     "astore-go-" + astore.Version,
				CreatorType: "Tool",
			},
		},
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// WithDocumentNamespace is used to set the SPDX document namespace field.
func WithDocumentNamespace(namespace string) Option {
	return func(e *Encoder) {
		e.DocumentNamespace = namespace
	}
}

// WithDocumentComment is used to set the SPDX document comment field.
func WithDocumentComment(comment string) Option {
	return func(e *Encoder) {
		e.DocumentComment = comment
	}
}

// Format implements [sbom.Encoder]. The artifact store records SPDX
// documents under the "spdx" format tag regardless of serialization.
func (e *Encoder) Format() string { return "spdx" }

// Encode implements [sbom.Encoder].
func (e *Encoder) Encode(ctx context.Context, w io.Writer, a *sbom.Artifact) error {
	doc, err := e.buildDocument(ctx, a)
	if err != nil {
		return err
	}

	// TODO(maint): support SPDX versions before 2.3 once a consumer needs
	// one; tools-golang can down-convert.
	var out common.AnyDocument
	switch e.Version {
	case V2_3:
		out = doc
	default:
		return fmt.Errorf("unknown SPDX version: %v", e.Version)
	}

	switch e.DataFormat {
	case JSONFormat:
		return spdxjson.Write(out, w)
	}
	return fmt.Errorf("unknown requested format: %v", e.DataFormat)
}

func (e *Encoder) buildDocument(ctx context.Context, a *sbom.Artifact) (*v2_3.Document, error) {
	creators := make([]v2common.Creator, len(e.Creators))
	for i, creator := range e.Creators {
		creators[i] = v2common.Creator{
			Creator:     creator.Creator,
			CreatorType: creator.CreatorType,
		}
	}

	root := &v2_3.Package{
		PackageName:             a.Name,
		PackageSPDXIdentifier:   "Artifact",
		PackageDownloadLocation: "NOASSERTION",
		PrimaryPackagePurpose:   "APPLICATION",
	}
	if !a.Digest.IsZero() {
		root.PackageChecksums = []v2common.Checksum{{
			Algorithm: v2common.ChecksumAlgorithm(strings.ToUpper(a.Digest.Algorithm())),
			Value:     fmt.Sprintf("%x", a.Digest.Checksum()),
		}}
	}

	out := &v2_3.Document{
		SPDXVersion:       v2_3.Version,
		DataLicense:       v2_3.DataLicense,
		SPDXIdentifier:    "DOCUMENT",
		DocumentName:      a.Name,
		DocumentNamespace: e.DocumentNamespace,
		CreationInfo: &v2_3.CreationInfo{
			Creators: creators,
			Created:  time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		},
		DocumentComment: e.DocumentComment,
		Packages:        []*v2_3.Package{root},
		Relationships: []*v2_3.Relationship{{
			RefA:         v2common.MakeDocElementID("", "DOCUMENT"),
			RefB:         v2common.MakeDocElementID("", string(root.PackageSPDXIdentifier)),
			Relationship: "DESCRIBES",
		}},
	}

	for i, comp := range a.Components {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pkg, err := newSpdxPackageFromComponent(i, comp)
		if err != nil {
			return nil, err
		}
		out.Packages = append(out.Packages, pkg)
		out.Relationships = append(out.Relationships, &v2_3.Relationship{
			RefA:         v2common.MakeDocElementID("", string(root.PackageSPDXIdentifier)),
			RefB:         v2common.MakeDocElementID("", string(pkg.PackageSPDXIdentifier)),
			Relationship: "CONTAINS",
		})
	}

	return out, nil
}

func newSpdxPackageFromComponent(i int, comp sbom.Component) (*v2_3.Package, error) {
	purl := comp.PURL
	if purl == "" && comp.Kind != "" {
		purl = packageurl.NewPackageURL(comp.Kind, "", comp.Name, comp.Version, nil, "").ToString()
	} else if purl != "" {
		if _, err := packageurl.FromString(purl); err != nil {
			return nil, fmt.Errorf("component %q: %w", comp.Name, err)
		}
	}

	pkg := &v2_3.Package{
		PackageName:             comp.Name,
		PackageSPDXIdentifier:   v2common.ElementID("Package-" + strconv.Itoa(i)),
		PackageVersion:          comp.Version,
		PackageDownloadLocation: "NOASSERTION",
	}
	if purl != "" {
		pkg.PackageExternalReferences = []*v2_3.PackageExternalReference{{
			Category: "PACKAGE-MANAGER",
			RefType:  "purl",
			Locator:  purl,
		}}
	}
	return pkg, nil
}
