package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/candlekeep/astore-go"
)

// Supply-chain operations live under the /supplychain namespace. Unlike the
// object listing paths, these decoders are strict: a missing or invalid
// timestamp is a decode error, not a substitution.

// SignArtifact asks the server to sign the artifact at bucket/key with the
// given PEM-encoded private key and returns the recorded signature.
func (c *Client) SignArtifact(ctx context.Context, bucket, key, privateKeyPEM string) (*astore.Signature, error) {
	const op = "SignArtifact"
	payload := struct {
		PrivateKey string `json:"privateKey"`
	}{PrivateKey: privateKeyPEM}

	res, err := c.postJSON(ctx, op, fmt.Sprintf("/supplychain/sign/%s/%s", bucket, key), &payload)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var sig astore.Signature
	if err := json.NewDecoder(res.Body).Decode(&sig); err != nil {
		return nil, decodeErr(op, err)
	}
	if err := checkSignatures(op, sig); err != nil {
		return nil, err
	}
	return &sig, nil
}

// Signatures returns all recorded signatures for the artifact at
// bucket/key, in server order.
func (c *Client) Signatures(ctx context.Context, bucket, key string) ([]astore.Signature, error) {
	const op = "Signatures"
	res, err := c.do(ctx, op, http.MethodGet, fmt.Sprintf("/supplychain/signatures/%s/%s", bucket, key), nil, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var doc struct {
		Signatures []astore.Signature `json:"signatures"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, decodeErr(op, err)
	}
	if err := checkSignatures(op, doc.Signatures...); err != nil {
		return nil, err
	}
	return doc.Signatures, nil
}

// VerifySignatures asks the server to verify the artifact's signatures
// against the given PEM-encoded public keys.
func (c *Client) VerifySignatures(ctx context.Context, bucket, key string, publicKeysPEM []string) (*astore.VerificationResult, error) {
	const op = "VerifySignatures"
	payload := struct {
		PublicKeys []string `json:"publicKeys"`
	}{PublicKeys: publicKeysPEM}

	res, err := c.postJSON(ctx, op, fmt.Sprintf("/supplychain/verify/%s/%s", bucket, key), &payload)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var vr astore.VerificationResult
	if err := json.NewDecoder(res.Body).Decode(&vr); err != nil {
		return nil, decodeErr(op, err)
	}
	if err := checkSignatures(op, vr.Signatures...); err != nil {
		return nil, err
	}
	return &vr, nil
}

// AttachSBOM records an SBOM document for the artifact at bucket/key.
// Format names the document format ("spdx", "cyclonedx"); content is passed
// through opaquely. The [sbom/spdx] package can produce suitable content.
func (c *Client) AttachSBOM(ctx context.Context, bucket, key, format, content string) (*astore.SBOM, error) {
	const op = "AttachSBOM"
	payload := struct {
		Format  string `json:"format"`
		Content string `json:"content"`
	}{Format: format, Content: content}

	res, err := c.postJSON(ctx, op, fmt.Sprintf("/supplychain/sbom/%s/%s", bucket, key), &payload)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return decodeSBOM(op, res)
}

// GetSBOM fetches the artifact's recorded SBOM. The error is not-found-kind
// if none is attached.
func (c *Client) GetSBOM(ctx context.Context, bucket, key string) (*astore.SBOM, error) {
	const op = "GetSBOM"
	res, err := c.do(ctx, op, http.MethodGet, fmt.Sprintf("/supplychain/sbom/%s/%s", bucket, key), nil, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return decodeSBOM(op, res)
}

// AddAttestation records an attestation of the given type (e.g. "build",
// "test", "scan") for the artifact at bucket/key.
func (c *Client) AddAttestation(ctx context.Context, bucket, key, attType string, data map[string]any) (*astore.Attestation, error) {
	const op = "AddAttestation"
	payload := struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}{Type: attType, Data: data}

	res, err := c.postJSON(ctx, op, fmt.Sprintf("/supplychain/attestations/%s/%s", bucket, key), &payload)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var att astore.Attestation
	if err := json.NewDecoder(res.Body).Decode(&att); err != nil {
		return nil, decodeErr(op, err)
	}
	if att.Timestamp.IsZero() {
		return nil, decodeErr(op, fmt.Errorf("attestation %q has no timestamp", att.ID))
	}
	return &att, nil
}

// Attestations returns all recorded attestations for the artifact at
// bucket/key, in server order.
func (c *Client) Attestations(ctx context.Context, bucket, key string) ([]astore.Attestation, error) {
	const op = "Attestations"
	res, err := c.do(ctx, op, http.MethodGet, fmt.Sprintf("/supplychain/attestations/%s/%s", bucket, key), nil, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var doc struct {
		Attestations []astore.Attestation `json:"attestations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, decodeErr(op, err)
	}
	for _, att := range doc.Attestations {
		if att.Timestamp.IsZero() {
			return nil, decodeErr(op, fmt.Errorf("attestation %q has no timestamp", att.ID))
		}
	}
	return doc.Attestations, nil
}

// postJSON marshals payload and issues a POST with an application/json
// body.
func (c *Client) postJSON(ctx context.Context, op, upath string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, decodeErr(op, err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return c.do(ctx, op, http.MethodPost, upath, nil, headers, bytes.NewReader(body), int64(len(body)))
}

func decodeSBOM(op string, res *http.Response) (*astore.SBOM, error) {
	var s astore.SBOM
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		return nil, decodeErr(op, err)
	}
	if s.Timestamp.IsZero() {
		return nil, decodeErr(op, fmt.Errorf("SBOM %q has no timestamp", s.ID))
	}
	return &s, nil
}

func checkSignatures(op string, sigs ...astore.Signature) error {
	for _, sig := range sigs {
		if sig.Timestamp.IsZero() {
			return decodeErr(op, fmt.Errorf("signature %q has no timestamp", sig.ID))
		}
	}
	return nil
}
