package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// Sign is the subcommand signing an artifact with a local PEM key.
func Sign(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore sign", flag.ExitOnError)
	keyFile := fs.String("key", "", "path to a PEM-encoded private key (required)")
	fs.Parse(args)
	if fs.NArg() != 2 || *keyFile == "" {
		return fmt.Errorf("usage: astore sign -key <private.pem> <bucket> <key>")
	}

	pem, err := os.ReadFile(*keyFile)
	if err != nil {
		return err
	}
	sig, err := cfg.Client.SignArtifact(ctx, fs.Arg(0), fs.Arg(1), string(pem))
	if err != nil {
		return err
	}
	fmt.Printf("signed %s (%s) as %s\n", sig.ArtifactDigest, sig.Algorithm, sig.ID)
	return nil
}

// Verify is the subcommand verifying an artifact's signatures.
func Verify(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore verify", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 3 {
		return fmt.Errorf("usage: astore verify <bucket> <key> <public.pem>...")
	}

	keys := make([]string, 0, fs.NArg()-2)
	for _, f := range fs.Args()[2:] {
		pem, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		keys = append(keys, string(pem))
	}
	vr, err := cfg.Client.VerifySignatures(ctx, fs.Arg(0), fs.Arg(1), keys)
	if err != nil {
		return err
	}
	fmt.Printf("valid: %v\t%s\n", vr.Valid, vr.Message)
	if !vr.Valid {
		return fmt.Errorf("verification failed")
	}
	return nil
}

// Signatures is the subcommand listing an artifact's signatures.
func Signatures(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore signatures", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: astore signatures <bucket> <key>")
	}

	sigs, err := cfg.Client.Signatures(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, s := range sigs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Algorithm, s.SignedBy, s.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// SBOM is the subcommand attaching or fetching an artifact SBOM.
func SBOM(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore sbom", flag.ExitOnError)
	attach := fs.String("attach", "", "path of an SBOM document to attach; fetches when unset")
	format := fs.String("format", "spdx", `SBOM format tag ("spdx", "cyclonedx")`)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: astore sbom [-attach <file> [-format <tag>]] <bucket> <key>")
	}
	bucket, key := fs.Arg(0), fs.Arg(1)

	if *attach != "" {
		content, err := os.ReadFile(*attach)
		if err != nil {
			return err
		}
		s, err := cfg.Client.AttachSBOM(ctx, bucket, key, *format, string(content))
		if err != nil {
			return err
		}
		fmt.Printf("attached %s SBOM %s to %s\n", s.Format, s.ID, s.ArtifactDigest)
		return nil
	}

	s, err := cfg.Client.GetSBOM(ctx, bucket, key)
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(s.Content)
	return err
}

// Attest is the subcommand attaching an attestation. The attestation body
// is read from a JSON file or stdin when the path is "-".
func Attest(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore attest", flag.ExitOnError)
	attType := fs.String("type", "build", `attestation type ("build", "test", "scan", ...)`)
	fs.Parse(args)
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: astore attest [-type <type>] <bucket> <key> <data.json|->")
	}

	var raw []byte
	var err error
	if fs.Arg(2) == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(fs.Arg(2))
	}
	if err != nil {
		return err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("attestation data must be a JSON object: %w", err)
	}

	att, err := cfg.Client.AddAttestation(ctx, fs.Arg(0), fs.Arg(1), *attType, data)
	if err != nil {
		return err
	}
	fmt.Printf("attached %s attestation %s to %s\n", att.Type, att.ID, att.ArtifactDigest)
	return nil
}

// Attestations is the subcommand listing an artifact's attestations.
func Attestations(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("astore attestations", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: astore attestations <bucket> <key>")
	}

	atts, err := cfg.Client.Attestations(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, a := range atts {
		if err := enc.Encode(a); err != nil {
			return err
		}
	}
	return nil
}
