package astore

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Digest is a content address for an artifact, serialized as "algorithm:hex".
//
// The zero Digest is valid and serializes as the empty string, which the
// server uses to mean "no digest recorded".
type Digest struct {
	algo     string
	checksum []byte
}

func (d Digest) Checksum() []byte { return d.checksum }

func (d Digest) Algorithm() string { return d.algo }

func (d Digest) IsZero() bool { return d.algo == "" && len(d.checksum) == 0 }

func (d Digest) String() string {
	b, _ := d.MarshalText()
	return string(b)
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	el := hex.EncodedLen(len(d.checksum))
	hl := len(d.algo) + 1
	b := make([]byte, hl+el)
	copy(b, d.algo)
	b[len(d.algo)] = ':'
	hex.Encode(b[hl:], d.checksum)
	return b, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(t []byte) error {
	if len(t) == 0 {
		d.algo, d.checksum = "", nil
		return nil
	}
	i := bytes.IndexByte(t, ':')
	if i < 1 {
		return fmt.Errorf("invalid digest format: %q", string(t))
	}
	algo := string(t[:i])
	t = t[i+1:]
	sum := make([]byte, hex.DecodedLen(len(t)))
	if _, err := hex.Decode(sum, t); err != nil {
		return fmt.Errorf("invalid digest format: algorithm %q with malformed checksum", algo)
	}
	d.algo = algo
	d.checksum = sum
	return nil
}

// NewDigest constructs a Digest from an algorithm name and a raw checksum.
func NewDigest(algo string, sum []byte) Digest {
	return Digest{
		algo:     algo,
		checksum: sum,
	}
}

// ParseDigest parses the "algorithm:hex" form.
func ParseDigest(digest string) (Digest, error) {
	d := Digest{}
	return d, d.UnmarshalText([]byte(digest))
}
