package astore

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDigestRoundTrip(t *testing.T) {
	t.Parallel()
	const in = `sha256:5f70bf18a086007016e948b04aed3b82103a36bea41755b6cddfaf10ace3c6ef`
	d, err := ParseDigest(in)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := d.Algorithm(), "sha256"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := d.String(), in; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

func TestDigestInvalid(t *testing.T) {
	t.Parallel()
	tt := []struct {
		Name string
		In   string
	}{
		{Name: "NoSeparator", In: "sha256deadbeef"},
		{Name: "EmptyAlgorithm", In: ":deadbeef"},
		{Name: "BadHex", In: "sha256:nothex"},
		{Name: "OddLengthHex", In: "sha256:abc"},
	}
	for _, tc := range tt {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseDigest(tc.In); err == nil {
				t.Errorf("%q: expected an error", tc.In)
			}
		})
	}
}

func TestDigestJSON(t *testing.T) {
	t.Parallel()
	type doc struct {
		Digest Digest `json:"digest"`
	}
	in := doc{Digest: NewDigest("sha256", []byte{0xde, 0xad, 0xbe, 0xef})}
	b, err := json.Marshal(&in)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"digest":"sha256:deadbeef"}`; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	var out doc
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(in.Digest.String(), out.Digest.String()) {
		t.Error(cmp.Diff(in.Digest.String(), out.Digest.String()))
	}
}

func TestDigestZero(t *testing.T) {
	t.Parallel()
	var d Digest
	if !d.IsZero() {
		t.Error("zero digest should report IsZero")
	}
	if got := d.String(); got != "" {
		t.Errorf("got: %q, want empty", got)
	}
	if err := d.UnmarshalText(nil); err != nil {
		t.Errorf("empty text should decode to the zero digest: %v", err)
	}
}
