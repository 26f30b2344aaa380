package pakfs

import (
	_ "crypto/sha256" // register SHA-256 for go-digest
	_ "crypto/sha512" // register SHA-384 and SHA-512 for go-digest
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// Digest streams the named entry through alg and returns its digest.
// An empty alg selects digest.Canonical (sha256).
func (a *Archive) Digest(name string, alg digest.Algorithm) (digest.Digest, error) {
	if alg == "" {
		alg = digest.Canonical
	}
	if !alg.Available() {
		return "", fmt.Errorf("digest %s: %w", name, digest.ErrDigestUnsupported)
	}

	e, err := a.lookup("digest", name)
	if err != nil {
		return "", err
	}
	r, err := a.OpenEntry(e)
	if err != nil {
		return "", err
	}
	defer r.Close()

	d := alg.Digester()
	if _, err := io.Copy(d.Hash(), r); err != nil {
		return "", fmt.Errorf("digest %s: %w", name, err)
	}
	return d.Digest(), nil
}

// Verify reports ErrDigestMismatch when the named entry does not hash to want.
func (a *Archive) Verify(name string, want digest.Digest) error {
	if err := want.Validate(); err != nil {
		return fmt.Errorf("verify %s: %w", name, err)
	}
	got, err := a.Digest(name, want.Algorithm())
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s: got %s, want %s", ErrDigestMismatch, name, got, want)
	}
	return nil
}
