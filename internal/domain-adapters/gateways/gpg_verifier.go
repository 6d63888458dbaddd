package gateways

import (
	"context"
	"fmt"

	"github.com/yugabyte/thirdparty-tool/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external OpenPGP adapter to implement gateways.SignatureVerifier
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a verifier trusting the keys in keyringPath
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier(keyringPath string) (*gpgVerifier, error) {
	verifier := gpg.NewVerifier()
	if err := verifier.ImportKeyFromFile(keyringPath); err != nil {
		return nil, fmt.Errorf("failed to import GPG keyring %s: %w", keyringPath, err)
	}
	return &gpgVerifier{verifier: verifier}, nil
}

// VerifyDetachedSignature verifies sigPath against filePath
func (g *gpgVerifier) VerifyDetachedSignature(ctx context.Context, filePath, sigPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.verifier.VerifySignatureFromFile(filePath, sigPath); err != nil {
		return fmt.Errorf("GPG signature verification failed for %s: %w", filePath, err)
	}
	return nil
}
