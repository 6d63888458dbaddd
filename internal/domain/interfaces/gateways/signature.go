package gateways

import "context"

// SignatureVerifier checks a detached signature over a local file
type SignatureVerifier interface {
	VerifyDetachedSignature(ctx context.Context, filePath, sigPath string) error
}
