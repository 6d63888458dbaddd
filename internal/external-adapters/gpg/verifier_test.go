package gpg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = "sha: 4c3e5d2aa5b6c7d8e9f00112233445566778899a\narchives: []\n"

// newSigningKey generates a key pair and writes its armored public key to dir
func newSigningKey(t *testing.T, dir string) (*openpgp.Entity, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("Third-party Release", "", "release@example.com", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())

	keyPath := filepath.Join(dir, "keyring.asc")
	require.NoError(t, os.WriteFile(keyPath, buf.Bytes(), 0o600))
	return entity, keyPath
}

func armoredSignature(t *testing.T, signer *openpgp.Entity, data string) []byte {
	t.Helper()
	var sig bytes.Buffer
	require.NoError(t, openpgp.ArmoredDetachSign(&sig, signer, strings.NewReader(data), nil))
	return sig.Bytes()
}

func binarySignature(t *testing.T, signer *openpgp.Entity, data string) []byte {
	t.Helper()
	var sig bytes.Buffer
	require.NoError(t, openpgp.DetachSign(&sig, signer, strings.NewReader(data), nil))
	return sig.Bytes()
}

func TestVerifier_VerifySignatureFromFile(t *testing.T) {
	dir := t.TempDir()
	signer, keyPath := newSigningKey(t, dir)

	v := NewVerifier()
	require.NoError(t, v.ImportKeyFromFile(keyPath))
	assert.Equal(t, 1, v.GetKeyringSize())

	catalogPath := filepath.Join(dir, "thirdparty_archives.yml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalogYAML), 0o600))

	t.Run("armored", func(t *testing.T) {
		sigPath := filepath.Join(dir, "armored.asc")
		require.NoError(t, os.WriteFile(sigPath, armoredSignature(t, signer, catalogYAML), 0o600))
		assert.NoError(t, v.VerifySignatureFromFile(catalogPath, sigPath))
	})

	t.Run("binary", func(t *testing.T) {
		sigPath := filepath.Join(dir, "binary.sig")
		require.NoError(t, os.WriteFile(sigPath, binarySignature(t, signer, catalogYAML), 0o600))
		assert.NoError(t, v.VerifySignatureFromFile(catalogPath, sigPath))
	})

	t.Run("tampered data", func(t *testing.T) {
		sig := armoredSignature(t, signer, catalogYAML)
		err := v.Verify(strings.NewReader(catalogYAML+"# edited\n"), sig)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signature verification failed")
	})
}

func TestVerifier_UnknownSigner(t *testing.T) {
	dir := t.TempDir()
	_, keyPath := newSigningKey(t, dir)
	other, err := openpgp.NewEntity("Someone Else", "", "other@example.com", nil)
	require.NoError(t, err)

	v := NewVerifier()
	require.NoError(t, v.ImportKeyFromFile(keyPath))

	err = v.Verify(strings.NewReader(catalogYAML), armoredSignature(t, other, catalogYAML))
	assert.Error(t, err)
}

func TestVerifier_ImportKeyFromFile_Errors(t *testing.T) {
	v := NewVerifier()

	err := v.ImportKeyFromFile("/nonexistent/key.asc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open key file")

	garbage := filepath.Join(t.TempDir(), "garbage.asc")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	err = v.ImportKeyFromFile(garbage)
	require.Error(t, err)
	assert.Zero(t, v.GetKeyringSize())
}

func TestVerifier_NoKeysImported(t *testing.T) {
	err := NewVerifier().Verify(strings.NewReader(catalogYAML), []byte("-----BEGIN PGP SIGNATURE-----"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keys imported")
}

func TestVerifier_SignatureSize(t *testing.T) {
	dir := t.TempDir()
	_, keyPath := newSigningKey(t, dir)
	v := NewVerifier()
	require.NoError(t, v.ImportKeyFromFile(keyPath))

	assert.ErrorContains(t, v.Verify(strings.NewReader(catalogYAML), []byte("short")), "too small")
	assert.ErrorContains(t, v.Verify(strings.NewReader(catalogYAML), make([]byte, maxSignatureBytes+1)), "too large")
}

func TestVerifier_VerifySignatureFromFile_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, keyPath := newSigningKey(t, dir)
	v := NewVerifier()
	require.NoError(t, v.ImportKeyFromFile(keyPath))

	err := v.VerifySignatureFromFile(filepath.Join(dir, "missing.yml"), filepath.Join(dir, "missing.asc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open signature file")
}
