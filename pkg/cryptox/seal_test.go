package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/profilesync/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := cryptox.NewSealer([]byte("test-master-key-for-encryption-12345"))
	require.NoError(t, err)

	secret := []byte("eyJhbGciOiJIUzI1NiJ9.bearer.token")

	sealed, err := s.Seal(secret)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), string(secret))

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, secret, opened)
}

func TestSealUsesFreshNonce(t *testing.T) {
	s, err := cryptox.NewSealer([]byte("nonce-check"))
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestOpenRejectsTamperedAndForeignData(t *testing.T) {
	s, err := cryptox.NewSealer([]byte("key-one"))
	require.NoError(t, err)
	other, err := cryptox.NewSealer([]byte("key-two"))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("original"))
	require.NoError(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xFF
	_, err = s.Open(tampered)
	require.Error(t, err)

	_, err = other.Open(sealed)
	require.Error(t, err, "a different master key must not open the data")

	_, err = s.Open([]byte("short"))
	require.ErrorIs(t, err, cryptox.ErrCiphertextTooShort)
}

func TestNewSealerRejectsEmptyKey(t *testing.T) {
	_, err := cryptox.NewSealer(nil)
	require.Error(t, err)
}

func TestLoadMasterKeyPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")
	require.NoError(t, os.WriteFile(path, []byte("from-file"), 0o600))
	t.Setenv(cryptox.MasterKeyEnv, "from-env")

	key, err := cryptox.LoadMasterKey(path)
	require.NoError(t, err)
	require.Equal(t, []byte("from-file"), key)
}

func TestLoadMasterKeyFallsBackToEnv(t *testing.T) {
	t.Setenv(cryptox.MasterKeyEnv, "from-env")

	key, err := cryptox.LoadMasterKey(filepath.Join(t.TempDir(), "missing.key"))
	require.NoError(t, err)
	require.Equal(t, []byte("from-env"), key)
}

func TestLoadMasterKeyGeneratesAndPersists(t *testing.T) {
	t.Setenv(cryptox.MasterKeyEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "master.key")

	first, err := cryptox.LoadMasterKey(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := cryptox.LoadMasterKey(path)
	require.NoError(t, err)
	require.Equal(t, first, second, "a persisted key must be reused")
}
