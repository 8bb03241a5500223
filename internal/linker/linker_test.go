package linker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benbc/recovery/internal/config"
)

func TestLinkPath(t *testing.T) {
	id := "abcdef0123456789"
	got := LinkPath("/out/files", id, ".jpg")
	require.Equal(t, "/out/files/ab/abcdef0123456789.jpg", got)
}

func TestExtensionForPrefersMimeTable(t *testing.T) {
	require.Equal(t, config.MIMEToExt["image/jpeg"], ExtensionFor("image/jpeg", "whatever.weird"))
}

func TestExtensionForFallsBackToFilename(t *testing.T) {
	require.Equal(t, ".weird", ExtensionFor("application/unknown", "file.weird"))
}

func TestExtensionForFallsBackToBin(t *testing.T) {
	require.Equal(t, ".bin", ExtensionFor("application/unknown", "noext"))
}
