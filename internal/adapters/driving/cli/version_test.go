package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_Prints(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "release build", version: "1.4.0"},
		{name: "development build", version: "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupRootTest(t)
			original := version
			version = tt.version
			t.Cleanup(func() { version = original })

			out, err := executeRoot("version")

			require.NoError(t, err)
			assert.Contains(t, out, "remarkable-pocket version "+tt.version)
			assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
		})
	}
}

func TestVersionCmd_DoesNotSync(t *testing.T) {
	calls := setupRootTest(t)

	_, err := executeRoot("version")

	require.NoError(t, err)
	assert.Empty(t, *calls)
}
