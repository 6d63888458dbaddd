package yaml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
)

const testSHA = "4c3e5d2aa5b6c7d8e9f00112233445566778899a"

const sampleCatalog = `sha: 4c3e5d2aa5b6c7d8e9f00112233445566778899a
archives:
  - os_type: almalinux8
    architecture: x86_64
    compiler_type: clang17
    sha: 4c3e5d2aa5b6c7d8e9f00112233445566778899a
    tag: v20240215040123-4c3e5d2aa5-almalinux8-x86_64-clang17
  - os_type: amzn2
    architecture: aarch64
    compiler_type: clang17
    sha: 4c3e5d2aa5b6c7d8e9f00112233445566778899a
    tag: v20240215040123-4c3e5d2aa5-amzn2-aarch64-clang17-thin-lto
    lto_type: thin
  - os_type: centos7
    architecture: x86_64
    compiler_type: gcc5
    is_linuxbrew: true
    sha: 4c3e5d2aa5b6c7d8e9f00112233445566778899a
    tag: v20240215040123-4c3e5d2aa5-centos7-x86_64-linuxbrew-gcc5
`

func TestCatalogParser_Parse(t *testing.T) {
	catalog, err := NewCatalogParser().Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, testSHA, catalog.SHA)
	require.Len(t, catalog.Archives, 3)
	assert.Equal(t, entities.ArchiveDescriptor{
		OSType:       "almalinux8",
		Architecture: "x86_64",
		CompilerType: "clang17",
		SHA:          testSHA,
		Tag:          "v20240215040123-4c3e5d2aa5-almalinux8-x86_64-clang17",
	}, catalog.Archives[0])
	assert.Equal(t, entities.LTOThin, catalog.Archives[1].LTOType)
	assert.True(t, catalog.Archives[2].IsLinuxbrew)
}

func TestCatalogParser_Parse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty", yaml: "", wantErr: "must have a sha"},
		{name: "malformed", yaml: "sha: [", wantErr: "failed to parse YAML"},
		{name: "unknown key", yaml: "sha: abc\nversion: 2\n", wantErr: "failed to parse YAML"},
		{
			name:    "unknown archive key",
			yaml:    "sha: abc\narchives:\n  - os_type: amzn2\n    arch: x86_64\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "bad architecture",
			yaml:    "sha: abc\narchives:\n  - {os_type: amzn2, architecture: riscv64, compiler_type: clang17, sha: abc}\n",
			wantErr: "unsupported architecture",
		},
		{
			name:    "bad lto",
			yaml:    "sha: abc\narchives:\n  - {os_type: amzn2, architecture: x86_64, compiler_type: clang17, sha: abc, lto_type: medium}\n",
			wantErr: "unsupported lto_type",
		},
		{
			name:    "missing compiler",
			yaml:    "sha: abc\narchives:\n  - {os_type: amzn2, architecture: x86_64, sha: abc}\n",
			wantErr: "compiler_type is required",
		},
		{
			name:    "missing os",
			yaml:    "sha: abc\narchives:\n  - {architecture: x86_64, compiler_type: clang17, sha: abc}\n",
			wantErr: "os_type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalogParser().Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCatalogParser_Parse_EmptyArchitecture(t *testing.T) {
	parser := NewCatalogParser()
	catalog, err := parser.Parse([]byte("sha: abc\narchives:\n  - {os_type: centos7, compiler_type: gcc5, is_linuxbrew: true, sha: abc}\n"))
	require.NoError(t, err)
	require.Len(t, catalog.Archives, 1)
	assert.Empty(t, catalog.Archives[0].Architecture)

	data, err := parser.Render(catalog)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "architecture")
}

func TestCatalogParser_Render_OmitsDefaults(t *testing.T) {
	parser := NewCatalogParser()
	data, err := parser.Render(&entities.Catalog{
		SHA: testSHA,
		Archives: []entities.ArchiveDescriptor{
			{OSType: "macos", Architecture: "arm64", CompilerType: "clang", SHA: testSHA},
		},
	})
	require.NoError(t, err)

	text := string(data)
	assert.NotContains(t, text, "is_linuxbrew")
	assert.NotContains(t, text, "lto_type")
	assert.NotContains(t, text, "tag:")
	assert.Less(t, strings.Index(text, "os_type"), strings.Index(text, "compiler_type"))
}

func TestCatalogParser_RenderParse(t *testing.T) {
	parser := NewCatalogParser()
	original, err := parser.Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	data, err := parser.Render(original)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(data))
}
