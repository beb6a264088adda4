package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petrarca/magicbytes/internal/aggregator"
	"github.com/petrarca/magicbytes/internal/config"
	"github.com/petrarca/magicbytes/internal/progress"
	"github.com/petrarca/magicbytes/internal/util"
	"github.com/petrarca/magicbytes/pkg/signatures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestIdentifyPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logo.png", pngHeader)
	writeFile(t, dir, "photo.jpg", pngHeader)
	writeFile(t, dir, "notes.txt", []byte("just some text\n"))
	writeFile(t, dir, "sub/doc.pdf", []byte("%PDF-1.7\n"))

	result, err := identifyPaths([]string{dir}, identifyOptions{}, progress.New(false, nil), discardLogger())
	require.NoError(t, err)

	require.Len(t, result.Files, 3, "subdirectories need --recursive")
	byName := make(map[string]int)
	for i, file := range result.Files {
		byName[filepath.Base(file.Path)] = i
	}

	logo := result.Files[byName["logo.png"]]
	assert.Equal(t, "image/png", logo.MimeType)
	assert.False(t, logo.Mismatch())

	photo := result.Files[byName["photo.jpg"]]
	assert.Equal(t, "image/png", photo.MimeType)
	assert.Equal(t, "image/jpeg", photo.ExtensionMime)
	assert.True(t, photo.Mismatch())

	notes := result.Files[byName["notes.txt"]]
	assert.False(t, notes.Matched)
	assert.False(t, notes.Binary)

	m := result.Metadata
	assert.Equal(t, 3, m.FileCount)
	assert.Equal(t, 2, m.MatchedCount)
	assert.Equal(t, 1, m.MismatchCount)
	assert.Equal(t, 1, m.SkippedCount)
	assert.Greater(t, m.TypeCount, 30)
	assert.Empty(t, result.Errors)
}

func TestIdentifyPaths_RecursiveWithExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logo.png", pngHeader)
	writeFile(t, dir, "sub/doc.pdf", []byte("%PDF-1.7\n"))
	writeFile(t, dir, "sub/debug.log", []byte("log line\n"))

	opts := identifyOptions{Recursive: true, Excludes: []string{"*.log"}}
	result, err := identifyPaths([]string{dir}, opts, progress.New(false, nil), discardLogger())
	require.NoError(t, err)

	require.Len(t, result.Files, 2)
	assert.Equal(t, "image/png", result.Files[0].MimeType)
	assert.Equal(t, "application/pdf", result.Files[1].MimeType)
	assert.Equal(t, 1, result.Metadata.SkippedCount)
}

func TestIdentifyPaths_Gitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", []byte("build/\n*.tmp\n"))
	writeFile(t, dir, "logo.png", pngHeader)
	writeFile(t, dir, "scratch.tmp", pngHeader)
	writeFile(t, dir, "build/out.pdf", []byte("%PDF-1.7\n"))

	opts := identifyOptions{Recursive: true, Gitignore: true, GitInfo: true}
	result, err := identifyPaths([]string{dir}, opts, progress.New(false, nil), discardLogger())
	require.NoError(t, err)

	names := make([]string, 0, len(result.Files))
	for _, file := range result.Files {
		names = append(names, filepath.Base(file.Path))
	}
	assert.Equal(t, []string{".gitignore", "logo.png"}, names)
	assert.Equal(t, 2, result.Metadata.SkippedCount)
	assert.True(t, result.Metadata.Gitignore)
	assert.Nil(t, result.Metadata.Git, "temp directory is not a repository")
}

func TestIdentifyPaths_MissingPathCollected(t *testing.T) {
	dir := t.TempDir()
	png := writeFile(t, dir, "logo.png", pngHeader)

	result, err := identifyPaths([]string{filepath.Join(dir, "missing"), png}, identifyOptions{}, progress.New(false, nil), discardLogger())
	require.Error(t, err)
	require.NotNil(t, result)

	require.Len(t, result.Files, 1, "later paths are still identified")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "missing")
}

func TestIdentifyPaths_ExtraSignatures(t *testing.T) {
	sigDir := t.TempDir()
	writeFile(t, sigDir, "custom/acme.yaml", []byte("mime: application/x-acme\nextensions: [acme]\nmagic_text: [\"ACME\"]\n"))

	dataDir := t.TempDir()
	file := writeFile(t, dataDir, "data.acme", []byte("ACME payload"))

	opts := identifyOptions{SignatureDirs: []string{sigDir}}
	result, err := identifyPaths([]string{file}, opts, progress.New(false, nil), discardLogger())
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "application/x-acme", result.Files[0].MimeType)
	assert.Equal(t, "custom", result.Files[0].Category)
}

func TestIdentifyPaths_InlineTypes(t *testing.T) {
	dataDir := t.TempDir()
	file := writeFile(t, dataDir, "data.acme", []byte("ACME payload"))

	project := &config.ProjectConfig{Types: []signatures.Definition{{
		MimeType:   "application/x-acme",
		Extensions: []string{"acme"},
		MagicText:  []string{"ACME"},
	}}}

	result, err := identifyPaths([]string{file}, identifyOptions{Project: project}, progress.New(false, nil), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "application/x-acme", result.Files[0].MimeType)
}

func TestIdentifyPaths_BrokenSignatureDir(t *testing.T) {
	sigDir := t.TempDir()
	writeFile(t, sigDir, "broken.yaml", []byte("mime: application/x-broken\nmagic: [\"ZZ\"]\n"))

	_, err := identifyPaths([]string{t.TempDir()}, identifyOptions{SignatureDirs: []string{sigDir}}, progress.New(false, nil), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestIdentifyResult_Output(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logo.png", pngHeader)
	writeFile(t, dir, "photo.jpg", pngHeader)

	result, err := identifyPaths([]string{dir}, identifyOptions{}, progress.New(false, nil), discardLogger())
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, OutputTo(&buf, result, util.FormatText, "", false))

		output := buf.String()
		assert.Contains(t, output, "logo.png: image/png (Portable Network Graphics)\n")
		assert.Contains(t, output, "[extension .jpg suggests image/jpeg]")
		assert.Contains(t, output, "2 files, 2 identified, 1 mismatched")
		assert.NotContains(t, output, "\x1b[", "no styling when not writing to a terminal")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, OutputTo(&buf, result, util.FormatJSON, "", false))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		files := decoded["files"].([]interface{})
		require.Len(t, files, 2)
		first := files[0].(map[string]interface{})
		assert.Equal(t, "image/png", first["mime"])
		assert.Equal(t, true, first["extension_match"])
		assert.Contains(t, first, "binary")

		meta := decoded["metadata"].(map[string]interface{})
		assert.Equal(t, "0.1", meta["format_version"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, OutputTo(&buf, result, util.FormatYAML, "", false))

		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Contains(t, decoded, "files")
		assert.Contains(t, buf.String(), "extension_mime: image/jpeg")
	})

	t.Run("file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "result.json")
		require.NoError(t, OutputTo(io.Discard, result, util.FormatJSON, target, false))

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "{"))
	})
}

func TestLookupQuery(t *testing.T) {
	m, _, err := buildRegistry(nil, nil, discardLogger())
	require.NoError(t, err)

	tests := []struct {
		name     string
		mime     string
		ext      string
		hex      string
		found    bool
		expected string
	}{
		{"mime case-insensitive", "IMAGE/PNG", "", "", true, "image/png"},
		{"extension with dot", "", ".JPG", "", true, "image/jpeg"},
		{"dot only extension", "", ".", "", false, ""},
		{"exact bytes", "", "", "89 50 4E 47 0D 0A 1A 0A", true, "image/png"},
		{"longer header is not exact", "", "", "89 50 4E 47 0D 0A 1A 0A 00", false, ""},
		{"unknown mime", "application/x-unknown", "", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := lookupQuery(m, tt.mime, tt.ext, tt.hex)
			require.NoError(t, err)
			assert.Equal(t, tt.found, result.Found)
			if tt.found {
				assert.Equal(t, tt.expected, result.Type.MimeType)
			}
		})
	}

	t.Run("invalid hex", func(t *testing.T) {
		_, err := lookupQuery(m, "", "", "GG")
		assert.Error(t, err)
	})
}

func TestLookupResult_Text(t *testing.T) {
	m, _, err := buildRegistry(nil, nil, discardLogger())
	require.NoError(t, err)

	result, err := lookupQuery(m, "", "gif", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	result.ToText(&buf, util.NewStyler(&buf, true))
	assert.Contains(t, buf.String(), "extension gif: image/gif")
	assert.Contains(t, buf.String(), "magic:      47 49 46 38 37 61")

	var miss bytes.Buffer
	(&LookupResult{Query: "mime x/y"}).ToText(&miss, util.NewStyler(&miss, true))
	assert.Equal(t, "mime x/y: no match\n", miss.String())
}

func TestTypesResult_Text(t *testing.T) {
	result := &TypesResult{Types: []TypeInfo{
		{MimeType: "image/png", Category: "image", Extensions: []string{"png"}, Magic: []string{"89 50"}},
		{MimeType: "application/x-acme", Magic: []string{"41"}},
	}}

	var buf bytes.Buffer
	result.ToText(&buf, util.NewStyler(&buf, true))
	output := buf.String()

	assert.Contains(t, output, "image\n")
	assert.Contains(t, output, "uncategorized\n")
	assert.Contains(t, output, ".png")
	assert.Contains(t, output, "Total: 2 file types")
	assert.Less(t, strings.Index(output, "image\n"), strings.Index(output, "uncategorized\n"))
}

func TestLintDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good/acme.yaml", []byte("mime: application/x-acme\nextensions: [acme]\nmagic: [\"41 43 4D 45\"]\n"))
	writeFile(t, dir, "dup/png.yaml", []byte("mime: image/x-other-png\nmagic: [\"89 50 4E 47 0D 0A 1A 0A\"]\n"))
	writeFile(t, dir, "ext/jpeg.yaml", []byte("mime: image/jpeg\nextensions: [jfif]\nmagic: [\"FF D8 FF E0\"]\n"))

	result := lintDirs([]string{dir}, nil)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.Definitions)
	assert.False(t, result.Failed(false))
	assert.True(t, result.Failed(true))

	messages := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		messages = append(messages, w.String())
	}
	joined := strings.Join(messages, "\n")

	assert.Contains(t, joined, "application/x-acme: MIME type is not in the reference database")
	assert.Contains(t, joined, "magic 89 50 4E 47 0D 0A 1A 0A is already registered by image/png")
	assert.Contains(t, joined, "do not include the reference extension \"jpg\"")
}

func TestLintDirs_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad-hex.yaml", []byte("mime: application/x-bad\nmagic: [\"ZZ\"]\n"))
	writeFile(t, dir, "no-magic.yaml", []byte("mime: application/x-none\n"))
	writeFile(t, dir, "_notes.yaml", []byte("not: a definition\n"))

	result := lintDirs([]string{dir}, nil)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Message, "bad-hex.yaml")
	assert.Contains(t, result.Errors[1].Message, "no-magic.yaml")
	assert.True(t, result.Failed(false))

	var buf bytes.Buffer
	result.ToText(&buf, util.NewStyler(&buf, true))
	assert.Contains(t, buf.String(), "0 definitions in 1 directories: 2 errors, 0 warnings")
}

func TestLintDirs_Excludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "drafts/bad.yaml", []byte("mime: application/x-bad\nmagic: [\"ZZ\"]\n"))

	result := lintDirs([]string{dir}, []string{"drafts/**"})
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, result.Definitions)
}

func TestTrimPatterns(t *testing.T) {
	assert.Equal(t, []string{"vendor", "*.log"}, trimPatterns([]string{" vendor ", "", "*.log"}))
}

func TestAggregateResult_Text(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logo.png", pngHeader)
	writeFile(t, dir, "photo.jpg", pngHeader)
	writeFile(t, dir, "main.go", []byte("package main\n"))

	result, err := identifyPaths([]string{dir}, identifyOptions{}, progress.New(false, nil), discardLogger())
	require.NoError(t, err)

	fields, err := aggregator.ParseFields("all")
	require.NoError(t, err)
	output := &AggregateResult{aggregator.NewAggregator(fields).Aggregate(result.Metadata, result.Files, result.Errors)}

	var buf bytes.Buffer
	require.NoError(t, OutputTo(&buf, output, "text", "", true))
	text := buf.String()

	assert.Contains(t, text, "MIME types\n  image/png")
	assert.Contains(t, text, "Languages\n  Go")
	assert.Contains(t, text, "photo.jpg: image/png [extension .jpg suggests image/jpeg]")
	assert.Contains(t, text, "3 files, 2 identified, 1 unmatched, 1 mismatched")

	buf.Reset()
	require.NoError(t, OutputTo(&buf, output, "json", "", true))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(2), decoded["mime_types"].(map[string]interface{})["image/png"])
	assert.Equal(t, float64(1), decoded["unmatched"])
}
