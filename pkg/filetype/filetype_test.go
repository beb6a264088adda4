package filetype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47}

func TestNew(t *testing.T) {
	ft, err := New(" image/png ", []string{"png", "PNG"}, [][]byte{pngSignature},
		WithName("Portable Network Graphics"), WithCategory("image"))
	require.NoError(t, err)

	assert.Equal(t, "image/png", ft.MimeType())
	assert.Equal(t, "Portable Network Graphics", ft.Name())
	assert.Equal(t, "image", ft.Category())
	assert.Equal(t, []string{"png", "PNG"}, ft.Extensions())
	assert.Equal(t, [][]byte{pngSignature}, ft.MagicByteSequences())
	assert.Equal(t, "Portable Network Graphics (image/png)", ft.String())
}

func TestNew_KeepsExtensionsAsGiven(t *testing.T) {
	ft := MustNew("application/gzip", []string{".", ".tar.gz", " tgz "}, [][]byte{{0x1F, 0x8B}})

	assert.Equal(t, []string{".", ".tar.gz", " tgz "}, ft.Extensions())
	assert.True(t, ft.HasExtension(".TAR.GZ"))
	assert.False(t, ft.HasExtension("tar.gz"))
	assert.False(t, ft.HasExtension("tgz"))
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mimeType  string
		sequences [][]byte
		reason    string
	}{
		{"empty mime", "", [][]byte{pngSignature}, "mime type is required"},
		{"blank mime", "  ", [][]byte{pngSignature}, "mime type is required"},
		{"no sequences", "image/png", nil, "at least one magic byte sequence is required"},
		{"empty sequence", "image/png", [][]byte{pngSignature, {}}, "magic byte sequence 1 is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mimeType, nil, tt.sequences)
			require.Error(t, err)

			var invalid *InvalidFileTypeError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew("", nil, nil) })
	assert.NotPanics(t, func() { MustNew("image/png", nil, [][]byte{pngSignature}) })
}

func TestImmutability(t *testing.T) {
	input := []byte{0x89, 0x50, 0x4E, 0x47}
	extensions := []string{"png"}
	ft := MustNew("image/png", extensions, [][]byte{input})

	// Mutating the inputs does not reach the descriptor
	input[0] = 0x00
	extensions[0] = "gif"
	assert.True(t, ft.HasMagicByteSequence(pngSignature))
	assert.True(t, ft.HasExtension("png"))

	// Mutating the returned copies does not either
	seqs := ft.MagicByteSequences()
	seqs[0][0] = 0x00
	exts := ft.Extensions()
	exts[0] = "gif"
	assert.Equal(t, [][]byte{pngSignature}, ft.MagicByteSequences())
	assert.Equal(t, []string{"png"}, ft.Extensions())
}

func TestHasExtension(t *testing.T) {
	ft := MustNew("image/jpeg", []string{"jpg", "jpeg"}, [][]byte{{0xFF, 0xD8, 0xFF}})

	assert.True(t, ft.HasExtension("jpg"))
	assert.True(t, ft.HasExtension("JPG"))
	assert.True(t, ft.HasExtension("Jpeg"))
	assert.False(t, ft.HasExtension(".jpeg"))
	assert.False(t, ft.HasExtension(" jpg "))
	assert.False(t, ft.HasExtension("png"))
	assert.False(t, ft.HasExtension(""))
	assert.False(t, ft.HasExtension("."))
}

func TestHasMagicByteSequence_ExactLength(t *testing.T) {
	ft := MustNew("image/png", []string{"png"}, [][]byte{pngSignature})

	assert.True(t, ft.HasMagicByteSequence([]byte{0x89, 0x50, 0x4E, 0x47}))
	assert.False(t, ft.HasMagicByteSequence([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D}), "longer candidate")
	assert.False(t, ft.HasMagicByteSequence([]byte{0x89, 0x50, 0x4E}), "shorter candidate")
	assert.False(t, ft.HasMagicByteSequence(nil))
}

func TestMatchLength(t *testing.T) {
	ft := MustNew("audio/mpeg", nil, [][]byte{{0xFF, 0xFB}, []byte("ID3")})

	assert.Equal(t, 3, ft.MatchLength([]byte("ID3\x04\x00")))
	assert.Equal(t, 2, ft.MatchLength([]byte{0xFF, 0xFB, 0x90}))
	assert.Equal(t, 0, ft.MatchLength([]byte{0xFF}))
	assert.Equal(t, 0, ft.MatchLength(nil))
	assert.Equal(t, 3, ft.MaxSequenceLength())
}

func TestMatchLength_PrefersLongest(t *testing.T) {
	ft := MustNew("application/x-test", nil, [][]byte{{0x01}, {0x01, 0x02, 0x03}})

	assert.Equal(t, 3, ft.MatchLength([]byte{0x01, 0x02, 0x03, 0x04}))
	assert.Equal(t, 1, ft.MatchLength([]byte{0x01, 0x09}))
}

func TestNormalizeExtension(t *testing.T) {
	assert.Equal(t, "png", NormalizeExtension(".png"))
	assert.Equal(t, "tar.gz", NormalizeExtension(" .tar.gz "))
	assert.Equal(t, ".hidden", NormalizeExtension("..hidden"))
	assert.Equal(t, "", NormalizeExtension("."))
	assert.Equal(t, "JPG", NormalizeExtension(".JPG"))
}

func TestArgumentEmptyError(t *testing.T) {
	err := NewArgumentEmptyError("mimeType")

	assert.True(t, errors.Is(err, ErrArgumentEmpty))
	assert.Equal(t, `argument "mimeType" must not be empty`, err.Error())

	var argErr *ArgumentEmptyError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "mimeType", argErr.Argument)
}
