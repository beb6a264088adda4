// Package filetype defines the immutable file type descriptor used by the
// mapping registry, together with the errors returned by lookups.
//
// A descriptor pairs one MIME type with its filename extensions and one or
// more magic byte sequences:
//
//	png := filetype.MustNew("image/png", []string{"png"},
//		[][]byte{{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
//		filetype.WithName("Portable Network Graphics"))
//
// Descriptors cannot be modified after construction. Extensions and
// MagicByteSequences return copies, so values handed out by a registry are
// safe to share.
package filetype
