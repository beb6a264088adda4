// Package signatures provides the sources of file type descriptors: the
// built-in table compiled into the binary and external definition trees.
//
// Definitions are YAML files, one per file type, grouped into folders by
// category:
//
//	formats/
//	  image/png.yaml
//	  archive/zip.yaml
//
// A definition looks like:
//
//	mime: image/png
//	name: Portable Network Graphics
//	extensions: [png]
//	magic:
//	  - "89 50 4E 47 0D 0A 1A 0A"
//
// Files are loaded in lexical path order, which is also the order in which a
// mapping checks them. Every provider satisfies mapping.Collector.
package signatures
