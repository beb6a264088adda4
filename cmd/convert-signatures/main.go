package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/petrarca/magicbytes/internal/validation"
	"github.com/petrarca/magicbytes/pkg/signatures"
	"gopkg.in/yaml.v3"
)

// Row is one line of a signature table: hex, extensions, mime, description
type Row struct {
	Magic       string
	Extensions  []string
	MimeType    string
	Description string
}

// Converter turns a delimited signature table into definition files
type Converter struct {
	targetDir   string
	comma       rune
	categoryMap map[string]string
	stats       map[string]int
}

// NewConverter creates a new converter instance
func NewConverter(targetDir string, comma rune) *Converter {
	return &Converter{
		targetDir:   targetDir,
		comma:       comma,
		categoryMap: getCategoryMapping(),
		stats:       make(map[string]int),
	}
}

// getCategoryMapping maps application/* subtypes to definition folders.
// Other top-level types (image, audio, video, font) map to themselves.
func getCategoryMapping() map[string]string {
	return map[string]string{
		"zip":                               "archive",
		"gzip":                              "archive",
		"x-7z-compressed":                   "archive",
		"x-bzip2":                           "archive",
		"x-rar-compressed":                  "archive",
		"vnd.rar":                           "archive",
		"x-tar":                             "archive",
		"x-xz":                              "archive",
		"zstd":                              "archive",
		"pdf":                               "document",
		"postscript":                        "document",
		"rtf":                               "document",
		"msword":                            "document",
		"x-ole-storage":                     "document",
		"vnd.sqlite3":                       "database",
		"x-sqlite3":                         "database",
		"x-executable":                      "executable",
		"x-elf":                             "executable",
		"x-mach-binary":                     "executable",
		"vnd.microsoft.portable-executable": "executable",
		"x-msdownload":                      "executable",
		"wasm":                              "executable",
		"font-woff":                         "font",
		"x-font-ttf":                        "font",
		"ogg":                               "audio",
		"x-shockwave-flash":                 "video",
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ReadRows parses the table. Lines starting with # and blank lines are skipped.
func (c *Converter) ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.comma
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []Row
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table: %w", err)
		}
		line++

		if len(record) < 3 {
			return nil, fmt.Errorf("record %d: expected at least 3 fields (magic, extensions, mime), got %d", line, len(record))
		}

		row := Row{
			Magic:      strings.TrimSpace(record[0]),
			Extensions: splitExtensions(record[1]),
			MimeType:   strings.ToLower(strings.TrimSpace(record[2])),
		}
		if len(record) > 3 {
			row.Description = strings.TrimSpace(record[3])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func splitExtensions(field string) []string {
	fields := strings.FieldsFunc(field, func(r rune) bool {
		return r == ',' || r == ' ' || r == '|'
	})
	result := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimPrefix(strings.ToLower(f), "."); f != "" {
			result = append(result, f)
		}
	}
	return result
}

// Merge groups rows by MIME type, keeping first-seen order for types,
// signatures and extensions
func (c *Converter) Merge(rows []Row) ([]signatures.Definition, error) {
	index := make(map[string]int)
	var defs []signatures.Definition

	for _, row := range rows {
		seq, err := signatures.ParseHex(row.Magic)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", row.MimeType, err)
		}
		magic := signatures.FormatHex(seq)

		i, ok := index[row.MimeType]
		if !ok {
			index[row.MimeType] = len(defs)
			defs = append(defs, signatures.Definition{
				MimeType:    row.MimeType,
				Description: row.Description,
				Category:    c.categoryFor(row.MimeType),
			})
			i = len(defs) - 1
		}

		def := &defs[i]
		def.Magic = appendUnique(def.Magic, magic)
		for _, ext := range row.Extensions {
			def.Extensions = appendUnique(def.Extensions, ext)
		}
	}
	return defs, nil
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

func (c *Converter) categoryFor(mimeType string) string {
	top, sub, ok := strings.Cut(mimeType, "/")
	if !ok {
		return "misc"
	}
	switch top {
	case "image", "audio", "video", "font":
		return top
	}
	if category, ok := c.categoryMap[sub]; ok {
		return category
	}
	return "misc"
}

// fileName picks the definition file name: first extension, else the MIME subtype
func fileName(def signatures.Definition) string {
	name := ""
	if len(def.Extensions) > 0 {
		name = def.Extensions[0]
	} else if _, sub, ok := strings.Cut(def.MimeType, "/"); ok {
		name = strings.TrimPrefix(strings.TrimPrefix(sub, "x-"), "vnd.")
	}
	name = strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if name == "" {
		name = "unnamed"
	}
	return name + ".yaml"
}

// Write validates and writes each definition below targetDir/<category>/
func (c *Converter) Write(defs []signatures.Definition, dryRun bool) (int, int) {
	written, failed := 0, 0

	for _, def := range defs {
		category := def.Category
		// Folder carries the category
		def.Category = ""

		if err := validation.ValidateStruct(signatures.DefinitionSchema, def); err != nil {
			log.Printf("✗ %s: %v", def.MimeType, err)
			failed++
			continue
		}

		target := filepath.Join(c.targetDir, category, fileName(def))
		if !dryRun {
			if err := writeDefinition(target, def); err != nil {
				log.Printf("✗ %s: %v", def.MimeType, err)
				failed++
				continue
			}
		}

		c.stats[category]++
		written++
		log.Printf("✓ %s -> %s", def.MimeType, target)
	}
	return written, failed
}

func writeDefinition(target string, def signatures.Definition) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return err
	}
	return os.WriteFile(target, data, 0644)
}

// PrintStats logs the number of definitions per category
func (c *Converter) PrintStats() {
	categories := make([]string, 0, len(c.stats))
	for category := range c.stats {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		log.Printf("  %-12s %d", category, c.stats[category])
	}
}

func main() {
	input := flag.String("input", "", "Signature table (CSV or TSV); - for stdin")
	target := flag.String("target", "signatures", "Target definition directory")
	tsv := flag.Bool("tsv", false, "Input is tab separated")
	dryRun := flag.Bool("dry-run", false, "Validate without writing files")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: convert-signatures -input table.csv [-target dir] [-tsv] [-dry-run]")
		os.Exit(2)
	}

	var r io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("Failed to open input: %v", err)
		}
		defer f.Close()
		r = f
	}

	comma := ','
	if *tsv {
		comma = '\t'
	}
	converter := NewConverter(*target, comma)

	rows, err := converter.ReadRows(r)
	if err != nil {
		log.Fatalf("%v", err)
	}

	defs, err := converter.Merge(rows)
	if err != nil {
		log.Fatalf("%v", err)
	}

	written, failed := converter.Write(defs, *dryRun)
	log.Printf("Conversion complete: %d rows, %d definitions, %d errors, target: %s", len(rows), written, failed, *target)
	converter.PrintStats()

	if failed > 0 {
		os.Exit(1)
	}
}
