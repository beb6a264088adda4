package main

import (
	"fmt"
	"time"

	"github.com/petrarca/magicbytes/internal/validation"
	"github.com/petrarca/magicbytes/pkg/mapping"
	"github.com/petrarca/magicbytes/pkg/signatures"
)

func main() {
	start := time.Now()

	t1 := time.Now()
	defs, err := signatures.BuiltinDefinitions()
	if err != nil {
		panic(err)
	}
	fmt.Printf("BuiltinDefinitions: %v (%d definitions)\n", time.Since(t1), len(defs))

	t2 := time.Now()
	for i := range defs {
		if err := validation.ValidateStruct(signatures.DefinitionSchema, defs[i]); err != nil {
			panic(fmt.Errorf("%s: %w", defs[i].MimeType, err))
		}
	}
	fmt.Printf("ValidateDefinitions: %v\n", time.Since(t2))

	t3 := time.Now()
	m, err := mapping.NewDefault()
	if err != nil {
		panic(err)
	}
	fmt.Printf("NewDefault (first): %v (%d types)\n", time.Since(t3), m.Len())

	t4 := time.Now()
	if _, err := mapping.NewDefault(); err != nil {
		panic(err)
	}
	fmt.Printf("NewDefault (cached): %v\n", time.Since(t4))

	t5 := time.Now()
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	const rounds = 100000
	for i := 0; i < rounds; i++ {
		if _, err := m.Detect(header); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Detect x%d: %v\n", rounds, time.Since(t5))

	fmt.Printf("\nTotal init: %v\n", time.Since(start))
}
