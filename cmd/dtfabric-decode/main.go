// Command dtfabric-decode reads a dtFabric YAML schema and decodes one
// binary input file against a named top-level definition from it. It is a
// thin demonstration of the definitions/registry/schema/dtmap packages, not
// a core package itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dtfabric/definitions"
	"dtfabric/dtmap"
	"dtfabric/internal/diagnostic"
	"dtfabric/mapctx"
	"dtfabric/schema"
)

func main() {
	schemaPath := flag.String("schema", "", "path to a dtFabric YAML schema file")
	defName := flag.String("definition", "", "name of the top-level definition to decode")
	inputPath := flag.String("input", "", "path to the binary file to decode")
	offset := flag.Int("offset", 0, "byte offset within the input to start decoding at")
	variant := flag.String("variant", "", "structure-family variant name, required only when -definition names a structure-family")
	verbose := flag.Bool("verbose", false, "log each resolved definition during schema load")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if err := run(logger, *schemaPath, *defName, *inputPath, *variant, *offset); err != nil {
		logger.Error().Err(err).Msg("decode failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, schemaPath, defName, inputPath, variant string, offset int) error {
	if schemaPath == "" || defName == "" || inputPath == "" {
		flag.Usage()
		return fmt.Errorf("dtfabric-decode: -schema, -definition and -input are required")
	}

	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	docs := splitYAMLDocuments(string(schemaBytes))
	logger.Debug().Int("documents", len(docs)).Str("schema", schemaPath).Msg("parsed schema file")

	reg, err := schema.Read(docs)
	if err != nil {
		diags := diagnostic.FromError(err)
		for _, d := range diags.Errors {
			logger.Error().Msg(d.String())
		}

		return fmt.Errorf("schema %q has %d error(s)", schemaPath, len(diags.Errors))
	}

	def, ok := reg.Lookup(defName)
	if !ok {
		return fmt.Errorf("schema %q defines no %q", schemaPath, defName)
	}

	logger.Debug().Str("definition", def.Name()).Str("kind", def.Kind().String()).Msg("resolved top-level definition")

	factory := dtmap.NewFactory()

	var m dtmap.Map

	if family, isFamily := def.(*definitions.StructureFamily); isFamily {
		if variant == "" {
			return fmt.Errorf("%q is a structure-family; pass -variant to select one of %v", defName, family.Members)
		}

		m, err = factory.BuildFamilyVariant(family, variant)
	} else {
		m, err = factory.Build(def)
	}

	if err != nil {
		return fmt.Errorf("building runtime map for %q: %w", defName, err)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	ctx := mapctx.New(def.Name())

	value, consumed, err := m.MapByteStream(data, offset, ctx)
	if err != nil {
		return fmt.Errorf("decoding %q: %w", defName, err)
	}

	logger.Info().Int("consumed", consumed).Int("input_size", len(data)).Msg("decoded")

	fmt.Printf("%+v\n", value)

	return nil
}

// splitYAMLDocuments splits a multi-document YAML stream on "---"
// separator lines into the per-document bodies schema.Read expects.
func splitYAMLDocuments(content string) []string {
	lines := strings.Split(content, "\n")

	var docs []string

	var current []string

	flush := func() {
		if doc := strings.TrimSpace(strings.Join(current, "\n")); doc != "" {
			docs = append(docs, doc)
		}

		current = current[:0]
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}

		current = append(current, line)
	}

	flush()

	return docs
}
