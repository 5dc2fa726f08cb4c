package catalog

import (
	"bytes"
	_ "embed"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/exploopio/opsboard/pkg/errors"
)

//go:embed seed.yaml
var embeddedSeed []byte

// Default builds the catalog from the seed compiled into the binary.
func Default() (*Catalog, error) {
	cat, err := Load(bytes.NewReader(embeddedSeed))
	if err != nil {
		return nil, errors.Wrap(err, "catalog.Default")
	}
	return cat, nil
}

// LoadFile builds a catalog from a YAML seed file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(errors.KindConfig, "catalog.LoadFile", "open seed file", err)
	}
	defer f.Close()

	cat, err := Load(f)
	if err != nil {
		return nil, errors.Wrap(err, "catalog.LoadFile "+path)
	}
	return cat, nil
}

// Load decodes a YAML seed and builds a validated catalog from it.
// Unknown fields are rejected so that typos in a hand-edited seed surface
// instead of silently dropping data.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, errors.E(errors.KindInvalidInput, "catalog.Load", "decode seed", err)
	}
	return New(seed)
}
