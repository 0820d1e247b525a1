package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/manor-engine/data"
	"gopkg.in/yaml.v3"
)

// Format is a content file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultCatalog is the embedded catalog used when no content path is configured.
const DefaultCatalog = "manor.yaml"

// FormatFor picks the decoder from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported catalog file extension: %s", filepath.Base(path))
	}
}

// Parse strictly decodes catalog content. Unknown fields are rejected so that
// typos in content fail at load time instead of silently disabling a gate.
func Parse(content []byte, format Format) (*Catalog, error) {
	var spec fileSpec

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("catalog is empty")
			}
			return nil, fmt.Errorf("failed to decode yaml catalog: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("failed to decode json catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	c, err := spec.build()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(content, format)
}

// LoadEmbedded reads one of the catalogs shipped in the binary.
func LoadEmbedded(name string) (*Catalog, error) {
	format, err := FormatFor(name)
	if err != nil {
		return nil, err
	}

	content, err := data.Catalogs.ReadFile("catalogs/" + name)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog not found: %s", name)
	}

	return Parse(content, format)
}

// ListEmbedded returns the names of the catalogs shipped in the binary.
func ListEmbedded() ([]string, error) {
	entries, err := data.Catalogs.ReadDir("catalogs")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalogs: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := FormatFor(entry.Name()); err == nil {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Load resolves a catalog from a path, or the default embedded catalog when
// path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return LoadEmbedded(DefaultCatalog)
	}
	return LoadFile(path)
}
