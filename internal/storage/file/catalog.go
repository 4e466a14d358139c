package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"puntos/internal/core"
)

// LoadCatalogFile reads a name→points catalog. The format follows the file
// extension: .json (the original {"Run 5k": 10} layout), .toml, .yaml/.yml.
// Every failure is a configuration error.
func LoadCatalogFile(path string) (core.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: catalog file %s does not exist", core.ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: read catalog %s: %v", core.ErrConfiguration, path, err)
	}
	cat, err := ParseCatalog(filepath.Ext(path), raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog decodes raw catalog bytes in the format named by ext.
func ParseCatalog(ext string, raw []byte) (core.Catalog, error) {
	cat := core.Catalog{}
	var err error
	switch strings.ToLower(ext) {
	case ".json", "":
		err = decodeJSONCatalog(raw, cat)
	case ".toml":
		_, err = toml.Decode(string(raw), &cat)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cat)
	default:
		return nil, fmt.Errorf("%w: unsupported catalog format %q", core.ErrConfiguration, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: malformed catalog: %v", core.ErrConfiguration, err)
	}
	if len(cat) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", core.ErrConfiguration)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// decodeJSONCatalog reads a single JSON object of name→points into cat.
// A name listed twice is an error.
func decodeJSONCatalog(raw []byte, cat core.Catalog) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("catalog must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		if _, dup := cat[name]; dup {
			return fmt.Errorf("name %q is listed more than once", name)
		}
		var points int64
		if err := dec.Decode(&points); err != nil {
			return fmt.Errorf("points for %q: %w", name, err)
		}
		cat[name] = points
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the catalog object")
	}
	return nil
}
