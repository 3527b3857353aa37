package textbookrsa

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// KeyFile is the on-disk form of a key pair. D is nil for public-only files.
type KeyFile struct {
	N *big.Int
	E *big.Int
	D *big.Int
}

// Public returns the public key held by the file.
func (kf *KeyFile) Public() *PublicKey {
	return &PublicKey{N: kf.N, E: kf.E}
}

// Private returns the private key held by the file.
func (kf *KeyFile) Private() (*PrivateKey, error) {
	if kf.D == nil {
		return nil, ErrNoPrivateExponent
	}
	return &PrivateKey{N: kf.N, D: kf.D}, nil
}

// KeyFileParser defines the interface for loading keys from various sources.
type KeyFileParser interface {
	// ParseKey parses a key from a source and returns it.
	ParseKey(source string) (*KeyFile, error)
}

// JSONKeyParser parses keys from JSON files.
type JSONKeyParser struct {
	NField string // Field name for the modulus (default: "n")
	EField string // Field name for the public exponent (default: "e")
	DField string // Field name for the private exponent (default: "d")
}

// ParseKey parses a key from a JSON file.
//
// Expected format:
//
//	{"n": "3233", "e": 7, "d": "0x6f7"}
func (p *JSONKeyParser) ParseKey(jsonFile string) (*KeyFile, error) {
	file, err := os.Open(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read key file")
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.UseNumber() // Preserve large numbers as json.Number instead of float64

	var item map[string]interface{}
	if err := decoder.Decode(&item); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON")
	}

	return keyFileFromMap(item, p.NField, p.EField, p.DField)
}

// YAMLKeyParser parses keys from YAML files.
type YAMLKeyParser struct {
	NField string // Field name for the modulus (default: "n")
	EField string // Field name for the public exponent (default: "e")
	DField string // Field name for the private exponent (default: "d")
}

// ParseKey parses a key from a YAML file. Integers wider than 64 bits must
// be quoted, since YAML decodes them as floats.
//
// Expected format:
//
//	n: "3233"
//	e: 7
//	d: "0x6f7"
func (p *YAMLKeyParser) ParseKey(yamlFile string) (*KeyFile, error) {
	data, err := os.ReadFile(yamlFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read key file")
	}

	var item map[string]interface{}
	if err := yaml.Unmarshal(data, &item); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}
	for k, v := range item {
		if _, ok := v.(float64); ok {
			return nil, errors.Errorf("field %s is not an integer (quote values wider than 64 bits)", k)
		}
	}

	return keyFileFromMap(item, p.NField, p.EField, p.DField)
}

// ParserForPath picks a parser from the file extension: .yaml and .yml use
// YAMLKeyParser, everything else JSONKeyParser.
func ParserForPath(path string) KeyFileParser {
	if isYAML(path) {
		return &YAMLKeyParser{}
	}
	return &JSONKeyParser{}
}

func keyFileFromMap(item map[string]interface{}, nField, eField, dField string) (*KeyFile, error) {
	nField = orDefault(nField, "n")
	eField = orDefault(eField, "e")
	dField = orDefault(dField, "d")

	kf := &KeyFile{}
	var err error

	nVal, ok := item[nField]
	if !ok {
		return nil, errors.Errorf("missing %s field", nField)
	}
	if kf.N, err = ParseBigInt(nVal); err != nil {
		return nil, errors.WithMessagef(err, "failed to parse %s", nField)
	}
	if kf.N.Sign() <= 0 {
		return nil, errors.Errorf("modulus must be positive, got %s", kf.N)
	}

	eVal, ok := item[eField]
	if !ok {
		return nil, errors.Errorf("missing %s field", eField)
	}
	if kf.E, err = ParseBigInt(eVal); err != nil {
		return nil, errors.WithMessagef(err, "failed to parse %s", eField)
	}
	if err := ValidateExponent(kf.E); err != nil {
		return nil, errors.WithMessage(err, eField)
	}

	if dVal, ok := item[dField]; ok && dVal != nil {
		if kf.D, err = ParseBigInt(dVal); err != nil {
			return nil, errors.WithMessagef(err, "failed to parse %s", dField)
		}
		if err := ValidatePrivateExponent(kf.D); err != nil {
			return nil, errors.WithMessage(err, dField)
		}
	}

	return kf, nil
}

// WriteKeyFile stores pub and, when non-nil, priv with decimal strings. The
// format follows the extension as in ParserForPath. The factorization is
// never written.
func WriteKeyFile(path string, pub *PublicKey, priv *PrivateKey) error {
	doc := map[string]string{
		"n": pub.N.String(),
		"e": pub.E.String(),
	}
	if priv != nil {
		doc["d"] = priv.D.String()
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.Wrap(err, "failed to encode key file")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write key file")
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ParseBigInt parses a big integer from various formats: decimal strings,
// hex strings (0x-prefixed or containing hex letters), json.Number and Go
// integer or float values.
func ParseBigInt(val interface{}) (*big.Int, error) {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")

		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			base = 16
		} else if strings.ContainsAny(s, "abcdefABCDEF") {
			base = 16
		}

		z, ok := new(big.Int).SetString(s, base)
		if !ok || s == "" {
			return nil, errors.Errorf("invalid number format: %s", v)
		}
		if neg {
			z.Neg(z)
		}
		return z, nil

	case json.Number:
		z, ok := new(big.Int).SetString(string(v), 10)
		if !ok {
			return nil, errors.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case float64:
		z, ok := new(big.Int).SetString(fmt.Sprintf("%.0f", v), 10)
		if !ok {
			return nil, errors.Errorf("invalid number format: %v", v)
		}
		return z, nil

	case int64:
		return big.NewInt(v), nil

	case int:
		return big.NewInt(int64(v)), nil

	case uint64:
		return new(big.Int).SetUint64(v), nil

	default:
		return nil, errors.Errorf("unsupported type: %T", val)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
