package rulebook

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

//go:embed default.yaml
var defaultRulebook []byte

// file mirrors the on-disk YAML layout.
type file struct {
	Version         string                      `yaml:"version"`
	Rules           []domain.ClassificationRule `yaml:"rules"`
	Brands          []string                    `yaml:"brands"`
	BrandTokenBound int                         `yaml:"brand_token_bounded_below"`
	Fallbacks       map[string]string           `yaml:"fallbacks"`
	UniversalImage  string                      `yaml:"universal_image"`
	ImagePrecedence []domain.ImageField         `yaml:"image_precedence"`
}

// LoadDefault returns the rulebook compiled into the binary.
func LoadDefault() (domain.Rulebook, error) {
	return Parse(defaultRulebook)
}

// Load reads a rulebook from path. An empty path selects the embedded default.
func Load(path string) (domain.Rulebook, error) {
	if strings.TrimSpace(path) == "" {
		return LoadDefault()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Rulebook{}, fmt.Errorf("read rulebook %s: %w", path, err)
	}

	book, err := Parse(data)
	if err != nil {
		return domain.Rulebook{}, fmt.Errorf("%s: %w", path, err)
	}
	return book, nil
}

// Parse decodes and validates a YAML rulebook. Unknown keys are rejected so a
// misspelled field fails loudly instead of silently disabling a rule.
func Parse(data []byte) (domain.Rulebook, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Rulebook{}, fmt.Errorf("%w: empty document", domain.ErrInvalidRulebook)
		}
		return domain.Rulebook{}, fmt.Errorf("%w: %v", domain.ErrInvalidRulebook, err)
	}

	if err := f.validate(); err != nil {
		return domain.Rulebook{}, fmt.Errorf("%w: %v", domain.ErrInvalidRulebook, err)
	}

	return domain.Rulebook{
		Version:                strings.TrimSpace(f.Version),
		Rules:                  f.Rules,
		Brands:                 f.Brands,
		BrandTokenBoundedBelow: f.BrandTokenBound,
		Fallbacks:              f.Fallbacks,
		UniversalImage:         strings.TrimSpace(f.UniversalImage),
		ImagePrecedence:        f.ImagePrecedence,
	}, nil
}

func (f *file) validate() error {
	if strings.TrimSpace(f.Version) == "" {
		return fmt.Errorf("version is required")
	}

	categoryRules := 0
	for i, rule := range f.Rules {
		label := rule.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		switch rule.Axis {
		case "", domain.AxisCategory:
			categoryRules++
		case domain.AxisBrand:
		default:
			return fmt.Errorf("rule %s: unknown axis %q", label, rule.Axis)
		}
		if strings.TrimSpace(rule.Target) == "" {
			return fmt.Errorf("rule %s: target is required", label)
		}
		if len(rule.Include) == 0 {
			return fmt.Errorf("rule %s: include is required", label)
		}
	}
	if categoryRules == 0 {
		return fmt.Errorf("at least one category rule is required")
	}

	for i, brand := range f.Brands {
		if strings.TrimSpace(brand) == "" {
			return fmt.Errorf("brand #%d is empty", i)
		}
	}

	if f.BrandTokenBound < 0 {
		return fmt.Errorf("brand_token_bounded_below must not be negative, got: %d", f.BrandTokenBound)
	}

	for category, image := range f.Fallbacks {
		if strings.TrimSpace(image) == "" {
			return fmt.Errorf("fallback for %q has no image", category)
		}
	}

	for _, field := range f.ImagePrecedence {
		switch field {
		case domain.FieldPrimary, domain.FieldAliasA, domain.FieldAliasB:
		default:
			return fmt.Errorf("unknown image field %q in image_precedence", field)
		}
	}

	return nil
}
