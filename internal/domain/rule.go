package domain

// Axis is an independent classification dimension.
type Axis string

const (
	AxisCategory Axis = "category"
	AxisBrand    Axis = "brand"
)

// ClassificationRule assigns Target when any Include pattern matches and no
// Exclude pattern does. Patterns prefixed with "re:" are regular expressions
// evaluated against the normalized name; everything else is a keyword.
type ClassificationRule struct {
	ID       string   `json:"id" yaml:"id"`
	Axis     Axis     `json:"axis" yaml:"axis"`
	Target   string   `json:"target" yaml:"target"`
	Include  []string `json:"include" yaml:"include"`
	Exclude  []string `json:"exclude,omitempty" yaml:"exclude"`
	Priority int      `json:"priority" yaml:"priority"`
}

// MatchSource records why a classification was chosen.
type MatchSource string

const (
	SourceRule    MatchSource = "rule"
	SourceHint    MatchSource = "hint"
	SourceDefault MatchSource = "default"
)

// Rulebook is the static, versioned configuration the engine runs against.
type Rulebook struct {
	Version string
	Rules   []ClassificationRule
	Brands  []string
	// Brands shorter than this many runes match only as whole tokens; 0 disables.
	BrandTokenBoundedBelow int
	Fallbacks              map[string]string
	UniversalImage         string
	ImagePrecedence        []ImageField
}
