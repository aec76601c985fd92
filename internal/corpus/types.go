// Package corpus implements the read-only Retrieval Corpus (C1): philosophy,
// structure, and template documents with metadata and embedding vectors,
// served from a lazily-loaded process-wide cache (spec.md §3, §4.4, §5).
package corpus

// DocType distinguishes the three document kinds the corpus holds.
type DocType string

const (
	DocPhilosophy DocType = "philosophy"
	DocStructure  DocType = "structure"
	DocTemplate   DocType = "template"
)

// Metadata is the front-matter shared by every corpus document (spec.md §6
// "Corpus document format").
type Metadata struct {
	ID           string   `yaml:"id"`
	Domain       string   `yaml:"domain"`
	RaceTypes    []string `yaml:"race_types"`
	Audience     string   `yaml:"audience"`
	Phase        string   `yaml:"phase"`
	Priority     int      `yaml:"priority"`
	Version      string   `yaml:"version"`
	LastReviewed string   `yaml:"last_reviewed"`

	// Philosophy-specific gating fields. Zero-valued for structure/template docs.
	Requires  []string `yaml:"requires"`
	Prohibits []string `yaml:"prohibits"`

	// DaysToRaceMin/Max scope a structure to a window of days-to-race; zero
	// for philosophy/template docs.
	DaysToRaceMin int `yaml:"days_to_race_min"`
	DaysToRaceMax int `yaml:"days_to_race_max"`

	// TaperDaysToRaceLE marks a structure as the preferred taper structure
	// once days-to-race falls at or below this value (spec.md §4.4 B3). Zero
	// means "not a taper structure".
	TaperDaysToRaceLE int `yaml:"taper_days_to_race_le"`
}

// Philosophy carries intensity-distribution and gating metadata (spec.md §3).
type Philosophy struct {
	Metadata
	IntensityDistribution map[string]float64 `yaml:"intensity_distribution"`
	MaxHardDays           int                `yaml:"max_hard_days"`
	Embedding             []float64          `yaml:"-"`
}

// WeekPatternEntry maps one weekday to a session type, optionally tagging it
// as a member of a "hard" session group (spec.md §3, §9 Open Question #2).
type WeekPatternEntry struct {
	Weekday     string `yaml:"weekday"`
	SessionType string `yaml:"session_type"`
	HardGroup   bool   `yaml:"hard_group"`
}

// StructureRules is the `rules` block of a structure_spec document.
type StructureRules struct {
	HardDaysMax           int  `yaml:"hard_days_max"`
	NoConsecutiveHardDays bool `yaml:"no_consecutive_hard_days"`
	LongRunRequiredCount  int  `yaml:"long_run_required_count"`
}

// Structure is a 7-day week pattern + rules for one philosophy/phase/race
// type/days-to-race window (spec.md §3).
type Structure struct {
	Metadata
	WeekPattern   []WeekPatternEntry `yaml:"week_pattern"`
	Rules         StructureRules     `yaml:"rules"`
	SessionGroups map[string][]string `yaml:"session_groups"`
}

// TemplateParam is one bounded parameter of a session template, e.g.
// `easy_mi_range: [3, 10]`.
type TemplateParam struct {
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Template is a parameter-bounded session description (spec.md §3).
type Template struct {
	Metadata
	SessionType string          `yaml:"session_type"`
	Params      []TemplateParam `yaml:"params"`
	Constraints map[string]string `yaml:"constraints"`
}

// Document is the parsed, decoded form of one corpus file: exactly one of
// Philosophy, Structure, Template is non-nil, selected by Type.
type Document struct {
	Type       DocType
	Philosophy *Philosophy
	Structure  *Structure
	Template   *Template
}

// ID returns the document's front-matter id regardless of its concrete type.
func (d Document) ID() string {
	switch d.Type {
	case DocPhilosophy:
		return d.Philosophy.ID
	case DocStructure:
		return d.Structure.ID
	case DocTemplate:
		return d.Template.ID
	default:
		return ""
	}
}
