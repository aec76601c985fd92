package corpus

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError is a tagged, fail-fast parse failure, grounded on
// original_source/app/planning/structure/spec_parser.py's StructureParseError:
// every malformed document names a stable code, never a free-form message
// alone, so callers can branch on failure kind.
type ParseError struct {
	Code    string
	Message string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func newParseError(code, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var frontmatterPattern = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n(.*)$`)

var fencedBlockPattern = regexp.MustCompile("(?s)```(structure_spec|template_spec|template_sets)\\s*\\n(.*?)\\n```")

var requiredMetadataFields = []string{
	"id", "domain", "race_types", "audience", "phase", "priority",
}

// Parse splits raw into front matter and body, decodes the front matter into
// Metadata, and dispatches to the type-specific body parser. docType tells
// the parser which fenced block (if any) to expect; philosophy documents
// carry no fenced block, only front matter plus prose.
func Parse(docType DocType, raw string) (Document, error) {
	m := frontmatterPattern.FindStringSubmatch(raw)
	if m == nil {
		return Document{}, newParseError("MISSING_FRONTMATTER", "document has no --- delimited front matter block")
	}
	frontmatter, body := m[1], m[2]

	var meta Metadata
	if err := yaml.Unmarshal([]byte(frontmatter), &meta); err != nil {
		return Document{}, newParseError("INVALID_FRONTMATTER", "front matter is not valid YAML: %v", err)
	}
	if err := validateRequiredFields(meta); err != nil {
		return Document{}, err
	}

	switch docType {
	case DocPhilosophy:
		return parsePhilosophy(meta, frontmatter, body)
	case DocStructure:
		return parseStructure(meta, body)
	case DocTemplate:
		return parseTemplate(meta, body)
	default:
		return Document{}, newParseError("UNKNOWN_DOC_TYPE", "unrecognized document type %q", docType)
	}
}

func validateRequiredFields(meta Metadata) error {
	if meta.ID == "" {
		return missingField("id")
	}
	if meta.Domain == "" {
		return missingField("domain")
	}
	if len(meta.RaceTypes) == 0 {
		return missingField("race_types")
	}
	if meta.Audience == "" {
		return missingField("audience")
	}
	if meta.Phase == "" {
		return missingField("phase")
	}
	if meta.Priority == 0 {
		return missingField("priority")
	}
	return nil
}

func missingField(name string) error {
	return newParseError("MISSING_REQUIRED_FIELD", "required front matter field %q is absent", name)
}

func parsePhilosophy(meta Metadata, frontmatter, _ string) (Document, error) {
	var extra struct {
		IntensityDistribution map[string]float64 `yaml:"intensity_distribution"`
		MaxHardDays           int                `yaml:"max_hard_days"`
	}
	if err := yaml.Unmarshal([]byte(frontmatter), &extra); err != nil {
		return Document{}, newParseError("INVALID_FRONTMATTER", "philosophy front matter malformed: %v", err)
	}
	return Document{
		Type: DocPhilosophy,
		Philosophy: &Philosophy{
			Metadata:               meta,
			IntensityDistribution:  extra.IntensityDistribution,
			MaxHardDays:            extra.MaxHardDays,
		},
	}, nil
}

// extractFencedBlock finds exactly one fenced block of the given kind,
// grounded on spec_parser.py's _extract_structure_spec_block: zero matches
// and more than one match are both fatal, never silently resolved by taking
// the first.
func extractFencedBlock(body, kind string) (string, error) {
	var found []string
	for _, m := range fencedBlockPattern.FindAllStringSubmatch(body, -1) {
		if m[1] == kind {
			found = append(found, m[2])
		}
	}
	switch len(found) {
	case 0:
		return "", newParseError("MISSING_SPEC_BLOCK", "no %q fenced block found", kind)
	case 1:
		return found[0], nil
	default:
		return "", newParseError("DUPLICATE_SPEC_BLOCK", "%d %q fenced blocks found, expected exactly one", len(found), kind)
	}
}

func parseStructure(meta Metadata, body string) (Document, error) {
	block, err := extractFencedBlock(body, "structure_spec")
	if err != nil {
		return Document{}, err
	}

	var spec struct {
		WeekPattern   []WeekPatternEntry  `yaml:"week_pattern"`
		Rules         StructureRules      `yaml:"rules"`
		SessionGroups map[string][]string `yaml:"session_groups"`
	}
	if err := yaml.Unmarshal([]byte(block), &spec); err != nil {
		return Document{}, newParseError("INVALID_SPEC_BLOCK", "structure_spec is not valid YAML: %v", err)
	}
	if len(spec.WeekPattern) == 0 {
		return Document{}, newParseError("MISSING_REQUIRED_FIELD", "structure_spec has no week_pattern")
	}
	if spec.SessionGroups == nil {
		return Document{}, newParseError("MISSING_REQUIRED_FIELD", "structure_spec has no session_groups")
	}

	return Document{
		Type: DocStructure,
		Structure: &Structure{
			Metadata:      meta,
			WeekPattern:   spec.WeekPattern,
			Rules:         spec.Rules,
			SessionGroups: spec.SessionGroups,
		},
	}, nil
}

func parseTemplate(meta Metadata, body string) (Document, error) {
	kind := "template_spec"
	if !strings.Contains(body, "```template_spec") && strings.Contains(body, "```template_sets") {
		kind = "template_sets"
	}
	block, err := extractFencedBlock(body, kind)
	if err != nil {
		return Document{}, err
	}

	var spec struct {
		SessionType string            `yaml:"session_type"`
		Params      []TemplateParam   `yaml:"params"`
		Constraints map[string]string `yaml:"constraints"`
	}
	if err := yaml.Unmarshal([]byte(block), &spec); err != nil {
		return Document{}, newParseError("INVALID_SPEC_BLOCK", "%s is not valid YAML: %v", kind, err)
	}
	if spec.SessionType == "" {
		return Document{}, newParseError("MISSING_REQUIRED_FIELD", "%s has no session_type", kind)
	}

	return Document{
		Type: DocTemplate,
		Template: &Template{
			Metadata:    meta,
			SessionType: spec.SessionType,
			Params:      spec.Params,
			Constraints: spec.Constraints,
		},
	}, nil
}
