package articles

import (
	"encoding/json"
	"strings"
)

// LayoutStyle selects the overall article layout.
type LayoutStyle string

const (
	LayoutClassic   LayoutStyle = "classic"
	LayoutImmersive LayoutStyle = "immersive"
	LayoutAnnotated LayoutStyle = "annotated"
)

// HeroTreatment selects how the cover image is presented.
type HeroTreatment string

const (
	HeroCollage   HeroTreatment = "collage"
	HeroSpotlight HeroTreatment = "spotlight"
	HeroPaper     HeroTreatment = "paper"
)

// ReadingPace is the editorial mood dial shown alongside an article.
type ReadingPace string

const (
	PaceCalm     ReadingPace = "calm"
	PaceStudious ReadingPace = "studious"
	PaceChaotic  ReadingPace = "chaotic"
)

const (
	defaultAccentColor = "#ff5f3c"
	defaultKicker      = "Reginald Field Report"
)

// StoredSettings is the partial, versionless configuration blob persisted
// with each article. Every field is optional; older records missing newer
// fields resolve against defaults on load. Booleans are tri-state pointers so
// an explicit false survives the merge.
type StoredSettings struct {
	AccentColor   string `json:"accentColor,omitempty"`
	LayoutStyle   string `json:"layoutStyle,omitempty"`
	HeroTreatment string `json:"heroTreatment,omitempty"`
	ReadingPace   string `json:"readingPace,omitempty"`
	ShowToc       *bool  `json:"showToc,omitempty"`
	ShowDropCap   *bool  `json:"showDropCap,omitempty"`
	Kicker        string `json:"kicker,omitempty"`
	PullQuote     string `json:"pullQuote,omitempty"`
}

// Settings is the fully resolved configuration: every field populated, enums
// guaranteed to hold a recognized value.
type Settings struct {
	AccentColor   string        `json:"accent_color"`
	LayoutStyle   LayoutStyle   `json:"layout_style"`
	HeroTreatment HeroTreatment `json:"hero_treatment"`
	ReadingPace   ReadingPace   `json:"reading_pace"`
	ShowToc       bool          `json:"show_toc"`
	ShowDropCap   bool          `json:"show_drop_cap"`
	Kicker        string        `json:"kicker"`
	PullQuote     string        `json:"pull_quote,omitempty"`
}

// DefaultSettings returns the configuration applied to an article that has
// never been customized.
func DefaultSettings() Settings {
	return Settings{
		AccentColor:   defaultAccentColor,
		LayoutStyle:   LayoutClassic,
		HeroTreatment: HeroCollage,
		ReadingPace:   PaceStudious,
		ShowToc:       true,
		ShowDropCap:   true,
		Kicker:        defaultKicker,
	}
}

// ResolveSettings overlays stored fields onto defaults, field by field and
// one level deep. Unrecognized enum values fall back to the default rather
// than erroring so both older and newer record shapes keep resolving.
func ResolveSettings(stored StoredSettings) Settings {
	resolved := DefaultSettings()

	if color := strings.TrimSpace(stored.AccentColor); color != "" {
		resolved.AccentColor = color
	}
	switch LayoutStyle(stored.LayoutStyle) {
	case LayoutClassic, LayoutImmersive, LayoutAnnotated:
		resolved.LayoutStyle = LayoutStyle(stored.LayoutStyle)
	}
	switch HeroTreatment(stored.HeroTreatment) {
	case HeroCollage, HeroSpotlight, HeroPaper:
		resolved.HeroTreatment = HeroTreatment(stored.HeroTreatment)
	}
	switch ReadingPace(stored.ReadingPace) {
	case PaceCalm, PaceStudious, PaceChaotic:
		resolved.ReadingPace = ReadingPace(stored.ReadingPace)
	}
	if stored.ShowToc != nil {
		resolved.ShowToc = *stored.ShowToc
	}
	if stored.ShowDropCap != nil {
		resolved.ShowDropCap = *stored.ShowDropCap
	}
	if kicker := strings.TrimSpace(stored.Kicker); kicker != "" {
		resolved.Kicker = kicker
	}
	if quote := strings.TrimSpace(stored.PullQuote); quote != "" {
		resolved.PullQuote = quote
	}

	return resolved
}

// ReadingPaceLabel maps the pace value to its display label. Anything
// unrecognized reads as Studious.
func ReadingPaceLabel(pace ReadingPace) string {
	switch pace {
	case PaceCalm:
		return "Calm"
	case PaceChaotic:
		return "Chaotic"
	default:
		return "Studious"
	}
}

// ParseStoredSettings decodes the persisted settings blob. Malformed or
// empty blobs resolve to the zero value so loading never fails on settings.
func ParseStoredSettings(raw string) StoredSettings {
	var stored StoredSettings
	if strings.TrimSpace(raw) == "" {
		return stored
	}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return StoredSettings{}
	}
	return stored
}

// EncodeStoredSettings serializes the partial settings for persistence.
func EncodeStoredSettings(stored StoredSettings) string {
	encoded, err := json.Marshal(stored)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
