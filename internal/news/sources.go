package news

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceType is the feed flavour of a source
type SourceType string

const (
	SourceRSS     SourceType = "rss"
	SourceAtom    SourceType = "atom"
	SourceYouTube SourceType = "youtube"
)

// Format selects how a source body is parsed
type Format string

const (
	// FormatFeed is parsed as RSS/Atom/JSON Feed
	FormatFeed Format = "feed"
	// FormatJSON is a backend news endpoint answering one of the DecodeEnvelope shapes
	FormatJSON Format = "json"
)

// Source is one configured news feed
type Source struct {
	Name     string     `yaml:"name"`
	URL      string     `yaml:"url"`
	Category Topic      `yaml:"category"`
	Language string     `yaml:"language"`
	Type     SourceType `yaml:"type"`
	Format   Format     `yaml:"format"`
	Enabled  bool       `yaml:"enabled"`
	Keywords []string   `yaml:"keywords"`
}

// DefaultSources are used when no sources file is configured
var DefaultSources = []Source{
	{
		Name:     "Bee Culture Magazine",
		URL:      "https://www.beeculture.com/feed/",
		Category: TopicProduction,
		Language: "en",
		Type:     SourceRSS,
		Format:   FormatFeed,
		Enabled:  true,
	},
	{
		Name:     "Honey Bee Suite",
		URL:      "https://honeybeesuite.com/feed/",
		Category: TopicHealth,
		Language: "en",
		Type:     SourceRSS,
		Format:   FormatFeed,
		Enabled:  true,
	},
	{
		Name:     "American Bee Journal",
		URL:      "https://americanbeejournal.com/feed/",
		Category: TopicMarket,
		Language: "en",
		Type:     SourceRSS,
		Format:   FormatFeed,
		Enabled:  true,
	},
	{
		Name:     "BTA България",
		URL:      "https://www.bta.bg/bg/rss",
		Category: TopicMarket,
		Language: "bg",
		Type:     SourceRSS,
		Format:   FormatFeed,
		Enabled:  false,
		Keywords: []string{"пчеларство", "пчели", "мед", "пчелари"},
	},
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads sources from a YAML file. An empty path returns DefaultSources.
func LoadSources(path string) ([]Source, error) {
	if path == "" {
		return append([]Source(nil), DefaultSources...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read news sources: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse news sources %s: %w", path, err)
	}

	for i := range file.Sources {
		if err := file.Sources[i].normalize(); err != nil {
			return nil, fmt.Errorf("news source %d: %w", i, err)
		}
	}
	return file.Sources, nil
}

func (s *Source) normalize() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: url must be an absolute http(s) URL", s.Name)
	}

	if s.Type == "" {
		s.Type = SourceRSS
	}
	switch s.Type {
	case SourceRSS, SourceAtom, SourceYouTube:
	default:
		return fmt.Errorf("%s: unknown type %q", s.Name, s.Type)
	}

	if s.Format == "" {
		s.Format = FormatFeed
	}
	switch s.Format {
	case FormatFeed, FormatJSON:
	default:
		return fmt.Errorf("%s: unknown format %q", s.Name, s.Format)
	}
	return nil
}

// Enabled returns the enabled subset of sources
func Enabled(sources []Source) []Source {
	var out []Source
	for _, s := range sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
