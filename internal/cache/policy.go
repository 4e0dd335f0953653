package cache

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy declares the partition version, the precache manifest, and the
// request-classification rules. Loaded from YAML so the asset list can change
// without a rebuild.
type Policy struct {
	Version      string   `yaml:"version"`
	Precache     []string `yaml:"precache"`
	APIPrefixes  []string `yaml:"api_prefixes"`
	APIEndpoints []string `yaml:"api_endpoints"`
	FontsMarker  string   `yaml:"fonts_marker"`
	MediaExts    []string `yaml:"media_extensions"`
	OfflinePath  string   `yaml:"offline_path"`
}

func LoadPolicy(path string) (Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return Policy{}, err
	}
	defer f.Close()

	p := DefaultPolicy()
	if err := yaml.NewDecoder(f).Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("cache policy %s: %w", path, err)
	}
	if p.Version == "" {
		p.Version = DefaultPolicy().Version
	}
	return p, nil
}

// DefaultPolicy mirrors the platform's shipped asset manifest.
func DefaultPolicy() Policy {
	return Policy{
		Version: "v1.0.0",
		Precache: []string{
			"/",
			"/index.html",
			"/manifest.json",
			"/css/main.css",
			"/css/components.css",
			"/css/themes.css",
			"/css/animations.css",
			"/css/responsive.css",
			"/js/app.js",
			"/js/modules/navigation.js",
			"/js/modules/theme-switcher.js",
			"/js/modules/progress-tracker.js",
			"/js/modules/search-filter.js",
			"/js/modules/notification-system.js",
			"/js/modules/quiz-engine.js",
			"/js/data/courses-data.js",
			"/js/data/trainers-data.js",
			"/assets/images/logo.png",
			"/assets/images/favicon.ico",
			"/assets/images/apple-touch-icon.png",
		},
		APIPrefixes: []string{"/api/"},
		APIEndpoints: []string{
			"/api/courses",
			"/api/trainers",
			"/api/progress",
			"/api/quizzes",
		},
		FontsMarker: "/fonts/",
		MediaExts: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
			".mp4", ".webm", ".mp3", ".wav",
		},
		OfflinePath: "/offline.html",
	}
}

// Partition names, versioned so activation can sweep stale sets.

func (p Policy) StaticPartition() string  { return "static-" + p.Version }
func (p Policy) DynamicPartition() string { return "dynamic-" + p.Version }
func (p Policy) APIPartition() string     { return "api-" + p.Version }

// Recognized is the current partition set; anything else is deleted on
// activation.
func (p Policy) Recognized() []string {
	return []string{p.StaticPartition(), p.DynamicPartition(), p.APIPartition()}
}
