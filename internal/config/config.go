package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type NotesConfig struct {
	// Store is "memory" or "memgraph".
	Store string `toml:"store"`
	// FetchLimit caps how many notes a session snapshot pulls in. The graph
	// builder enumerates all note pairs, so this bound is what keeps the
	// O(n^2) pass cheap. Keep it in the tens-to-100 range.
	FetchLimit int `toml:"fetch_limit"`
}

// GraphConfig carries the tuned edge-weight constants. They have no deeper
// rationale than "looks right at default scale", so they live in config
// rather than as literals in the builder.
type GraphConfig struct {
	TagEdgeWeight     float64 `toml:"tag_edge_weight"`     // per shared tag
	ClusterEdgeWeight float64 `toml:"cluster_edge_weight"` // flat, same-cluster fallback
}

type LayoutConfig struct {
	LinkDistance    float64 `toml:"link_distance"`
	AILinkScale     float64 `toml:"ai_link_scale"` // target-distance multiplier for AI edges
	LinkStrength    float64 `toml:"link_strength"`
	AILinkStrength  float64 `toml:"ai_link_strength"`
	Repulsion       float64 `toml:"repulsion"`
	CollisionMargin float64 `toml:"collision_margin"`
	CenterStrength  float64 `toml:"center_strength"`
	Damping         float64 `toml:"damping"`
	Width           float64 `toml:"width"`
	Height          float64 `toml:"height"`
}

type ConnectionPrompts struct {
	Analyze string `toml:"analyze"`
}

type Config struct {
	LLM      LLMConfig         `toml:"llm"`
	Memgraph MemgraphConfig    `toml:"memgraph"`
	Notes    NotesConfig       `toml:"notes"`
	Graph    GraphConfig       `toml:"graph"`
	Layout   LayoutConfig      `toml:"layout"`
	Prompts  ConnectionPrompts `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a config usable without any config file on disk.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.Notes.Store == "" {
		c.Notes.Store = "memory"
	}
	if c.Notes.FetchLimit <= 0 {
		c.Notes.FetchLimit = 100
	}
	if c.Graph.TagEdgeWeight == 0 {
		c.Graph.TagEdgeWeight = 0.2
	}
	if c.Graph.ClusterEdgeWeight == 0 {
		c.Graph.ClusterEdgeWeight = 0.1
	}
	if c.Layout.LinkDistance == 0 {
		c.Layout.LinkDistance = 100
	}
	if c.Layout.AILinkScale == 0 {
		c.Layout.AILinkScale = 0.7
	}
	if c.Layout.LinkStrength == 0 {
		c.Layout.LinkStrength = 0.3
	}
	if c.Layout.AILinkStrength == 0 {
		c.Layout.AILinkStrength = 0.8
	}
	if c.Layout.Repulsion == 0 {
		c.Layout.Repulsion = 2000
	}
	if c.Layout.CollisionMargin == 0 {
		c.Layout.CollisionMargin = 4
	}
	if c.Layout.CenterStrength == 0 {
		c.Layout.CenterStrength = 0.02
	}
	if c.Layout.Damping == 0 {
		c.Layout.Damping = 0.85
	}
	if c.Layout.Width == 0 {
		c.Layout.Width = 1200
	}
	if c.Layout.Height == 0 {
		c.Layout.Height = 800
	}
}
