package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Detector Detector
	Gallery  Gallery
	Database Database
	Legacy   Legacy
	Stream   Stream
	Defaults Defaults
}

type Detector struct {
	URL     string // face detection/embedding service, defaults to http://localhost:8000
	Model   string // model name, for reference only
	MaxSize int    // max frame dimension sent to the detector (default 960)
}

type Gallery struct {
	SnapshotPath string // path to the gallery snapshot loaded at startup
	Dim          int    // embedding dimension (default 128)
	UseHNSW      bool   // build an HNSW index over the gallery at startup
}

type Database struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

// Legacy points at the old MariaDB attendance deployment, used only by
// the import command.
type Legacy struct {
	DSN string // e.g. attendance:attendance@tcp(mariadb:3306)/attendance
}

type Stream struct {
	Workers   int     // frame pipeline workers (default 4)
	QueueSize int     // bounded inbound frame queue (default 8)
	Tolerance float64 // match tolerance override, 0 uses the embedded default
}

// Defaults holds values shipped in the embedded defaults.yaml file.
type Defaults struct {
	Matcher struct {
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"matcher"`
	Schedule struct {
		Start     string `yaml:"start"`
		End       string `yaml:"end"`
		LateGrace int    `yaml:"late_grace_minutes"`
	} `yaml:"schedule"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envBool(key string) bool {
	s := os.Getenv(key)
	return s == "1" || s == "true" || s == "yes"
}

func Load() *Config {
	var defaults Defaults
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, cannot fail in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Detector: Detector{
			URL:     os.Getenv("DETECTOR_URL"),
			Model:   os.Getenv("DETECTOR_MODEL"),
			MaxSize: envInt("DETECTOR_MAX_SIZE", 960),
		},
		Gallery: Gallery{
			SnapshotPath: os.Getenv("GALLERY_SNAPSHOT_PATH"),
			Dim:          envInt("GALLERY_DIM", 128),
			UseHNSW:      envBool("GALLERY_HNSW"),
		},
		Database: Database{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Legacy: Legacy{
			DSN: os.Getenv("LEGACY_DATABASE_DSN"),
		},
		Stream: Stream{
			Workers:   envInt("STREAM_WORKERS", 4),
			QueueSize: envInt("STREAM_QUEUE_SIZE", 8),
			Tolerance: envFloat("MATCH_TOLERANCE", 0),
		},
		Defaults: defaults,
	}
}

// Tolerance returns the effective match tolerance: the MATCH_TOLERANCE
// override when set, otherwise the embedded default.
func (c *Config) Tolerance() float64 {
	if c.Stream.Tolerance > 0 {
		return c.Stream.Tolerance
	}
	return c.Defaults.Matcher.Tolerance
}
