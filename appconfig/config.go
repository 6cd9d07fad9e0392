package appconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/MilitaerMilitz/2D-Kailexcraft/downloads"
	"github.com/MilitaerMilitz/2D-Kailexcraft/platform"
)

const (
	// DefaultPackURL is the upstream zipball of the vanilla 1.17.1 assets.
	DefaultPackURL = "https://github.com/InventivetalentDev/minecraft-assets/zipball/refs/heads/1.17.1"
	// DefaultPackZipSize is the exact byte size of that zipball.
	DefaultPackZipSize int64 = 315_908_094
	// DefaultPackUnzippedSize is the byte size of its extracted content.
	DefaultPackUnzippedSize int64 = 408_432_161
	// DefaultMonitorIntervalMs is the progress polling period.
	DefaultMonitorIntervalMs = 500

	fileName = "config.json"
)

// DefaultPackConfig describes where the default pack comes from and how a
// cached copy is recognised as complete.
type DefaultPackConfig struct {
	URL          string `json:"url"`
	ZipSize      int64  `json:"zipSize"`
	UnzippedSize int64  `json:"unzippedSize"`
	// Checksum is optional, in the form "blake2b-256:<hex>".
	Checksum string `json:"checksum"`
	// StripRoot flattens the archive's single root folder into the
	// resource directory.
	StripRoot *bool               `json:"stripRoot,omitempty"`
	S3        downloads.S3Options `json:"s3"`
}

// StripRootFolder reports the StripRoot setting, defaulting to true.
func (d DefaultPackConfig) StripRootFolder() bool {
	return d.StripRoot == nil || *d.StripRoot
}

// Config holds application configuration: where packs live, where the
// default pack comes from, and the operation journal.
type Config struct {
	HomeDir string `json:"homeDir"`

	DefaultPack DefaultPackConfig `json:"defaultPack"`

	MonitorIntervalMs int `json:"monitorIntervalMs"`

	// SQLite journal of install and apply runs
	JournalPath string `json:"journalPath"`
}

// MonitorInterval returns the polling period as a duration.
func (c Config) MonitorInterval() time.Duration {
	if c.MonitorIntervalMs <= 0 {
		return DefaultMonitorIntervalMs * time.Millisecond
	}
	return time.Duration(c.MonitorIntervalMs) * time.Millisecond
}

// writeFile is replaced in tests.
var writeFile = os.WriteFile

// DefaultConfigDir returns the default config directory path.
// Uses the platform-specific data directory.
func DefaultConfigDir() string {
	return platform.GetDataDir()
}

// defaultConfig returns a Config rooted at home.
func defaultConfig(home string) Config {
	return Config{
		HomeDir: home,
		DefaultPack: DefaultPackConfig{
			URL:          DefaultPackURL,
			ZipSize:      DefaultPackZipSize,
			UnzippedSize: DefaultPackUnzippedSize,
		},
		MonitorIntervalMs: DefaultMonitorIntervalMs,
		JournalPath:       filepath.Join(home, "journal.db"),
	}
}

func isJSONObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func deepMergeJSON(dst, src map[string]json.RawMessage) {
	for k, v := range src {
		if existing, ok := dst[k]; ok && isJSONObject(existing) && isJSONObject(v) {
			var dstObj map[string]json.RawMessage
			var srcObj map[string]json.RawMessage
			if err := json.Unmarshal(existing, &dstObj); err != nil {
				dst[k] = v
				continue
			}
			if err := json.Unmarshal(v, &srcObj); err != nil {
				dst[k] = v
				continue
			}
			deepMergeJSON(dstObj, srcObj)
			merged, err := json.Marshal(dstObj)
			if err != nil {
				dst[k] = v
				continue
			}
			dst[k] = merged
			continue
		}
		dst[k] = v
	}
}

// Load reads the config from the default directory. See LoadFrom.
func Load() (Config, string, error) {
	return LoadFrom(DefaultConfigDir())
}

// LoadFrom reads dir/config.json. A missing file is created with defaults;
// missing fields are filled in.
func LoadFrom(dir string) (Config, string, error) {
	path := filepath.Join(dir, fileName)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Config{}, "", fmt.Errorf("failed to create config directory %s: %v", dir, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, path, fmt.Errorf("failed to read config file at %s: %v", path, err)
		}
		def := defaultConfig(dir)
		if _, err := SaveTo(dir, def); err != nil {
			return Config{}, path, fmt.Errorf("failed to create default config file: %v", err)
		}
		return def, path, nil
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, path, fmt.Errorf("failed to parse config JSON: %v", err)
	}

	needsSave := false
	if c.HomeDir == "" {
		c.HomeDir = dir
		needsSave = true
	}
	def := defaultConfig(c.HomeDir)

	if c.DefaultPack.URL == "" {
		c.DefaultPack.URL = def.DefaultPack.URL
	}
	if c.DefaultPack.ZipSize == 0 {
		c.DefaultPack.ZipSize = def.DefaultPack.ZipSize
	}
	if c.DefaultPack.UnzippedSize == 0 {
		c.DefaultPack.UnzippedSize = def.DefaultPack.UnzippedSize
	}
	if c.MonitorIntervalMs <= 0 {
		c.MonitorIntervalMs = def.MonitorIntervalMs
	}
	if c.JournalPath == "" {
		c.JournalPath = def.JournalPath
	}

	if needsSave {
		if _, saveErr := SaveTo(dir, c); saveErr != nil {
			log.Printf("appconfig: failed to save updated config: %v", saveErr)
		}
	}

	return c, path, nil
}

// SaveTo writes the config to dir/config.json, keeping keys it does not
// know about. Returns the path.
func SaveTo(dir string, c Config) (string, error) {
	path := filepath.Join(dir, fileName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return path, fmt.Errorf("failed to create config directory: %v", err)
	}
	base := map[string]json.RawMessage{}
	if existing, readErr := os.ReadFile(path); readErr == nil {
		var tmp map[string]json.RawMessage
		if err := json.Unmarshal(existing, &tmp); err == nil {
			base = tmp
		}
	}

	marshaled, err := json.Marshal(c)
	if err != nil {
		return path, fmt.Errorf("failed to marshal config: %v", err)
	}
	incoming := map[string]json.RawMessage{}
	if err := json.Unmarshal(marshaled, &incoming); err != nil {
		return path, fmt.Errorf("failed to map config JSON: %v", err)
	}

	deepMergeJSON(base, incoming)

	mergedData, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return path, fmt.Errorf("failed to marshal merged config: %v", err)
	}
	if err := writeFile(path, mergedData, 0644); err != nil {
		return path, fmt.Errorf("failed to write config file: %v", err)
	}
	return path, nil
}
