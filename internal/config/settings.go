package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied before a settings file is read.
const (
	DefaultPresetsDir     = "presets"
	DefaultAssetsRoot     = "assets"
	DefaultCacheDB        = ".scenekit/assets.db"
	DefaultExportDir      = "export"
	DefaultAssetStaleness = 30 * 24 * time.Hour
	DefaultAssetScale     = float32(0.01)
)

// Settings are the editor-wide options.
type Settings struct {
	PresetsDir      string             `yaml:"presets_dir" validate:"required"`
	AssetsRoot      string             `yaml:"assets_root"`
	RemoteCacheRoot string             `yaml:"remote_cache_root"`
	CacheDB         string             `yaml:"cache_db"`
	ExportDir       string             `yaml:"export_dir" validate:"required"`
	HistoryLimit    int                `yaml:"history_limit" validate:"gte=0"`
	AssetStaleness  time.Duration      `yaml:"asset_staleness" validate:"gte=0"`
	DefaultScale    float32            `yaml:"default_scale" validate:"gt=0"`
	ScaleOverrides  map[string]float32 `yaml:"scale_overrides" validate:"omitempty,dive,gt=0"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		PresetsDir:     DefaultPresetsDir,
		AssetsRoot:     DefaultAssetsRoot,
		CacheDB:        DefaultCacheDB,
		ExportDir:      DefaultExportDir,
		AssetStaleness: DefaultAssetStaleness,
		DefaultScale:   DefaultAssetScale,
	}
}

// LoadSettings reads a YAML settings file over the defaults. An empty path
// returns the defaults. Unknown keys are rejected.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("settings file not found: %s", path), Err: err}
		}
		return s, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading settings: %v", err), Err: err}
	}
	return ParseSettings(data)
}

// ParseSettings decodes settings from YAML bytes over the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return DefaultSettings(), &LoadError{Code: ErrCodeSettings, Message: fmt.Sprintf("parsing settings: %v", err), Err: err}
	}
	if err := validator.New().Struct(s); err != nil {
		return DefaultSettings(), &LoadError{Code: ErrCodeSettings, Message: fmt.Sprintf("invalid settings: %v", err), Err: err}
	}
	return s, nil
}
