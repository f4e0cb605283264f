package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

// ConfigLoader parses, validates and caches jury configurations.
// Documents are YAML; JSON documents are accepted as well.
// Unknown fields are rejected so typos never pass silently.
// Loaded configurations are cached by the SHA256 of their normalized form.
type ConfigLoader struct {
	// validator performs struct tag validation plus the jury-specific tags.
	validator *validator.Validate
	// registry, when set, must contain the custom strategy a configuration
	// names.
	registry ports.StrategyRegistry
	// cache stores validated configurations indexed by SHA256 hash.
	// Cached configurations MUST NOT be mutated.
	cache   map[string]*JuryConfig
	cacheMu sync.RWMutex
	// sf prevents duplicate validation when several goroutines load the
	// same document at once.
	sf singleflight.Group
}

// NewConfigLoader creates a loader. When registry is non-nil, a
// configuration selecting custom voting must name a registered strategy.
func NewConfigLoader(registry ports.StrategyRegistry) (*ConfigLoader, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ConfigLoader{
		validator: v,
		registry:  registry,
		cache:     make(map[string]*JuryConfig),
	}, nil
}

// LoadFromFile loads a configuration from a YAML or JSON file.
// The returned configuration is shared with the cache and must be treated
// as read-only.
func (l *ConfigLoader) LoadFromFile(path string) (*JuryConfig, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.NewConfigError(cleanPath, ports.ErrConfigNotFound)
		}
		return nil, ports.NewConfigError(cleanPath, err)
	}

	return l.Load(data)
}

// LoadFromReader loads a configuration from r.
func (l *ConfigLoader) LoadFromReader(r io.Reader) (*JuryConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return l.Load(data)
}

// Load parses, defaults and validates a configuration document.
func (l *ConfigLoader) Load(data []byte) (*JuryConfig, error) {
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.ApplyDefaults()

	hash, err := configHash(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := l.sf.Do(hash, func() (any, error) {
		if cached, ok := l.cached(hash); ok {
			return cached, nil
		}
		if err := l.validateStruct(cfg); err != nil {
			return nil, err
		}
		l.store(hash, cfg)
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}

	loaded := v.(*JuryConfig)
	// The registry can change between loads, so cache hits are checked too.
	if err := l.checkCustomStrategy(loaded); err != nil {
		return nil, err
	}
	return loaded, nil
}

// Validate checks cfg against its struct tags and, when the loader has a
// registry, that a custom strategy is registered. Defaults should be
// applied first.
func (l *ConfigLoader) Validate(cfg *JuryConfig) error {
	if err := l.validateStruct(cfg); err != nil {
		return err
	}
	return l.checkCustomStrategy(cfg)
}

func (l *ConfigLoader) validateStruct(cfg *JuryConfig) error {
	if err := l.validator.Struct(cfg); err != nil {
		return describeValidationErrors("jury config", err)
	}
	return nil
}

// checkCustomStrategy resolves the configured custom strategy name before
// the first aggregation ever runs.
func (l *ConfigLoader) checkCustomStrategy(cfg *JuryConfig) error {
	if l.registry == nil || cfg.CustomStrategy == "" {
		return nil
	}
	if !l.registry.Has(cfg.CustomStrategy) {
		verr := domain.NewValidationError("jury config")
		verr.AddError(fmt.Sprintf("custom_strategy %q is not registered", cfg.CustomStrategy))
		return verr
	}
	return nil
}

// ClearCache removes all cached configurations.
func (l *ConfigLoader) ClearCache() {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.cache = make(map[string]*JuryConfig)
}

func (l *ConfigLoader) cached(hash string) (*JuryConfig, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	cfg, ok := l.cache[hash]
	return cfg, ok
}

func (l *ConfigLoader) store(hash string, cfg *JuryConfig) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.cache[hash] = cfg
}

// parseConfig decodes a single document with strict field checking.
func parseConfig(data []byte) (*JuryConfig, error) {
	var cfg JuryConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &cfg, nil
}

// configHash hashes the re-encoded configuration so that documents that
// differ only in formatting or key order share a cache entry.
func configHash(cfg *JuryConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
