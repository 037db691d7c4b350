package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Files is the disk access the loader needs. Tests substitute a map.
type Files interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFiles struct{}

func (osFiles) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a dotenv file. Variables already set in the process win.
func (osFiles) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Option customizes Load.
type Option func(*loader)

// WithFiles replaces the local disk.
func WithFiles(f Files) Option {
	return func(l *loader) { l.files = f }
}

// WithConfigFile names the YAML file to read. It must exist.
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

// WithEnvFile names the dotenv file to load. It must exist.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

type loader struct {
	files      Files
	configFile string
	envFile    string
}

// Load decodes the configuration for service into out. Sources, lowest
// precedence first: the YAML file, the dotenv file, the process
// environment. Environment keys address nested keys by underscores, so
// UPSTREAM_PRIMARY_TIMEOUT sets upstream.primary_timeout.
//
// Files not named explicitly are searched for in the usual places; finding
// none is not an error.
func Load(service string, out any, opts ...Option) error {
	l := &loader{files: osFiles{}}
	for _, opt := range opts {
		opt(l)
	}
	for _, named := range []string{l.configFile, l.envFile} {
		if named != "" && !l.files.Exists(named) {
			return fmt.Errorf("%s not found", named)
		}
	}
	configFile, envFile := l.locate(service)

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", configFile, err)
		}
	}
	if envFile != "" {
		if err := l.files.LoadEnv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		for _, k := range envKeys(key) {
			v.Set(k, value)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode %s config: %w", service, err)
	}
	return nil
}

// locate returns the named files, or the first existing candidate for each.
func (l *loader) locate(service string) (configFile, envFile string) {
	configFile, envFile = l.configFile, l.envFile
	if configFile == "" {
		configFile = l.first(configCandidates(service))
	}
	if envFile == "" {
		envFile = l.first(envCandidates(service))
	}
	return configFile, envFile
}

func (l *loader) first(paths []string) string {
	for _, p := range paths {
		if l.files.Exists(p) {
			return p
		}
	}
	return ""
}

// configCandidates lists config.yml locations, nearest first. Walking up two
// levels lets tests in package directories find cmd/<service>.
func configCandidates(service string) []string {
	paths := []string{
		filepath.Join("cmd", service, "config.yml"),
		filepath.Join("..", "cmd", service, "config.yml"),
		filepath.Join("..", "..", "cmd", service, "config.yml"),
	}
	return append(paths, filepath.Join("config", "config.yml"), "config.yml")
}

func envCandidates(service string) []string {
	dirs := []string{filepath.Join("cmd", service), ".", "..", filepath.Join("..", "..")}
	var paths []string
	for _, name := range []string{".env." + service, ".env"} {
		for _, dir := range dirs {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

// envKeys returns every config key an environment variable could address:
//
//	SERVER_CORS_ALLOWED_ORIGINS -> server_cors_allowed_origins,
//	    server.cors_allowed_origins, server.cors.allowed_origins,
//	    server.cors.allowed.origins
//
// Single-word variables such as HOME are skipped so they cannot replace a
// whole section.
func envKeys(name string) []string {
	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) < 2 {
		return nil
	}
	keys := []string{strings.Join(parts, "_")}
	for i := 1; i < len(parts); i++ {
		keys = append(keys, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return keys
}
