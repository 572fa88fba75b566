package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vizsite.json"

	// DefaultPort is the default dev/preview server port.
	DefaultPort = 5173

	// DefaultHost is the default dev/preview server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "build"

	// DefaultRoutes is the default page source directory.
	DefaultRoutes = "src/routes"

	// DefaultStatic is the default asset directory.
	DefaultStatic = "static"

	// DefaultConcurrency is the default number of routes rendered at once.
	DefaultConcurrency = 4
)

// Mode selects the active base path.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Trailing slash policies for emitted pages.
const (
	TrailingSlashNever  = "never"
	TrailingSlashAlways = "always"
)

// Config represents the complete vizsite.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Paths contains source directory configuration.
	Paths PathsConfig `json:"paths,omitempty"`

	// Base maps a build mode to its base path.
	Base map[Mode]string `json:"base,omitempty"`

	// Build contains static export settings.
	Build BuildConfig `json:"build,omitempty"`

	// Dev contains dev and preview server settings.
	Dev DevConfig `json:"dev,omitempty"`

	// Deploy contains the hosting bucket settings.
	Deploy DeployConfig `json:"deploy,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PathsConfig contains path configuration for project directories.
type PathsConfig struct {
	// Routes is the directory holding page sources.
	Routes string `json:"routes,omitempty"`

	// Static is the directory holding assets copied verbatim to the output.
	Static string `json:"static,omitempty"`
}

// BuildConfig contains static export settings.
type BuildConfig struct {
	// Output is the output directory for builds.
	Output string `json:"output,omitempty"`

	// TrailingSlash is "never" (/movies → movies.html) or
	// "always" (/movies/ → movies/index.html).
	TrailingSlash string `json:"trailingSlash,omitempty"`

	// Concurrency bounds how many routes render at once.
	Concurrency int `json:"concurrency,omitempty"`

	// Precompress writes .gz siblings for text files.
	Precompress bool `json:"precompress,omitempty"`
}

// DevConfig contains dev and preview server settings.
type DevConfig struct {
	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Watch lists extra paths to watch besides routes and static.
	Watch []string `json:"watch,omitempty"`
}

// DeployConfig contains S3-compatible bucket settings.
type DeployConfig struct {
	// Bucket is the destination bucket.
	Bucket string `json:"bucket,omitempty"`

	// Region is the bucket region.
	Region string `json:"region,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// Endpoint overrides the S3 endpoint for S3-compatible hosts.
	Endpoint string `json:"endpoint,omitempty"`

	// Concurrency bounds parallel uploads.
	Concurrency int `json:"concurrency,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Paths: PathsConfig{
			Routes: DefaultRoutes,
			Static: DefaultStatic,
		},
		Base: map[Mode]string{
			ModeDevelopment: "",
		},
		Build: BuildConfig{
			Output:        DefaultOutput,
			TrailingSlash: TrailingSlashNever,
			Concurrency:   DefaultConcurrency,
		},
		Dev: DevConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Deploy: DeployConfig{
			Concurrency: DefaultConcurrency,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for vizsite.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigMissing).
				WithDetail("No vizsite.json found in " + filepath.Dir(path)).
				WithSuggestion("Create vizsite.json at the project root")
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse vizsite.json: " + err.Error()).
			WithSuggestion("Check that vizsite.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// SetDir points relative paths at dir without a config file on disk.
func (c *Config) SetDir(dir string) {
	c.configPath = filepath.Join(dir, ConfigFileName)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Paths.Routes == "" {
		c.Paths.Routes = DefaultRoutes
	}
	if c.Paths.Static == "" {
		c.Paths.Static = DefaultStatic
	}
	if c.Base == nil {
		c.Base = map[Mode]string{}
	}
	if _, ok := c.Base[ModeDevelopment]; !ok {
		c.Base[ModeDevelopment] = ""
	}

	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
	if c.Build.TrailingSlash == "" {
		c.Build.TrailingSlash = TrailingSlashNever
	}
	if c.Build.Concurrency <= 0 {
		c.Build.Concurrency = DefaultConcurrency
	}

	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}

	if c.Deploy.Concurrency <= 0 {
		c.Deploy.Concurrency = DefaultConcurrency
	}
}

// Validate checks values that would otherwise fail deep inside a build.
func (c *Config) Validate() error {
	modes := make([]string, 0, len(c.Base))
	for mode := range c.Base {
		modes = append(modes, string(mode))
	}
	sort.Strings(modes)
	for _, mode := range modes {
		if err := routepath.ValidateBase(c.Base[Mode(mode)]); err != nil {
			return errors.New(errors.CodeInvalidBasePath).
				WithDetail("base." + mode + ": " + err.Error()).
				WithSuggestion(`Use "" for the domain root or a prefix like "/my-project"`)
		}
	}

	switch c.Build.TrailingSlash {
	case TrailingSlashNever, TrailingSlashAlways:
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetail(`build.trailingSlash must be "never" or "always", got "` + c.Build.TrailingSlash + `"`)
	}

	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("dev.port must be between 0 and 65535, got " + strconv.Itoa(c.Dev.Port))
	}
	return nil
}

// BasePath returns the base path for mode. An unknown mode or a mode with no
// base entry is a configuration error; there is no fallback.
func (c *Config) BasePath(mode Mode) (string, error) {
	switch mode {
	case ModeDevelopment, ModeProduction:
	default:
		return "", errors.New(errors.CodeUnknownMode).
			WithDetail(`Unknown mode "` + string(mode) + `".`).
			WithSuggestion(`Use --mode=development or --mode=production`)
	}

	base, ok := c.Base[mode]
	if !ok {
		return "", errors.New(errors.CodeUnknownMode).
			WithDetail(`vizsite.json has no base path for mode "` + string(mode) + `".`).
			WithSuggestion(`Add "base": {"` + string(mode) + `": "/your-subpath"} to vizsite.json`)
	}
	if err := routepath.ValidateBase(base); err != nil {
		return "", errors.New(errors.CodeInvalidBasePath).WithDetail(err.Error())
	}
	return base, nil
}

// ModeFromEnv resolves the build mode from an explicit flag value, then
// VIZSITE_MODE, then NODE_ENV. NODE_ENV only ever selects production.
func ModeFromEnv(flag string) Mode {
	if flag != "" {
		return Mode(strings.ToLower(flag))
	}
	if v := os.Getenv("VIZSITE_MODE"); v != "" {
		return Mode(strings.ToLower(v))
	}
	if strings.EqualFold(os.Getenv("NODE_ENV"), string(ModeProduction)) {
		return ModeProduction
	}
	return ModeDevelopment
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Build.Output)
}

// RoutesPath returns the absolute path to the routes directory.
func (c *Config) RoutesPath() string {
	return c.resolve(c.Paths.Routes)
}

// StaticPath returns the absolute path to the static directory.
func (c *Config) StaticPath() string {
	return c.resolve(c.Paths.Static)
}

// WatchPaths returns every directory the dev server watches.
func (c *Config) WatchPaths() []string {
	paths := []string{c.RoutesPath(), c.StaticPath()}
	for _, p := range c.Dev.Watch {
		paths = append(paths, c.resolve(p))
	}
	return paths
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing vizsite.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigMissing).
				WithDetail("No vizsite.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create vizsite.json at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
