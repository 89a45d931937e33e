package config

import (
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/validate"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	toml "github.com/pelletier/go-toml/v2"
)

// Catalog document sources.
const (
	SourceHTTP = "http"
	SourceGit  = "git"
	SourceFile = "file"
)

var repoSlugRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// AppConfig holds the application configuration settings.
type AppConfig struct {
	Paths   PathConfig    `toml:"paths"`
	Docker  DockerConfig  `toml:"docker"`
	Catalog CatalogConfig `toml:"catalog"`
	UI      UIConfig      `toml:"ui"`

	// Runtime-only values, not saved to TOML
	Arch     string `toml:"-"`
	BaseDir  string `toml:"-"`
	CacheDir string `toml:"-"`
}

// PathConfig holds directory path settings.
type PathConfig struct {
	BaseFolder  string `toml:"base_folder"`
	CacheFolder string `toml:"cache_folder"`
}

// DockerConfig holds deployment defaults.
type DockerConfig struct {
	Network   string `toml:"network"`
	PortRange string `toml:"port_range"`
	Registry  string `toml:"registry"`
}

// CatalogConfig selects where the application list comes from and how long it is cached.
type CatalogConfig struct {
	Source            string `toml:"source"`
	URL               string `toml:"url"`
	GitHubRepo        string `toml:"github_repo"`
	GitHubBranch      string `toml:"github_branch"`
	GitHubToken       string `toml:"github_token"`
	CacheTTL          int    `toml:"cache_ttl"`
	ProbeRepositories bool   `toml:"probe_repositories"`
	MaxRetries        int    `toml:"max_retries"`
}

// UIConfig holds user interface related settings.
type UIConfig struct {
	LineCharacters bool `toml:"line_characters"`
}

// TTL returns the catalog cache TTL as a duration.
func (c CatalogConfig) TTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// DocumentURL returns the configured document URL, or the raw GitHub URL
// derived from the repository and branch.
func (c CatalogConfig) DocumentURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", c.GitHubRepo, c.GitHubBranch, constants.CatalogFileName)
}

// RepositoryURL returns the clone URL of the catalog repository.
func (c CatalogConfig) RepositoryURL() string {
	return fmt.Sprintf("https://github.com/%s.git", c.GitHubRepo)
}

// PortBounds returns the parsed port range.
func (d DockerConfig) PortBounds() (int, int, error) {
	return validate.ParsePortRange(d.PortRange)
}

// Defaults returns the configuration used when no file exists.
func Defaults() AppConfig {
	return AppConfig{
		Paths: PathConfig{
			BaseFolder:  "${HOME}/.easy-docker-deploy",
			CacheFolder: "${XDG_CACHE_HOME}/easydockerdeploy",
		},
		Docker: DockerConfig{
			Network:   "easy-docker-deploy",
			PortRange: "8000-9000",
			Registry:  "docker.io",
		},
		Catalog: CatalogConfig{
			Source:       SourceHTTP,
			GitHubRepo:   "awesome-selfhosted/awesome-selfhosted",
			GitHubBranch: "master",
			CacheTTL:     3600,
		},
		UI: UIConfig{
			LineCharacters: true,
		},
	}
}

// getArch returns the CPU architecture (x86_64 or aarch64).
func getArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return runtime.GOARCH
	}
}

// ExpandVariables expands environment variables in the config values.
// It supports:
// - ${XDG_CONFIG_HOME} -> xdg.ConfigHome
// - ${XDG_DATA_HOME}   -> xdg.DataHome
// - ${XDG_STATE_HOME}  -> xdg.StateHome
// - ${XDG_CACHE_HOME}  -> xdg.CacheHome
// - ${HOME}            -> os.UserHomeDir()
// - ${USER}            -> Current username
// Any other variable is read from the environment.
func ExpandVariables(val string) string {
	mapper := func(varName string) string {
		switch varName {
		case "XDG_CONFIG_HOME":
			return xdg.ConfigHome
		case "XDG_DATA_HOME":
			return xdg.DataHome
		case "XDG_STATE_HOME":
			return xdg.StateHome
		case "XDG_CACHE_HOME":
			return xdg.CacheHome
		case "HOME":
			home, err := os.UserHomeDir()
			if err != nil {
				return ""
			}
			return home
		case "USER":
			u, err := user.Current()
			if err != nil {
				return os.Getenv("USERNAME") // Fallback for Windows
			}
			return u.Username
		}
		return os.Getenv(varName)
	}
	return os.Expand(val, mapper)
}

// LoadAppConfig reads the configuration file, writing the defaults when it
// does not exist yet, then applies environment overrides.
// A file that cannot be decoded is reported and the defaults are used.
func LoadAppConfig() (AppConfig, error) {
	conf := Defaults()
	var loadErr error

	path := paths.GetConfigFilePath()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &conf); err != nil {
			loadErr = fmt.Errorf("invalid configuration file %s: %w", path, err)
			conf = Defaults()
		}
	case os.IsNotExist(err):
		if err := SaveAppConfig(conf); err != nil {
			loadErr = fmt.Errorf("failed to write default configuration %s: %w", path, err)
		}
	default:
		loadErr = fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	if err := applyEnvOverrides(&conf); err != nil && loadErr == nil {
		loadErr = err
	}
	conf.resolve()
	return conf, loadErr
}

func (c *AppConfig) resolve() {
	c.Arch = getArch()
	c.BaseDir = filepath.Clean(ExpandVariables(c.Paths.BaseFolder))
	c.CacheDir = filepath.Clean(ExpandVariables(c.Paths.CacheFolder))
	if c.Paths.CacheFolder == "" {
		c.CacheDir = paths.GetCacheDir()
	}
}

// applyEnvOverrides applies EASY_DOCKER_DEPLOY_* variables on top of the file values.
func applyEnvOverrides(c *AppConfig) error {
	strs := map[string]*string{
		constants.EnvBaseDir:      &c.Paths.BaseFolder,
		constants.EnvNetwork:      &c.Docker.Network,
		constants.EnvPortRange:    &c.Docker.PortRange,
		constants.EnvRegistry:     &c.Docker.Registry,
		constants.EnvGitHubRepo:   &c.Catalog.GitHubRepo,
		constants.EnvGitHubBranch: &c.Catalog.GitHubBranch,
		constants.EnvGitHubToken:  &c.Catalog.GitHubToken,
	}
	for name, field := range strs {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}

	if v, ok := os.LookupEnv(constants.EnvCacheTTL); ok && v != "" {
		ttl, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", constants.EnvCacheTTL, v, err)
		}
		c.Catalog.CacheTTL = ttl
	}
	return nil
}

// Validate checks the values that deployments and the catalog depend on.
func (c AppConfig) Validate() error {
	return validation.Errors{
		"paths":   c.Paths.validate(),
		"docker":  c.Docker.validate(),
		"catalog": c.Catalog.validate(),
	}.Filter()
}

func (p PathConfig) validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BaseFolder, validation.Required),
	)
}

func (d DockerConfig) validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Network, validation.Required, validate.NetworkName),
		validation.Field(&d.PortRange, validation.Required, validation.By(func(value any) error {
			_, _, err := validate.ParsePortRange(value.(string))
			return err
		})),
		validation.Field(&d.Registry, validation.Required),
	)
}

func (cc CatalogConfig) validate() error {
	return validation.ValidateStruct(&cc,
		validation.Field(&cc.Source, validation.Required, validation.In(SourceHTTP, SourceGit, SourceFile)),
		validation.Field(&cc.URL, validation.When(cc.Source == SourceFile, validation.Required)),
		validation.Field(&cc.GitHubRepo, validation.When(cc.Source != SourceFile, validation.Required,
			validation.Match(repoSlugRegex).Error("must be in the form owner/repository"))),
		validation.Field(&cc.GitHubBranch, validation.When(cc.Source != SourceFile, validation.Required)),
		validation.Field(&cc.CacheTTL, validation.Min(0)),
		validation.Field(&cc.MaxRetries, validation.Min(0), validation.Max(10)),
	)
}

// SaveAppConfig writes the configuration to edd.toml.
func SaveAppConfig(conf AppConfig) error {
	path := paths.GetConfigFilePath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(conf)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
