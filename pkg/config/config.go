package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/goliatone/go-instanceselect/pkg/orchestrator"
	"github.com/goliatone/go-instanceselect/pkg/render"
	"github.com/goliatone/go-instanceselect/pkg/renderers/vanilla"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
)

// EnvPrefix prefixes environment overrides: INSTANCESELECT_STORAGE_DSN sets
// storage.dsn.
const EnvPrefix = "INSTANCESELECT"

// FileName is the config file name looked up (without extension) when no
// explicit path is given.
const FileName = "instanceselect"

// Settings holds the module configuration.
type Settings struct {
	Project             string            `mapstructure:"project"`
	Separators          SeparatorSettings `mapstructure:"separators"`
	Texts               TextSettings      `mapstructure:"texts"`
	MigrateLegacyValues bool              `mapstructure:"migrate_legacy_values"`
	Autocomplete        bool              `mapstructure:"autocomplete"`
	Renderer            string            `mapstructure:"renderer"`
	Presets             string            `mapstructure:"presets"`
	TemplatesDir        string            `mapstructure:"templates_dir"`
	Server              ServerSettings    `mapstructure:"server"`
	Storage             StorageSettings   `mapstructure:"storage"`
}

// SeparatorSettings configures composite value separators.
type SeparatorSettings struct {
	Current string `mapstructure:"current"`
	Legacy  string `mapstructure:"legacy"`
}

// TextSettings overrides placeholder texts shown in the rendered controls.
type TextSettings struct {
	Empty   string `mapstructure:"empty"`
	Deleted string `mapstructure:"deleted"`
	New     string `mapstructure:"new"`
}

// ServerSettings configures the HTTP server of the serve command.
type ServerSettings struct {
	Addr      string `mapstructure:"addr"`
	BasePath  string `mapstructure:"base_path"`
	RoutePath string `mapstructure:"route_path"`
}

// StorageSettings selects the record data store. Driver "memory" loads
// DataFile; "sqlite3" and "postgres" open DSN.
type StorageSettings struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	DataFile     string `mapstructure:"data_file"`
	EnsureSchema bool   `mapstructure:"ensure_schema"`
}

func setDefaults(v *viper.Viper) {
	texts := render.DefaultTexts()
	seps := resolve.DefaultSeparators()

	v.SetDefault("project", "")
	v.SetDefault("separators.current", seps.Current)
	v.SetDefault("separators.legacy", seps.Legacy)
	v.SetDefault("texts.empty", texts.Empty)
	v.SetDefault("texts.deleted", texts.Deleted)
	v.SetDefault("texts.new", texts.New)
	v.SetDefault("migrate_legacy_values", true)
	v.SetDefault("autocomplete", false)
	v.SetDefault("renderer", "vanilla")
	v.SetDefault("presets", "")
	v.SetDefault("templates_dir", "")
	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.route_path", "/instanceselect")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.data_file", "")
	v.SetDefault("storage.ensure_schema", false)
}

// Default returns the settings used when no file or environment overrides
// exist.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = v.Unmarshal(&s)
	return &s
}

// Load reads settings from path, or from instanceselect.{yaml,yml,json} in
// searchPaths (the working directory when none are given) when path is empty.
// A missing file is only an error when path is explicit. Environment
// variables prefixed with INSTANCESELECT_ override both.
func Load(path string, searchPaths ...string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		if len(searchPaths) == 0 {
			searchPaths = []string{"."}
		}
		for _, dir := range searchPaths {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks cross-field constraints.
func (s *Settings) Validate() error {
	if s.Separators.Current == "" || s.Separators.Legacy == "" {
		return errors.New("config: separators.current and separators.legacy are required")
	}
	if s.Separators.Current == s.Separators.Legacy {
		return fmt.Errorf("config: separators must differ, both are %q", s.Separators.Current)
	}
	if bp := s.Server.BasePath; bp != "" && !strings.HasPrefix(bp, "/") {
		return fmt.Errorf("config: server.base_path must start with '/', got: %s", bp)
	}
	switch s.Storage.Driver {
	case "memory":
	case "sqlite3", "postgres":
		if s.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for driver %q", s.Storage.Driver)
		}
	default:
		return fmt.Errorf("config: unsupported storage.driver %q", s.Storage.Driver)
	}
	return nil
}

// SeparatorValues converts the separator settings.
func (s *Settings) SeparatorValues() resolve.Separators {
	return resolve.Separators{Current: s.Separators.Current, Legacy: s.Separators.Legacy}
}

// RenderOptions returns renderer options carrying the configured texts.
func (s *Settings) RenderOptions() render.RenderOptions {
	return render.RenderOptions{Texts: render.Texts{
		Empty:   s.Texts.Empty,
		Deleted: s.Texts.Deleted,
		New:     s.Texts.New,
	}}
}

// VanillaOptions returns the options of the vanilla renderer. A templates
// directory replaces the embedded page template.
func (s *Settings) VanillaOptions() []vanilla.Option {
	if s.TemplatesDir == "" {
		return nil
	}
	return []vanilla.Option{vanilla.WithTemplatesDir(s.TemplatesDir)}
}

// OrchestratorOptions maps the settings onto orchestrator options. Store,
// project and logger are left to the caller.
func (s *Settings) OrchestratorOptions() []orchestrator.Option {
	return []orchestrator.Option{
		orchestrator.WithSeparators(s.SeparatorValues()),
		orchestrator.WithMigration(s.MigrateLegacyValues),
		orchestrator.WithAutocomplete(s.Autocomplete),
		orchestrator.WithDefaultRenderer(s.Renderer),
		orchestrator.WithRenderOptions(s.RenderOptions()),
		orchestrator.WithVanillaOptions(s.VanillaOptions()...),
	}
}
