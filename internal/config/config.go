package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppFs is the filesystem used for config files, .env files and the data
// directory. Tests swap in afero.NewMemMapFs().
var AppFs = afero.NewOsFs()

const (
	// EnvPrefix prefixes every environment override, e.g. TABLEDESK_DB_PATH.
	EnvPrefix = "TABLEDESK"

	// FileName is the config file base name searched for in the config paths.
	FileName = "tabledesk"

	// DefaultDataDir holds the database file when db_path is not set.
	DefaultDataDir = "all_databas"

	// DefaultDBFile is the database file name inside the data directory.
	DefaultDBFile = "tabledesk.db"
)

// Config keys.
const (
	KeyDBPath        = "db_path"
	KeyDataDir       = "data_dir"
	KeyAllowedTables = "allowed_tables"
	KeyProfilesDir   = "profiles_dir"
	KeyFormat        = "format"
	KeyLogLevel      = "log_level"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":       KeyDBPath,
	"allow":    KeyAllowedTables,
	"profiles": KeyProfilesDir,
	"format":   KeyFormat,
}

// Config holds the resolved application configuration.
type Config struct {
	DBPath        string   `yaml:"db_path" json:"db_path"`
	DataDir       string   `yaml:"data_dir" json:"data_dir"`
	AllowedTables []string `yaml:"allowed_tables" json:"allowed_tables"`
	ProfilesDir   string   `yaml:"profiles_dir" json:"profiles_dir"`
	Format        string   `yaml:"format" json:"format"`
	LogLevel      string   `yaml:"log_level" json:"log_level"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `yaml:"-" json:"config_file,omitempty"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit config file. When set, the search paths are
	// skipped and a missing file is an error.
	ConfigFile string

	// Flags are bound over every other source. Only changed flags win.
	Flags *pflag.FlagSet

	// Dir is where .env files are looked up. Defaults to ".".
	Dir string
}

// Load resolves configuration with precedence flags > env > file > defaults.
//
// .env and then .env.local in Dir are loaded into the process environment
// first; .env never overrides variables that are already set, .env.local does.
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := loadDotEnv(dir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigType("yaml")

	if opts.ConfigFile != "" {
		path, err := homedir.Expand(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("expanding config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", FileName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyDataDir, DefaultDataDir)
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAllowedTables, []string{})

	if opts.Flags != nil {
		for flag, key := range flagKeys {
			if f := opts.Flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		DataDir:       v.GetString(KeyDataDir),
		AllowedTables: splitList(v.GetStringSlice(KeyAllowedTables)),
		ProfilesDir:   v.GetString(KeyProfilesDir),
		Format:        v.GetString(KeyFormat),
		LogLevel:      strings.ToLower(v.GetString(KeyLogLevel)),
		ConfigFile:    v.ConfigFileUsed(),
	}

	dbPath := v.GetString(KeyDBPath)
	if dbPath == "" {
		dbPath = filepath.Join(cfg.DataDir, DefaultDBFile)
	}
	var err error
	if cfg.DBPath, err = homedir.Expand(dbPath); err != nil {
		return nil, fmt.Errorf("expanding db_path: %w", err)
	}
	if cfg.ProfilesDir != "" {
		if cfg.ProfilesDir, err = homedir.Expand(cfg.ProfilesDir); err != nil {
			return nil, fmt.Errorf("expanding profiles_dir: %w", err)
		}
	}

	return cfg, nil
}

// EnsureDataDir creates the directory holding the database file.
func (c *Config) EnsureDataDir() error {
	dir := filepath.Dir(c.DBPath)
	if err := AppFs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return nil
}

// Save writes the file-backed keys of cfg to path as YAML.
func Save(cfg *Config, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	if err := AppFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigType("yaml")
	v.Set(KeyDBPath, cfg.DBPath)
	v.Set(KeyDataDir, cfg.DataDir)
	v.Set(KeyAllowedTables, cfg.AllowedTables)
	v.Set(KeyProfilesDir, cfg.ProfilesDir)
	v.Set(KeyFormat, cfg.Format)
	v.Set(KeyLogLevel, cfg.LogLevel)
	return v.WriteConfigAs(path)
}

// loadDotEnv applies .env then .env.local from dir, when present.
func loadDotEnv(dir string) error {
	if err := applyEnvFile(filepath.Join(dir, ".env"), false); err != nil {
		return err
	}
	return applyEnvFile(filepath.Join(dir, ".env.local"), true)
}

func applyEnvFile(path string, override bool) error {
	f, err := AppFs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); set && !override {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
