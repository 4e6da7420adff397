package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for a
// config file.
const maxUpwardSearchLevels = 10

func configIn(dir string) string {
	for _, name := range []string{"cascade.yaml", "cascade.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFile resolves the config file to use. An explicit path wins;
// otherwise search upward from the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load reads configuration with the precedence flags > env vars > config
// file > defaults. The cfgFile argument may be empty, in which case
// cascade.yaml is searched upward from the working directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"models_dir":       DefaultModelsDir,
		"target_dir":       DefaultTargetDir,
		"verbose":          false,
		"database.host":    "localhost",
		"database.port":    5432,
		"database.sslmode": "disable",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	cfgFile = findConfigFile(cfgFile)
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// CASCADE_DATABASE_PASSWORD -> database.password
	if err := k.Load(env.Provider("CASCADE_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "CASCADE_"))
		if rest, ok := strings.CutPrefix(key, "database_"); ok {
			return "database." + rest
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfg.ProjectRoot = filepath.Dir(abs)
		}
	}
	if cfg.ProjectRoot == "" {
		cwd, _ := os.Getwd()
		if cwd == "" {
			cwd = "."
		}
		cfg.ProjectRoot = cwd
	}

	cfg.ModelsDir = resolvePath(cfg.ModelsDir, cfg.ProjectRoot)
	cfg.TargetDir = resolvePath(cfg.TargetDir, cfg.ProjectRoot)

	cfg.Database.Password = expandEnvVars(cfg.Database.Password)
	cfg.Database.Username = expandEnvVars(cfg.Database.Username)
	cfg.Database.Host = expandEnvVars(cfg.Database.Host)
	cfg.Database.Database = expandEnvVars(cfg.Database.Database)

	if cfg.Database.Database == "" {
		return nil, fmt.Errorf("database.database is required")
	}

	return &cfg, nil
}

func resolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as-is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
