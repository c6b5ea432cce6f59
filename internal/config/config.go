package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Backend names a storage implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
)

type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	File     FileConfig     `toml:"file"`
	Redis    RedisConfig    `toml:"redis"`
	Board    BoardConfig    `toml:"board"`
	UI       UIConfig       `toml:"ui"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Keys     KeyConfig      `toml:"keys"`
}

type StorageConfig struct {
	Backend Backend `toml:"backend"`
	Key     string  `toml:"key"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type FileConfig struct {
	Path string `toml:"path"`
}

type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	Namespace string `toml:"namespace"`
}

type BoardConfig struct {
	Columns []ColumnConfig `toml:"columns"`
}

type ColumnConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

type UIConfig struct {
	Theme string `toml:"theme"` // dark | light
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the rotating log file written in dev mode.
type DevFileConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// KeyConfig holds optional key overrides. Blank fields keep the built-in binding.
type KeyConfig struct {
	AddTask     string `toml:"add_task"`
	EditTask    string `toml:"edit_task"`
	RemoveTask  string `toml:"remove_task"`
	Grab        string `toml:"grab"`
	TaskInfo    string `toml:"task_info"`
	CopyTask    string `toml:"copy_task"`
	ToggleTheme string `toml:"toggle_theme"`
	ActivityLog string `toml:"activity_log"`
}

func defaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{ID: "todo", Name: "To Do"},
		{ID: "doing", Name: "Doing"},
		{ID: "done", Name: "Done"},
	}
}

// Default returns the built-in configuration for the given sqlite and file store paths.
func Default(dbPath, filePath string) Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Key:     "tasks",
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		File: FileConfig{
			Path: filePath,
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			Namespace: "taskboard",
		},
		Board: BoardConfig{
			Columns: defaultColumns(),
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8787",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled:    true,
				Dir:        ".taskboard/log",
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// A [[board.columns]] list in the file replaces the defaults instead of extending them.
	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if len(cfg.Board.Columns) == 0 {
		cfg.Board.Columns = append([]ColumnConfig(nil), defaults.Board.Columns...)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// normalize trims string fields and lowercases enum-like values.
func (c *Config) normalize() {
	c.Storage.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Storage.Backend))))
	c.Storage.Key = strings.TrimSpace(c.Storage.Key)
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.File.Path = strings.TrimSpace(c.File.Path)
	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
	c.Redis.Namespace = strings.TrimSpace(c.Redis.Namespace)
	for idx := range c.Board.Columns {
		c.Board.Columns[idx].ID = strings.TrimSpace(c.Board.Columns[idx].ID)
		c.Board.Columns[idx].Name = strings.TrimSpace(c.Board.Columns[idx].Name)
	}
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database.path is required for the sqlite backend")
		}
	case BackendFile:
		if strings.TrimSpace(c.File.Path) == "" {
			return errors.New("file.path is required for the file backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("redis.addr is required for the redis backend")
		}
		if strings.TrimSpace(c.Redis.Namespace) == "" {
			return errors.New("redis.namespace is required for the redis backend")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("redis.db must be >= 0")
		}
	default:
		return fmt.Errorf("invalid storage.backend: %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}

	if len(c.Board.Columns) == 0 {
		return errors.New("board.columns must include at least one column")
	}
	seen := map[string]struct{}{}
	for idx, column := range c.Board.Columns {
		id := strings.TrimSpace(column.ID)
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if strings.TrimSpace(column.Name) == "" {
			return fmt.Errorf("board.columns[%d].name is required", idx)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s", idx, id)
		}
		seen[id] = struct{}{}
	}

	switch strings.ToLower(strings.TrimSpace(c.UI.Theme)) {
	case "", "dark", "light":
	default:
		return fmt.Errorf("invalid ui.theme: %q", c.UI.Theme)
	}

	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.MaxSizeMB < 0 || c.Logging.DevFile.MaxBackups < 0 || c.Logging.DevFile.MaxAgeDays < 0 {
		return errors.New("logging.dev_file limits must be >= 0")
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
