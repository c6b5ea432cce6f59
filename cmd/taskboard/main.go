package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	serveradapter "github.com/hylla/taskboard/internal/adapters/server"
	servercommon "github.com/hylla/taskboard/internal/adapters/server/common"
	"github.com/hylla/taskboard/internal/adapters/storage/file"
	redisstore "github.com/hylla/taskboard/internal/adapters/storage/redis"
	"github.com/hylla/taskboard/internal/adapters/storage/sqlite"
	"github.com/hylla/taskboard/internal/app"
	"github.com/hylla/taskboard/internal/config"
	"github.com/hylla/taskboard/internal/platform"
	"github.com/hylla/taskboard/internal/tui"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(ctx context.Context, m tea.Model) program {
	return tea.NewProgram(m, tea.WithContext(ctx))
}

var serveCommandRunner = serveradapter.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		// fang has already rendered the error.
		os.Exit(1)
	}
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	logLevel   string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{appName: "taskboard", devMode: version == "dev"}
	if envApp := strings.TrimSpace(os.Getenv("TASKBOARD_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("TASKBOARD_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "A three-column kanban board for the terminal",
		Long:          "taskboard keeps To Do, Doing and Done cards in local storage and lets you move them with keys or the mouse.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug|info|warn|error|fatal)")

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Open the board (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runTUI(cmd.Context(), opts, stderr)
			},
		},
		newServeCommand(opts, stderr),
		newExportCommand(opts, stdout, stderr),
		newImportCommand(opts, stderr),
		newPathsCommand(opts, stdout),
	)
	return root
}

func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			configPath, dbPath := resolveConfigAndDB(opts, paths)
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(stdout, "file: %s\n", paths.FilePath)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(opts, stderr)
			if err != nil {
				return err
			}
			defer env.Close()

			serverCfg := serveradapter.Config{
				HTTPBind:      firstNonEmpty(httpBind, env.cfg.Server.HTTPBind),
				APIEndpoint:   firstNonEmpty(apiEndpoint, env.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonEmpty(mcpEndpoint, env.cfg.Server.MCPEndpoint),
				ServerName:    opts.appName,
				ServerVersion: version,
			}
			env.logger.Info("command flow start", "command", "serve", "http", serverCfg.HTTPBind, "api", serverCfg.APIEndpoint, "mcp", serverCfg.MCPEndpoint)
			err = serveCommandRunner(cmd.Context(), serverCfg, serveradapter.Dependencies{
				Board: servercommon.NewAppServiceAdapter(env.svc),
			})
			if err != nil {
				env.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			env.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint")
	return cmd
}

func newExportCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(opts, stderr)
			if err != nil {
				return err
			}
			defer env.Close()

			snap, err := env.svc.ExportSnapshot(cmd.Context())
			if err != nil {
				env.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("export snapshot: %w", err)
			}
			if err := writeSnapshot(snap, outPath, stdout); err != nil {
				return err
			}
			env.logger.Info("command flow complete", "command", "export", "tasks", len(snap.Tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func newImportCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the stored tasks with a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var snap app.Snapshot
			if err := json.Unmarshal(content, &snap); err != nil {
				return fmt.Errorf("decode snapshot json: %w", err)
			}

			env, err := openRuntime(opts, stderr)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.svc.ImportSnapshot(cmd.Context(), snap); err != nil {
				env.logger.Error("command flow failed", "command", "import", "err", err)
				return fmt.Errorf("import snapshot: %w", err)
			}
			env.logger.Info("command flow complete", "command", "import", "tasks", len(snap.Tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

func runTUI(ctx context.Context, opts *rootOptions, stderr io.Writer) error {
	env, err := openRuntime(opts, stderr)
	if err != nil {
		return err
	}
	defer env.Close()
	// Runtime logs stay in the dev-file sink while the board owns the terminal.
	env.logger.SetConsoleEnabled(false)

	m := tui.NewModel(
		env.svc,
		tui.WithTheme(env.cfg.UI.Theme),
		tui.WithKeyConfig(toTUIKeyConfig(env.cfg.Keys)),
	)
	env.logger.Info("starting tui program loop")
	if _, err := programFactory(ctx, m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

// runtimeEnv is everything a command needs once config is resolved and storage is open.
type runtimeEnv struct {
	cfg    config.Config
	logger *runtimeLogger
	store  app.Store
	svc    *app.Service
}

// openRuntime resolves paths and config, configures logging and opens the configured store.
func openRuntime(opts *rootOptions, stderr io.Writer) (*runtimeEnv, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	configPath, dbPath := resolveConfigAndDB(opts, paths)
	dbOverridden := strings.TrimSpace(opts.dbPath) != "" || strings.TrimSpace(os.Getenv("TASKBOARD_DB_PATH")) != ""

	cfg, err := config.Load(configPath, config.Default(dbPath, paths.FilePath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if level := strings.TrimSpace(opts.logLevel); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, paths.LogDir, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Info("configuration loaded", "app", opts.appName, "dev_mode", opts.devMode, "config_path", configPath, "backend", cfg.Storage.Backend, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	svc := app.NewService(store, uuid.NewString, time.Now, app.ServiceConfig{
		StorageKey: cfg.Storage.Key,
		Columns:    columnTemplates(cfg.Board.Columns),
		Warner:     logger,
	})
	logger.Debug("application service initialized", "storage_key", cfg.Storage.Key, "columns", len(cfg.Board.Columns))
	return &runtimeEnv{cfg: cfg, logger: logger, store: store, svc: svc}, nil
}

// Close releases the store and the log sink.
func (e *runtimeEnv) Close() {
	if e == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.logger.Warn("store close failed", "backend", e.cfg.Storage.Backend, "err", err)
	}
	_ = e.logger.Close()
}

// openStore opens the backend named by cfg.Storage.Backend.
func openStore(cfg config.Config, logger *runtimeLogger) (app.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		logger.Info("opening file store", "path", cfg.File.Path)
		store, err := file.Open(cfg.File.Path)
		if err != nil {
			logger.Error("file store open failed", "path", cfg.File.Path, "err", err)
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil
	case config.BackendRedis:
		logger.Info("opening redis store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB, "namespace", cfg.Redis.Namespace)
		store, err := redisstore.NewStore(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Namespace)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
		repo, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		return repo, nil
	}
}

func resolvePaths(opts *rootOptions) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
}

// resolveConfigAndDB applies flag, then env, then platform defaults.
func resolveConfigAndDB(opts *rootOptions, paths platform.Paths) (string, string) {
	configPath := firstNonEmpty(opts.configPath, os.Getenv("TASKBOARD_CONFIG"), paths.ConfigPath)
	dbPath := firstNonEmpty(opts.dbPath, os.Getenv("TASKBOARD_DB_PATH"), paths.DBPath)
	return configPath, dbPath
}

func writeSnapshot(snap app.Snapshot, outPath string, stdout io.Writer) error {
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func columnTemplates(columns []config.ColumnConfig) []app.ColumnTemplate {
	out := make([]app.ColumnTemplate, 0, len(columns))
	for _, column := range columns {
		out = append(out, app.ColumnTemplate{ID: column.ID, Name: column.Name})
	}
	return out
}

func toTUIKeyConfig(keys config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		AddTask:     keys.AddTask,
		EditTask:    keys.EditTask,
		RemoveTask:  keys.RemoveTask,
		Grab:        keys.Grab,
		TaskInfo:    keys.TaskInfo,
		CopyTask:    keys.CopyTask,
		ToggleTheme: keys.ToggleTheme,
		ActivityLog: keys.ActivityLog,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}

// parseBoolEnv reports the parsed value and whether name held a valid bool.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
