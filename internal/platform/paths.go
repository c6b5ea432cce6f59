package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultAppName = "taskboard"

// Paths lists where one taskboard install keeps its config, board data and logs.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	FilePath   string
	LogDir     string
}

// Options selects which install the paths belong to.
type Options struct {
	AppName string
	DevMode bool
}

// baseDirEnv names the variables that relocate the config and data bases on each OS.
var baseDirEnv = map[string]struct{ config, data string }{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// DefaultPaths returns default paths.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: defaultAppName})
}

// DefaultPathsWithOptions resolves paths for the running OS and user.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	configDir, dataDir, err := userBaseDirs(runtime.GOOS)
	if err != nil {
		return Paths{}, err
	}
	env := map[string]string{}
	if names, ok := baseDirEnv[runtime.GOOS]; ok {
		env[names.config] = os.Getenv(names.config)
		env[names.data] = os.Getenv(names.data)
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appDirName(opts))
}

// PathsFor resolves paths for goos from explicit inputs only. appName is used as given.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase, dataBase := userConfigDir, userDataDir
	if names, ok := baseDirEnv[goos]; ok {
		if v := strings.TrimSpace(env[names.config]); v != "" {
			configBase = v
		}
		if v := strings.TrimSpace(env[names.data]); v != "" {
			dataBase = v
		}
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		FilePath:   filepath.Join(dataDir, appName+".json"),
		LogDir:     filepath.Join(dataDir, "log"),
	}, nil
}

// appDirName turns the app name into one directory segment. Dev runs get a
// separate "-dev" tree so they never open a real board.
func appDirName(opts Options) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, strings.TrimSpace(opts.AppName))
	name = strings.Trim(name, "-.")
	if name == "" {
		name = defaultAppName
	}
	if opts.DevMode {
		name += "-dev"
	}
	return name
}

// userBaseDirs returns the per-user config and data bases before env overrides.
// Linux data lives under ~/.local/share; elsewhere it shares the config base.
func userBaseDirs(goos string) (string, string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("user config dir: %w", err)
	}
	if goos != "linux" {
		return configDir, configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("user home dir: %w", err)
	}
	return configDir, filepath.Join(home, ".local", "share"), nil
}
