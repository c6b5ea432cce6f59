package platform

import (
	"path/filepath"
	"testing"
)

func TestPathsForPerOS(t *testing.T) {
	cases := []struct {
		name       string
		goos       string
		env        map[string]string
		configBase string
		dataBase   string
	}{
		{
			name:       "linux honors XDG",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			configBase: "/xdg/config",
			dataBase:   "/xdg/data",
		},
		{
			name:       "linux without XDG",
			goos:       "linux",
			env:        map[string]string{},
			configBase: "/fallback/config",
			dataBase:   "/fallback/data",
		},
		{
			name:       "windows uses APPDATA",
			goos:       "windows",
			env:        map[string]string{"APPDATA": `C:\Users\me\AppData\Roaming`, "LOCALAPPDATA": `C:\Users\me\AppData\Local`},
			configBase: `C:\Users\me\AppData\Roaming`,
			dataBase:   `C:\Users\me\AppData\Local`,
		},
		{
			name:       "darwin ignores XDG",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored", "XDG_DATA_HOME": "/ignored"},
			configBase: "/fallback/config",
			dataBase:   "/fallback/data",
		},
		{
			name:       "unknown os falls back",
			goos:       "plan9",
			env:        nil,
			configBase: "/fallback/config",
			dataBase:   "/fallback/data",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := PathsFor(tc.goos, tc.env, "/fallback/config", "/fallback/data", "taskboard")
			if err != nil {
				t.Fatalf("PathsFor() error = %v", err)
			}
			if want := filepath.Join(tc.configBase, "taskboard", "config.toml"); p.ConfigPath != want {
				t.Fatalf("unexpected config path %q, want %q", p.ConfigPath, want)
			}
			dataDir := filepath.Join(tc.dataBase, "taskboard")
			if p.DataDir != dataDir {
				t.Fatalf("unexpected data dir %q", p.DataDir)
			}
			if p.DBPath != filepath.Join(dataDir, "taskboard.db") {
				t.Fatalf("unexpected db path %q", p.DBPath)
			}
			if p.FilePath != filepath.Join(dataDir, "taskboard.json") {
				t.Fatalf("unexpected file store path %q", p.FilePath)
			}
			if p.LogDir != filepath.Join(dataDir, "log") {
				t.Fatalf("unexpected log dir %q", p.LogDir)
			}
		})
	}
}

func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", "taskboard"); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("linux", nil, "/cfg", "/data", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

func TestDefaultPathsWithOptionsDevMode(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{AppName: "taskboard", DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "taskboard-dev" {
		t.Fatalf("expected dev config dir suffix, got %q", p.ConfigPath)
	}
	if filepath.Base(p.DBPath) != "taskboard-dev.db" || filepath.Base(p.FilePath) != "taskboard-dev.json" {
		t.Fatalf("expected dev store names, got %q %q", p.DBPath, p.FilePath)
	}
}

func TestAppDirName(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{opts: Options{}, want: "taskboard"},
		{opts: Options{AppName: "  team/board "}, want: "team-board"},
		{opts: Options{AppName: `C:\boards`}, want: "C--boards"},
		{opts: Options{AppName: "../"}, want: "taskboard"},
		{opts: Options{AppName: "work", DevMode: true}, want: "work-dev"},
	}
	for _, tc := range cases {
		if got := appDirName(tc.opts); got != tc.want {
			t.Fatalf("appDirName(%+v) = %q, want %q", tc.opts, got, tc.want)
		}
	}
}
