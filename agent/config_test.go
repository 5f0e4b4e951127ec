package agent

import (
	"errors"
	"github.com/Leantar/pollwatch/modules/config"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher.yaml")
	conf := Config{
		Settings: Settings{
			Database:  "/var/lib/pollwatch/watcher.db",
			Recursive: true,
			Worker:    "make -C /srv/site",
			Checksum:  "xxhash",
		},
		// Deliberately not sorted
		WatchList: WatchList{"/srv/z", "/srv/a b", "/srv/m:n"},
	}

	if err := SaveConfig(path, conf); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, conf) {
		t.Errorf("got %+v, want %+v", got, conf)
	}
}

func TestWatchListForms(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"mapping", "WatchList:\n  /srv/b:\n  /srv/a:\n"},
		{"sequence", "WatchList:\n  - /srv/b\n  - /srv/a\n  - /srv/b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "watcher.yaml")
			body := "Settings:\n  Database: /tmp/watcher.db\n  Recursive: false\n  Worker: echo\n" + tt.body
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}

			conf, err := LoadConfig(path)
			if err != nil {
				t.Fatal(err)
			}
			if want := (WatchList{"/srv/b", "/srv/a"}); !reflect.DeepEqual(conf.WatchList, want) {
				t.Errorf("WatchList = %v, want %v", conf.WatchList, want)
			}
		})
	}
}

func TestWatchListWrittenAsMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher.yaml")
	conf := Config{
		Settings:  Settings{Database: "/tmp/watcher.db", Worker: "echo"},
		WatchList: WatchList{"/srv/a"},
	}
	if err := SaveConfig(path, conf); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "WatchList:\n  /srv/a:") {
		t.Errorf("unexpected config layout:\n%s", content)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Settings:  Settings{Database: "/tmp/watcher.db", Worker: "echo"},
		WatchList: WatchList{"/srv/a"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no database", func(c *Config) { c.Settings.Database = "" }},
		{"no worker", func(c *Config) { c.Settings.Worker = " " }},
		{"bad checksum", func(c *Config) { c.Settings.Checksum = "sha1" }},
		{"relative path", func(c *Config) { c.WatchList = append(c.WatchList, "srv/b") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := valid
			conf.WatchList = append(WatchList(nil), valid.WatchList...)
			tt.mutate(&conf)

			if err := conf.Validate(); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadConfigRejectsLowercaseKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher.yaml")
	body := "settings:\n  database: /tmp/watcher.db\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected lowercase keys to be rejected")
	}
}

func TestResolveWatchList(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "target")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing")

	list, err := ResolveWatchList([]string{link, target, missing})
	if err != nil {
		t.Fatal(err)
	}
	if want := (WatchList{target, missing}); !reflect.DeepEqual(list, want) {
		t.Errorf("got %v, want %v", list, want)
	}

	t.Chdir(dir)
	list, err = ResolveWatchList([]string{"target"})
	if err != nil {
		t.Fatal(err)
	}
	if want := (WatchList{target}); !reflect.DeepEqual(list, want) {
		t.Errorf("relative path: got %v, want %v", list, want)
	}
}
