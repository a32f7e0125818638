package helpers

import (
	"os"
	"path/filepath"
	"testing"
)

func withConfigDir(t *testing.T) string {
	t.Helper()
	old := ConfigDir
	oldCfg := GlobalConfig
	ConfigDir = t.TempDir()
	t.Cleanup(func() {
		ConfigDir = old
		GlobalConfig = oldCfg
	})
	return ConfigDir
}

func TestInitConfigDefaults(t *testing.T) {
	withConfigDir(t)
	if err := InitConfig(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if GlobalConfig.LanZou.MaxSize != 100 {
		t.Errorf("Expected default max size 100, got %d", GlobalConfig.LanZou.MaxSize)
	}
	if GlobalConfig.LanZou.Host != "https://www.lanzous.com" {
		t.Errorf("Expected default host, got %s", GlobalConfig.LanZou.Host)
	}
}

func TestInitConfigFromFile(t *testing.T) {
	dir := withConfigDir(t)
	content := `
cacheSize: 1024
lanzou:
  maxSize: 200
  rarPath: /usr/bin/rar
  rateLimits:
    /doupload.php: 2
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := InitConfig(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	lc := GlobalConfig.LanZou
	if lc.MaxSize != 200 || lc.RarPath != "/usr/bin/rar" || lc.RateLimits["/doupload.php"] != 2 {
		t.Errorf("Unexpected lanzou config: %+v", lc)
	}
	// 未配置的项保留默认值
	if lc.Timeout != 15 || GlobalConfig.Log.File != "app.log" {
		t.Errorf("Expected defaults kept, got timeout=%d log=%s", lc.Timeout, GlobalConfig.Log.File)
	}
	if GlobalConfig.CacheSize != 1024 {
		t.Errorf("Expected cache size 1024, got %d", GlobalConfig.CacheSize)
	}
}

func TestInitConfigInvalid(t *testing.T) {
	dir := withConfigDir(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("lanzou: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := InitConfig(); err == nil {
		t.Error("Expected parse error")
	}
}

func TestConfigPath(t *testing.T) {
	dir := withConfigDir(t)
	if got := ConfigPath("cookie.json"); got != filepath.Join(dir, "cookie.json") {
		t.Errorf("Expected path under config dir, got %s", got)
	}
	abs := filepath.Join(t.TempDir(), "c.json")
	if got := ConfigPath(abs); got != abs {
		t.Errorf("Expected absolute path kept, got %s", got)
	}
}

func TestLoadEnvFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nLANZOU_TEST_USER=alice\n\nbroken line\nLANZOU_TEST_PWD=a=b\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env: %v", err)
	}
	t.Setenv("LANZOU_TEST_USER", "")
	t.Setenv("LANZOU_TEST_PWD", "")
	if err := LoadEnvFromFile(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if os.Getenv("LANZOU_TEST_USER") != "alice" || os.Getenv("LANZOU_TEST_PWD") != "a=b" {
		t.Errorf("Unexpected env: user=%s pwd=%s", os.Getenv("LANZOU_TEST_USER"), os.Getenv("LANZOU_TEST_PWD"))
	}
	if err := LoadEnvFromFile(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Errorf("Expected missing env file to be ignored, got %v", err)
	}
}
