package helpers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

var Version = "0.1.0"
var ReleaseDate = "2026-10-18"

type configLog struct {
	File   string `yaml:"file"`
	LanZou string `yaml:"lanzou"`
}

type configLanZou struct {
	Host               string         `yaml:"host"`               // 分享页域名
	ConsoleHost        string         `yaml:"consoleHost"`        // 控制台域名
	Timeout            int            `yaml:"timeout"`            // 单次请求超时，单位秒，不含下载响应体
	MaxSize            int            `yaml:"maxSize"`            // 单文件上传上限，单位MB，会员可以调大
	RarPath            string         `yaml:"rarPath"`            // rar 可执行文件路径，留空则不支持分卷
	InsecureSkipVerify bool           `yaml:"insecureSkipVerify"` // 跳过证书校验
	CookieFile         string         `yaml:"cookieFile"`
	DownloadDir        string         `yaml:"downloadDir"`
	RetryDelayMs       int            `yaml:"retryDelayMs"` // 文件夹分页 zt=4 时的等待时间
	RateLimits         map[string]int `yaml:"rateLimits"`   // 路径 => 每秒请求数
}

type Config struct {
	Log       configLog    `yaml:"log"`
	CacheSize int          `yaml:"cacheSize"` // 内存缓存大小，单位字节
	LanZou    configLanZou `yaml:"lanzou"`
}

var GlobalConfig = DefaultConfig()
var ConfigDir = defaultConfigDir()

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "lanzou-go")
	}
	return "config"
}

func DefaultConfig() Config {
	return Config{
		Log: configLog{
			File:   "app.log",
			LanZou: "lanzou.log",
		},
		CacheSize: 4 * 1024 * 1024,
		LanZou: configLanZou{
			Host:               "https://www.lanzous.com",
			ConsoleHost:        "https://pc.woozooo.com",
			Timeout:            15,
			MaxSize:            100,
			InsecureSkipVerify: true,
			CookieFile:         "cookie.json",
			DownloadDir:        "./Download",
			RetryDelayMs:       1000,
		},
	}
}

func InitConfig() error {
	configPath := filepath.Join(ConfigDir, "config.yaml")
	cfg := DefaultConfig()
	if err := loadYaml(configPath, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			AppLogger.Infof("配置文件不存在，使用默认配置: %s", configPath)
			GlobalConfig = cfg
			return nil
		}
		return err
	}
	GlobalConfig = cfg
	return nil
}

// ConfigPath 把相对路径解析到配置目录下
func ConfigPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(ConfigDir, name)
}

func LoadEnvFromFile(envPath string) error {
	f, err := os.Open(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		os.Setenv(key, line[idx+1:])
	}

	return scanner.Err()
}

func loadYaml(configPath string, cfg interface{}) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	return nil
}
