package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Drive   DriveConfig   `toml:"drive"`
	OAuth   OAuthConfig   `toml:"oauth"`
	Cache   CacheConfig   `toml:"cache"`
	Batch   BatchConfig   `toml:"batch"`
	Refresh RefreshConfig `toml:"refresh"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	OpenBrowser bool `toml:"open_browser"`
	// StaticDir 前端构建产物目录，相对路径基于可执行文件目录
	StaticDir string `toml:"static_dir"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// DriveConfig 远端目录配置
type DriveConfig struct {
	RootFolderID     string `toml:"root_folder_id"`
	ExcludeSubstring string `toml:"exclude_substring"`
	// CredentialsFile 服务账号 JSON；设置后不走 OAuth 登录
	CredentialsFile string `toml:"credentials_file"`
}

// OAuthConfig Google OAuth2 客户端
type OAuthConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURL  string   `toml:"redirect_url"`
	Scopes       []string `toml:"scopes"`
}

// CacheConfig 状态缓存
type CacheConfig struct {
	TTLMinutes int `toml:"ttl_minutes"`
	MaxEntries int `toml:"max_entries"`
}

// BatchConfig 批量分类
type BatchConfig struct {
	Size int `toml:"size"`
}

// RefreshConfig 后台预热，0 表示关闭
type RefreshConfig struct {
	IntervalMinutes int `toml:"interval_minutes"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
	ConfigPath    string
	ConfigFound   bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			OpenBrowser: true,
			StaticDir:   "web",
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Drive: DriveConfig{
			RootFolderID:     "1Rv4SQ8yutdF71WGOltUoUdFT3eTEmMYA",
			ExcludeSubstring: "servicepoints-techmetria",
		},
		OAuth: OAuthConfig{
			RedirectURL: "http://localhost:20262/api/auth/callback",
		},
		Cache: CacheConfig{
			TTLMinutes: 360,
			MaxEntries: 1000,
		},
		Batch: BatchConfig{
			Size: 5,
		},
		Refresh: RefreshConfig{
			IntervalMinutes: 30,
		},
	}
}

// CacheTTL 缓存有效期
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// RefreshInterval 预热间隔
func (c *AppConfig) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalMinutes) * time.Minute
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func exeDirOrCwd() string {
	exeDir, err := GetExeDir()
	if err != nil {
		return "."
	}
	return exeDir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 与 .env 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir := exeDirOrCwd()
	loadDotEnv(filepath.Join(exeDir, ".env"), ".env")
	return LoadFromFile(filepath.Join(exeDir, "config.toml"))
}

// LoadFromFile 读取指定配置文件；文件不存在时使用默认配置，环境变量始终生效
func LoadFromFile(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{ConfigPath: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.ConfigFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case !os.IsNotExist(err):
		return nil, info, err
	}

	applyEnv(config, &info)
	return config, info, nil
}

// loadDotEnv 依次加载存在的 .env 文件，已存在的环境变量不被覆盖
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// applyEnv 环境变量覆盖（密钥不写入 config.toml）
func applyEnv(config *AppConfig, info *LoadConfigInfo) {
	if v := os.Getenv("IOTMONITOR_CLIENT_ID"); v != "" {
		config.OAuth.ClientID = v
	}
	if v := os.Getenv("IOTMONITOR_CLIENT_SECRET"); v != "" {
		config.OAuth.ClientSecret = v
	}
	if v := os.Getenv("IOTMONITOR_REDIRECT_URL"); v != "" {
		config.OAuth.RedirectURL = v
	}
	if v := os.Getenv("IOTMONITOR_ROOT_FOLDER_ID"); v != "" {
		config.Drive.RootFolderID = v
	}
	if v := os.Getenv("IOTMONITOR_CREDENTIALS_FILE"); v != "" {
		config.Drive.CredentialsFile = v
	}
	if v := os.Getenv("IOTMONITOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
			info.PortSpecified = true
		}
	}
}

// EnsureDataDir 确保数据目录存在，相对路径基于可执行文件目录
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(exeDirOrCwd(), dataDir)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// ResolveStaticDir 前端目录绝对路径，未配置时返回空
func ResolveStaticDir(config *AppConfig) string {
	dir := config.Server.StaticDir
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(exeDirOrCwd(), dir)
}
