package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper" // 导入 Viper
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL         MySQLConfig         `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AliyunOSS     AliyunOSSConfig     `mapstructure:"aliyun_oss"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Log           LogConfig           `mapstructure:"log"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Share         ShareConfig         `mapstructure:"share"`
	Upload        UploadConfig        `mapstructure:"upload"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	CORS          CORSConfig          `mapstructure:"cors"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release / test
	// 分享链接前缀，例如 https://voice.example.com ，为空时按请求的 Host 拼接
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
	// 播放票据有效期，元数据接口签发，音频接口凭票不再重复计数
	PlaybackTicketTTL time.Duration `mapstructure:"playback_ticket_ttl"`
}

type StorageConfig struct {
	Type string `mapstructure:"type"` // minio / aliyun_oss
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// ShareConfig 分享链接的默认值与上下限
type ShareConfig struct {
	DefaultMaxPlays   int `mapstructure:"default_max_plays"`
	MaxMaxPlays       int `mapstructure:"max_max_plays"`
	DefaultExpiryDays int `mapstructure:"default_expiry_days"`
	MaxExpiryDays     int `mapstructure:"max_expiry_days"`
}

// UploadConfig 录音上传限制
type UploadConfig struct {
	MaxFileSize      int64 `mapstructure:"max_file_size"`      // 字节
	MaxAudioDuration int   `mapstructure:"max_audio_duration"` // 秒
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SetDefaults 注册所有默认值，配置文件和环境变量会覆盖它们
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.auto_migrate", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("minio.bucket_name", "voice-snippets")
	v.SetDefault("storage.type", "minio")
	v.SetDefault("jwt.expires_in", 24*time.Hour)
	v.SetDefault("jwt.issuer", "securevoice")
	v.SetDefault("jwt.playback_ticket_ttl", 15*time.Minute)
	v.SetDefault("log.output_path", "logs/app.log")
	v.SetDefault("log.error_path", "logs/error.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.index", "voice-snippets")
	v.SetDefault("share.default_max_plays", 5)
	v.SetDefault("share.max_max_plays", 100)
	v.SetDefault("share.default_expiry_days", 7)
	v.SetDefault("share.max_expiry_days", 30)
	v.SetDefault("upload.max_file_size", 25*1024*1024)
	v.SetDefault("upload.max_audio_duration", 300)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

// LoadConfig 从默认搜索路径加载配置
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // 配置文件名 (不带扩展名)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/securevoice/")
	return load(v)
}

// LoadConfigFile 加载指定路径的配置文件，主要给命令行工具和测试使用
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// 环境变量名自动转换为大写，并用下划线替换点
	// 例如：SECUREVOICE_MYSQL_DSN 对应 mysql.dsn
	v.SetEnvPrefix("SECUREVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// 配置文件未找到不是致命错误，可以只依赖环境变量和默认值
		log.Println("Warning: config file not found, using environment variables and defaults.")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Println("Configuration loaded successfully with Viper.")
	return cfg, nil
}

// Validate 检查互相依赖的配置项
func (c *Config) Validate() error {
	if c.Share.DefaultMaxPlays < 1 || c.Share.DefaultMaxPlays > c.Share.MaxMaxPlays {
		return errors.New("share.default_max_plays must be between 1 and share.max_max_plays")
	}
	if c.Share.DefaultExpiryDays < 1 || c.Share.DefaultExpiryDays > c.Share.MaxExpiryDays {
		return errors.New("share.default_expiry_days must be between 1 and share.max_expiry_days")
	}
	switch c.Storage.Type {
	case "minio", "aliyun_oss":
	default:
		return errors.New("storage.type must be minio or aliyun_oss")
	}
	return nil
}
