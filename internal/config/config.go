package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // PostgreSQL配置
	Crawler  CrawlerConfig  `mapstructure:"crawler"`  // 爬虫策略配置
	Browser  BrowserConfig  `mapstructure:"browser"`  // 无头浏览器配置
	Batch    BatchConfig    `mapstructure:"batch"`    // 批量调度配置
	Vision   VisionConfig   `mapstructure:"vision"`   // 图片结构化提取配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// CrawlerConfig 爬虫策略配置（各阈值均为经验值，按站点行为调整）
type CrawlerConfig struct {
	NavTimeoutSec      int     `mapstructure:"nav_timeout_sec"`       // 页面导航超时（秒）
	RequiredWaitSec    int     `mapstructure:"required_wait_sec"`     // 必选API等待上限（秒）
	OptionalWaitSec    int     `mapstructure:"optional_wait_sec"`     // 可选API等待上限（秒）
	OptionalMinWaitSec int     `mapstructure:"optional_min_wait_sec"` // 可选API最短等待（秒）
	PollIntervalMs     int     `mapstructure:"poll_interval_ms"`      // 拦截器轮询间隔（毫秒）
	HTTPTimeoutSec     int     `mapstructure:"http_timeout_sec"`      // 浏览器外HTTP请求超时（秒）
	RetryCount         int     `mapstructure:"retry_count"`           // HTTP/入库重试次数
	CommentPageSize    int     `mapstructure:"comment_page_size"`     // 评论分页大小
	CommentMaxPages    int     `mapstructure:"comment_max_pages"`     // 评论分页安全上限
	ProductPageSize    int     `mapstructure:"product_page_size"`     // 商品分页大小
	ProductMaxPages    int     `mapstructure:"product_max_pages"`     // 商品分页安全上限
	DomFallbackRatio   float64 `mapstructure:"dom_fallback_ratio"`    // API分页不足该比例时启用DOM兜底
	ScrollMaxAttempts  int     `mapstructure:"scroll_max_attempts"`   // 商品列表滚动次数上限
	ScrollStableRounds int     `mapstructure:"scroll_stable_rounds"`  // 连续多少轮数量不变视为加载完
	ScrollIntervalMs   int     `mapstructure:"scroll_interval_ms"`    // 滚动间隔（毫秒）
	ChatSampling       string  `mapstructure:"chat_sampling"`         // 聊天采样策略：odd/none
	UserAgent          string  `mapstructure:"user_agent"`            // 请求UA
	Proxy              string  `mapstructure:"proxy"`                 // 代理地址
}

// BrowserConfig 无头浏览器配置
type BrowserConfig struct {
	Headless bool `mapstructure:"headless"`  // 是否无头模式
	PoolSize int  `mapstructure:"pool_size"` // 浏览器上下文池大小
}

// BatchConfig 批量调度配置
type BatchConfig struct {
	Concurrency    int    `mapstructure:"concurrency"`     // 并发爬取数
	ChunkSize      int    `mapstructure:"chunk_size"`      // 每块URL数（每块完成后保存断点）
	CheckpointPath string `mapstructure:"checkpoint_path"` // 断点文件路径
	OutputDir      string `mapstructure:"output_dir"`      // 非入库模式的JSON输出目录
}

// VisionConfig 图片结构化提取配置
type VisionConfig struct {
	Enabled    bool   `mapstructure:"enabled"`     // 是否启用
	Strategy   string `mapstructure:"strategy"`    // 策略：pattern/semantic/vision/hybrid
	Endpoint   string `mapstructure:"endpoint"`    // 视觉模型API地址
	APIKey     string `mapstructure:"api_key"`     // API密钥
	Model      string `mapstructure:"model"`       // 模型名称
	TimeoutSec int    `mapstructure:"timeout_sec"` // 单次调用超时（秒）
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("VISION_API_KEY"); v != "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("CRAWLER_PROXY"); v != "" {
		cfg.Crawler.Proxy = v
	}
}

// ApplyDefaults 关键策略参数的兜底值（yaml缺省时）
func ApplyDefaults(cfg *Config) {
	if cfg.Crawler.NavTimeoutSec <= 0 {
		cfg.Crawler.NavTimeoutSec = 60
	}
	if cfg.Crawler.RequiredWaitSec <= 0 {
		cfg.Crawler.RequiredWaitSec = 20
	}
	if cfg.Crawler.OptionalWaitSec <= 0 {
		cfg.Crawler.OptionalWaitSec = 15
	}
	if cfg.Crawler.OptionalMinWaitSec <= 0 {
		cfg.Crawler.OptionalMinWaitSec = 3
	}
	if cfg.Crawler.PollIntervalMs <= 0 {
		cfg.Crawler.PollIntervalMs = 200
	}
	if cfg.Crawler.HTTPTimeoutSec <= 0 {
		cfg.Crawler.HTTPTimeoutSec = 15
	}
	if cfg.Crawler.RetryCount <= 0 {
		cfg.Crawler.RetryCount = 3
	}
	if cfg.Crawler.CommentPageSize <= 0 {
		cfg.Crawler.CommentPageSize = 50
	}
	if cfg.Crawler.CommentMaxPages <= 0 {
		cfg.Crawler.CommentMaxPages = 50
	}
	if cfg.Crawler.ProductPageSize <= 0 {
		cfg.Crawler.ProductPageSize = 50
	}
	if cfg.Crawler.ProductMaxPages <= 0 {
		cfg.Crawler.ProductMaxPages = 20
	}
	if cfg.Crawler.DomFallbackRatio <= 0 {
		cfg.Crawler.DomFallbackRatio = 0.9
	}
	if cfg.Crawler.ScrollMaxAttempts <= 0 {
		cfg.Crawler.ScrollMaxAttempts = 30
	}
	if cfg.Crawler.ScrollStableRounds <= 0 {
		cfg.Crawler.ScrollStableRounds = 5
	}
	if cfg.Crawler.ScrollIntervalMs <= 0 {
		cfg.Crawler.ScrollIntervalMs = 500
	}
	if cfg.Crawler.ChatSampling == "" {
		cfg.Crawler.ChatSampling = "odd"
	}
	if cfg.Browser.PoolSize <= 0 {
		cfg.Browser.PoolSize = 2
	}
	if cfg.Batch.Concurrency <= 0 {
		cfg.Batch.Concurrency = 3
	}
	if cfg.Batch.ChunkSize <= 0 {
		cfg.Batch.ChunkSize = 10
	}
	if cfg.Batch.CheckpointPath == "" {
		cfg.Batch.CheckpointPath = "./checkpoint.json"
	}
	if cfg.Batch.OutputDir == "" {
		cfg.Batch.OutputDir = "./output"
	}
	if cfg.Vision.Strategy == "" {
		cfg.Vision.Strategy = "hybrid"
	}
	if cfg.Vision.TimeoutSec <= 0 {
		cfg.Vision.TimeoutSec = 30
	}
}
