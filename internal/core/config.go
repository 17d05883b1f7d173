package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig `mapstructure:"crawl"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Output  OutputConfig       `mapstructure:"output"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	ResultFile string `mapstructure:"result_file"` // Logo结果CSV路径
	ReportDir  string `mapstructure:"report_dir"`  // 运行报告目录
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".logocrawl"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	def := models.DefaultCrawlConfig()

	// 爬取配置默认值
	v.SetDefault("crawl.max_domains", def.MaxDomains)
	v.SetDefault("crawl.connect_timeout", def.ConnectTimeout)
	v.SetDefault("crawl.read_timeout", def.ReadTimeout)
	v.SetDefault("crawl.min_workers", def.MinWorkers)
	v.SetDefault("crawl.max_workers", def.MaxWorkers)
	v.SetDefault("crawl.memory_per_worker", def.MemoryPerWorkerMB)
	v.SetDefault("crawl.memory_per_render_tab", def.MemoryPerRenderTabMB)
	v.SetDefault("crawl.render_tabs", def.RenderTabs)
	v.SetDefault("crawl.restart_every_n_domains", def.RestartEveryNDomains)
	v.SetDefault("crawl.memory_restart_threshold", def.MemoryRestartThreshold)
	v.SetDefault("crawl.memory_check_interval", def.MemoryCheckInterval)
	v.SetDefault("crawl.domain_timeout", def.DomainTimeoutMs)
	v.SetDefault("crawl.nav_timeout", def.NavTimeoutMs)
	v.SetDefault("crawl.post_nav_delay", def.PostNavDelayMs)
	v.SetDefault("crawl.consent_timeout", def.ConsentTimeoutMs)
	v.SetDefault("crawl.page_max_uses", def.PageMaxUses)
	v.SetDefault("crawl.request_delay_min", def.RequestDelayMinMs)
	v.SetDefault("crawl.request_delay_max", def.RequestDelayMaxMs)
	v.SetDefault("crawl.headless", def.Headless)
	v.SetDefault("crawl.failed_output", def.FailedOutput)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.result_file", "-") // "-"表示标准输出
	v.SetDefault("output.report_dir", "output")
}

// GetCrawlConfig 从配置中提取爬取配置
func (c *Config) GetCrawlConfig() models.CrawlConfig {
	return c.Crawl
}

// CLIFlags 命令行参数快照,零值表示未指定
type CLIFlags struct {
	MaxDomains    int
	RenderTabs    int
	RestartEvery  int
	DomainTimeout int
	NavTimeout    int
	PageMaxUses   int
	DelayMin      int
	DelayMax      int
	Headless      bool
	HeadlessSet   bool
	FailedOutput  string
	ResultFile    string
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(flags CLIFlags) {
	if flags.MaxDomains > 0 {
		c.Crawl.MaxDomains = flags.MaxDomains
	}
	if flags.RenderTabs > 0 {
		c.Crawl.RenderTabs = flags.RenderTabs
	}
	if flags.RestartEvery > 0 {
		c.Crawl.RestartEveryNDomains = flags.RestartEvery
	}
	if flags.DomainTimeout > 0 {
		c.Crawl.DomainTimeoutMs = flags.DomainTimeout
	}
	if flags.NavTimeout > 0 {
		c.Crawl.NavTimeoutMs = flags.NavTimeout
	}
	if flags.PageMaxUses > 0 {
		c.Crawl.PageMaxUses = flags.PageMaxUses
	}
	if flags.DelayMin > 0 {
		c.Crawl.RequestDelayMinMs = flags.DelayMin
	}
	if flags.DelayMax > 0 {
		c.Crawl.RequestDelayMaxMs = flags.DelayMax
	}
	if flags.HeadlessSet {
		c.Crawl.Headless = flags.Headless
	}
	if flags.FailedOutput != "" {
		c.Crawl.FailedOutput = flags.FailedOutput
	}
	if flags.ResultFile != "" {
		c.Output.ResultFile = flags.ResultFile
	}
}
