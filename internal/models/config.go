package models

import (
	"fmt"
	"time"
)

// CrawlConfig 爬取配置
// 启动时构造一次,之后作为只读值显式传递给各组件,不使用全局可变状态
type CrawlConfig struct {
	// 输入限制
	MaxDomains int `mapstructure:"max_domains"` // 输入域名数量上限

	// 静态阶段HTTP超时(秒)
	ConnectTimeout int `mapstructure:"connect_timeout"` // TCP连接超时
	ReadTimeout    int `mapstructure:"read_timeout"`    // 响应读取超时

	// 并发预算约束
	MinWorkers           int `mapstructure:"min_workers"`             // 静态worker下限
	MaxWorkers           int `mapstructure:"max_workers"`             // 静态worker上限
	MemoryPerWorkerMB    int `mapstructure:"memory_per_worker"`      // 静态worker内存估算(MB)
	MemoryPerRenderTabMB int `mapstructure:"memory_per_render_tab"`  // 渲染标签页内存估算(MB)
	RenderTabs           int `mapstructure:"render_tabs"`            // 渲染标签页数量(池大小)

	// 浏览器上下文重启策略
	RestartEveryNDomains   int     `mapstructure:"restart_every_n_domains"`  // 每处理N个域名重启上下文
	MemoryRestartThreshold float64 `mapstructure:"memory_restart_threshold"` // 内存占用比超过该值强制重启
	MemoryCheckInterval    int     `mapstructure:"memory_check_interval"`    // 每处理N个域名检查一次内存

	// 渲染阶段超时(毫秒)
	DomainTimeoutMs  int `mapstructure:"domain_timeout"`  // 单域名硬超时(包含导航/弹窗/提取全过程)
	NavTimeoutMs     int `mapstructure:"nav_timeout"`     // 单次导航超时
	PostNavDelayMs   int `mapstructure:"post_nav_delay"`  // 导航完成后的内容加载等待
	ConsentTimeoutMs int `mapstructure:"consent_timeout"` // Cookie弹窗处理时限

	// 标签页复用
	PageMaxUses int `mapstructure:"page_max_uses"` // 标签页使用N次后销毁重建

	// 请求节流(毫秒)
	RequestDelayMinMs int `mapstructure:"request_delay_min"` // 相邻请求最小间隔
	RequestDelayMaxMs int `mapstructure:"request_delay_max"` // 相邻请求最大间隔

	// 浏览器
	Headless bool `mapstructure:"headless"` // 无头模式

	// 输出
	FailedOutput string `mapstructure:"failed_output"` // 失败域名列表输出路径
}

// DefaultCrawlConfig 默认爬取配置
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MaxDomains:             1000,
		ConnectTimeout:         2,
		ReadTimeout:            5,
		MinWorkers:             10,
		MaxWorkers:             120,
		MemoryPerWorkerMB:      120,
		MemoryPerRenderTabMB:   400,
		RenderTabs:             4,
		RestartEveryNDomains:   50,
		MemoryRestartThreshold: 0.75,
		MemoryCheckInterval:    10,
		DomainTimeoutMs:        12000,
		NavTimeoutMs:           8000,
		PostNavDelayMs:         800,
		ConsentTimeoutMs:       2000,
		PageMaxUses:            25,
		RequestDelayMinMs:      500,
		RequestDelayMaxMs:      1500,
		Headless:               true,
		FailedOutput:           "failed_domains.csv",
	}
}

// Validate 校验配置合法性
func (c CrawlConfig) Validate() error {
	if c.MaxDomains <= 0 {
		return fmt.Errorf("max_domains必须大于0: %d", c.MaxDomains)
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("超时配置必须大于0: connect=%d, read=%d", c.ConnectTimeout, c.ReadTimeout)
	}
	if c.MinWorkers <= 0 || c.MaxWorkers < c.MinWorkers {
		return fmt.Errorf("worker范围无效: [%d, %d]", c.MinWorkers, c.MaxWorkers)
	}
	if c.RenderTabs <= 0 {
		return fmt.Errorf("render_tabs必须大于0: %d", c.RenderTabs)
	}
	if c.RestartEveryNDomains <= 0 {
		return fmt.Errorf("restart_every_n_domains必须大于0: %d", c.RestartEveryNDomains)
	}
	if c.MemoryRestartThreshold <= 0 || c.MemoryRestartThreshold > 1 {
		return fmt.Errorf("memory_restart_threshold必须在(0,1]范围内: %.2f", c.MemoryRestartThreshold)
	}
	if c.DomainTimeoutMs <= 0 || c.NavTimeoutMs <= 0 {
		return fmt.Errorf("渲染超时配置必须大于0: domain=%dms, nav=%dms", c.DomainTimeoutMs, c.NavTimeoutMs)
	}
	if c.NavTimeoutMs > c.DomainTimeoutMs {
		return fmt.Errorf("nav_timeout(%dms)不能超过domain_timeout(%dms)", c.NavTimeoutMs, c.DomainTimeoutMs)
	}
	if c.PageMaxUses <= 0 {
		return fmt.Errorf("page_max_uses必须大于0: %d", c.PageMaxUses)
	}
	if c.RequestDelayMinMs < 0 || c.RequestDelayMaxMs < c.RequestDelayMinMs {
		return fmt.Errorf("请求间隔范围无效: [%d, %d]ms", c.RequestDelayMinMs, c.RequestDelayMaxMs)
	}
	return nil
}

// HTTPTimeout 静态阶段HTTP总超时(连接+读取)
func (c CrawlConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout+c.ReadTimeout) * time.Second
}

// DomainTimeout 渲染阶段单域名硬超时
func (c CrawlConfig) DomainTimeout() time.Duration {
	return time.Duration(c.DomainTimeoutMs) * time.Millisecond
}

// NavTimeout 渲染阶段导航超时
func (c CrawlConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutMs) * time.Millisecond
}

// PostNavDelay 导航后的内容等待时间
func (c CrawlConfig) PostNavDelay() time.Duration {
	return time.Duration(c.PostNavDelayMs) * time.Millisecond
}

// ConsentTimeout Cookie弹窗处理时限
func (c CrawlConfig) ConsentTimeout() time.Duration {
	return time.Duration(c.ConsentTimeoutMs) * time.Millisecond
}
