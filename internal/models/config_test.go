package models

import (
	"testing"
	"time"
)

// TestCrawlConfigValidate 测试配置校验规则
func TestCrawlConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *CrawlConfig)
		wantErr bool
	}{
		{
			name:    "默认配置合法",
			modify:  func(c *CrawlConfig) {},
			wantErr: false,
		},
		{
			name:    "域名上限为0",
			modify:  func(c *CrawlConfig) { c.MaxDomains = 0 },
			wantErr: true,
		},
		{
			name:    "worker范围颠倒",
			modify:  func(c *CrawlConfig) { c.MinWorkers = 50; c.MaxWorkers = 10 },
			wantErr: true,
		},
		{
			name:    "标签页数为0",
			modify:  func(c *CrawlConfig) { c.RenderTabs = 0 },
			wantErr: true,
		},
		{
			name:    "导航超时超过域名超时",
			modify:  func(c *CrawlConfig) { c.NavTimeoutMs = 20000 },
			wantErr: true,
		},
		{
			name:    "内存阈值超出范围",
			modify:  func(c *CrawlConfig) { c.MemoryRestartThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "请求间隔范围颠倒",
			modify:  func(c *CrawlConfig) { c.RequestDelayMinMs = 2000; c.RequestDelayMaxMs = 500 },
			wantErr: true,
		},
		{
			name:    "页面使用上限为0",
			modify:  func(c *CrawlConfig) { c.PageMaxUses = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCrawlConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

// TestCrawlConfigDurations 测试超时换算
func TestCrawlConfigDurations(t *testing.T) {
	cfg := DefaultCrawlConfig()

	if got := cfg.HTTPTimeout(); got != 7*time.Second {
		t.Errorf("HTTP总超时应为连接+读取=7s, 实际%v", got)
	}
	if got := cfg.DomainTimeout(); got != 12*time.Second {
		t.Errorf("域名超时应为12s, 实际%v", got)
	}
	if got := cfg.NavTimeout(); got != 8*time.Second {
		t.Errorf("导航超时应为8s, 实际%v", got)
	}
	if got := cfg.PostNavDelay(); got != 800*time.Millisecond {
		t.Errorf("导航后等待应为800ms, 实际%v", got)
	}
}

// TestCrawlOutcomeResolved 测试结果终态判定
func TestCrawlOutcomeResolved(t *testing.T) {
	tests := []struct {
		name    string
		outcome CrawlOutcome
		want    bool
	}{
		{
			name:    "带URL的found为成功",
			outcome: CrawlOutcome{Domain: "a.com", LogoURL: "https://a.com/logo.png", Status: StatusFound},
			want:    true,
		},
		{
			name:    "found但URL为空不算成功",
			outcome: CrawlOutcome{Domain: "a.com", Status: StatusFound},
			want:    false,
		},
		{
			name:    "failed不算成功",
			outcome: CrawlOutcome{Domain: "a.com", Status: StatusFailed},
			want:    false,
		},
		{
			name:    "blocked不算成功",
			outcome: CrawlOutcome{Domain: "a.com", Status: StatusBlocked},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Resolved(); got != tt.want {
				t.Errorf("Resolved() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}
