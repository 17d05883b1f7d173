package models

import "time"

// CrawlPhase 爬取阶段标识
type CrawlPhase string

const (
	// PhaseStatic 静态阶段(纯HTTP请求,不渲染)
	PhaseStatic CrawlPhase = "static"
	// PhaseRender 渲染阶段(无头浏览器)
	PhaseRender CrawlPhase = "render"
)

// CrawlStatus 单域名爬取结果状态
type CrawlStatus string

const (
	// StatusFound 成功找到Logo URL
	StatusFound CrawlStatus = "found"
	// StatusUnresolved 静态阶段未解析(网络错误/超时/无Logo),进入渲染阶段
	StatusUnresolved CrawlStatus = "unresolved"
	// StatusFailed 最终失败(导航超时/域名超时/渲染阶段未找到Logo)
	StatusFailed CrawlStatus = "failed"
	// StatusBlocked 检测到验证码/挑战页(渲染阶段为终态)
	StatusBlocked CrawlStatus = "blocked"
)

// CrawlOutcome 单域名单阶段的爬取结果
// 协调器对每个域名只保留一个最终结果
type CrawlOutcome struct {
	Domain  string      `json:"domain"`             // 目标域名
	LogoURL string      `json:"logo_url,omitempty"` // 找到的Logo URL(仅StatusFound时非空)
	Phase   CrawlPhase  `json:"phase"`              // 产生该结果的阶段
	Status  CrawlStatus `json:"status"`             // 结果状态
	Reason  string      `json:"reason,omitempty"`   // 失败/阻断原因(用于failed输出和日志)
}

// Resolved 判断结果是否为成功解析
func (o CrawlOutcome) Resolved() bool {
	return o.Status == StatusFound && o.LogoURL != ""
}

// WorkerBudget 启动时由资源探测计算的并发预算,之后只读
type WorkerBudget struct {
	StaticWorkers int // 静态阶段并发worker数
	RenderTabs    int // 渲染阶段标签页池大小
}

// Identity 反检测身份: (User-Agent, 视口)组合
// 静态阶段每个请求换一个;渲染阶段每个标签页创建时固定一个
type Identity struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
}

// RunSummary 单次运行的统计汇总
type RunSummary struct {
	RunID           string        // 运行ID
	TotalDomains    int           // 输入域名总数
	StaticFound     int           // 静态阶段解析成功数
	RenderFound     int           // 渲染阶段解析成功数
	Failed          int           // 最终失败数
	Blocked         int           // 渲染阶段验证码阻断数
	BrowserRestarts int           // 浏览器上下文重启次数
	Duration        time.Duration // 总耗时
}

// Found 返回两阶段合计的解析成功数
func (s RunSummary) Found() int {
	return s.StaticFound + s.RenderFound
}
