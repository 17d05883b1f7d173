package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RecoveryAshes/LogoCrawl/internal/crawlers"
	"github.com/RecoveryAshes/LogoCrawl/internal/extract"
	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
)

// staticRunner 静态阶段执行接口
type staticRunner interface {
	Run(ctx context.Context, domains []string, onDone func(models.CrawlOutcome)) (*crawlers.StaticResult, error)
}

// renderRunner 渲染阶段执行接口
type renderRunner interface {
	Run(ctx context.Context, domains []string, onDone func(models.CrawlOutcome)) (*crawlers.RenderResult, error)
}

// renderEnv 渲染阶段及其浏览器资源的打包
// 浏览器只在确实有域名需要渲染时才启动
type renderEnv struct {
	runner   renderRunner
	restarts func() int
	cleanup  func()
}

// CrawlCoordinator 两阶段爬取协调器
// 职责: 资源预算 -> 静态阶段 -> 渲染阶段 -> 汇总输出
// 每个域名恰好产生一个最终结果,成功结果增量落盘
type CrawlCoordinator struct {
	config models.CrawlConfig
	output OutputConfig

	probe *crawlers.ResourceProbe

	// 阶段工厂,测试注入点
	newStatic func(workers int) staticRunner
	newRender func(tabs int) (*renderEnv, error)
}

// NewCrawlCoordinator 创建协调器并装配默认的两阶段实现
func NewCrawlCoordinator(cfg *Config) *CrawlCoordinator {
	crawl := cfg.Crawl

	// 限速器全局共享,两阶段的请求间隔统一约束
	limiter := crawlers.NewRateLimiter(crawl.RequestDelayMinMs, crawl.RequestDelayMaxMs)
	rotator := crawlers.NewIdentityRotator()
	detector := crawlers.NewCaptchaDetector()

	c := &CrawlCoordinator{
		config: crawl,
		output: cfg.Output,
		probe:  crawlers.NewResourceProbe(crawl),
	}

	c.newStatic = func(workers int) staticRunner {
		return crawlers.NewStaticPhase(crawl, workers, limiter, rotator, detector, extract.Logo)
	}

	c.newRender = func(tabs int) (*renderEnv, error) {
		browser, err := crawlers.LaunchBrowser(crawl.Headless)
		if err != nil {
			return nil, fmt.Errorf("启动浏览器失败: %w", err)
		}
		bctx, err := browser.NewContext()
		if err != nil {
			browser.Close()
			return nil, fmt.Errorf("创建浏览器上下文失败: %w", err)
		}
		pool, err := crawlers.NewPagePool(bctx, tabs, crawl.PageMaxUses, rotator)
		if err != nil {
			bctx.Close()
			browser.Close()
			return nil, fmt.Errorf("初始化标签页池失败: %w", err)
		}
		restart := crawlers.NewRestartManager(bctx, browser.NewContext, pool, crawl)
		runner := crawlers.NewRenderPhase(crawl, pool, restart, limiter, detector, extract.Logo, nil)

		return &renderEnv{
			runner:   runner,
			restarts: restart.Restarts,
			cleanup: func() {
				pool.Close()
				browser.Close()
			},
		}, nil
	}

	return c
}

// Run 执行一次完整的两阶段爬取
// 返回的RunSummary总是有效,error表示运行中发生的阶段级故障
func (c *CrawlCoordinator) Run(ctx context.Context, domains []string) (models.RunSummary, error) {
	startTime := time.Now()
	runID := uuid.New().String()

	utils.Infof("🔍 爬取任务启动 [%s]: %d个域名", runID, len(domains))

	summary := models.RunSummary{
		RunID:        runID,
		TotalDomains: len(domains),
	}
	if len(domains) == 0 {
		return summary, nil
	}

	// 启动时探测一次资源预算,之后不再调整
	budget := c.probe.ComputeBudget()

	writer, err := utils.NewResultWriter(c.output.ResultFile)
	if err != nil {
		return summary, err
	}
	defer writer.Close()

	bar := utils.NewProgressBar(len(domains), "爬取进度")

	// 每个域名恰好一个最终结果
	var mu sync.Mutex
	final := make(map[string]models.CrawlOutcome, len(domains))
	record := func(o models.CrawlOutcome) {
		mu.Lock()
		defer mu.Unlock()
		if _, exists := final[o.Domain]; exists {
			utils.Warnf("域名重复出结果,忽略后到的: %s", o.Domain)
			return
		}
		final[o.Domain] = o
		bar.Add(1)
		if o.Resolved() {
			if err := writer.Write(o); err != nil {
				utils.Errorf("写入结果失败 [%s]: %v", o.Domain, err)
			}
		}
	}

	// 阶段一: 静态HTTP爬取
	static := c.newStatic(budget.StaticWorkers)
	staticResult, err := static.Run(ctx, domains, func(o models.CrawlOutcome) {
		// 静态阶段只有解析成功才是终态,其余域名转入渲染阶段
		if o.Resolved() {
			record(o)
		}
	})
	if err != nil {
		return c.finish(summary, final, startTime, 0), err
	}

	// 阶段二: 渲染兜底
	var runErr error
	browserRestarts := 0
	if len(staticResult.Forward) > 0 {
		env, err := c.newRender(budget.RenderTabs)
		if err != nil {
			// 浏览器起不来,渲染阶段整体失败,静态结果依然有效
			utils.Errorf("❌ 渲染阶段不可用: %v", err)
			for _, d := range staticResult.Forward {
				record(models.CrawlOutcome{
					Domain: d,
					Phase:  models.PhaseRender,
					Status: models.StatusFailed,
					Reason: fmt.Sprintf("浏览器启动失败: %v", err),
				})
			}
			runErr = err
		} else {
			_, renderErr := env.runner.Run(ctx, staticResult.Forward, record)
			browserRestarts = env.restarts()
			env.cleanup()
			if renderErr != nil {
				runErr = renderErr
			}
		}
	}

	bar.Finish()
	fmt.Println()

	summary = c.finish(summary, final, startTime, browserRestarts)
	if err := c.writeOutputs(summary, final); err != nil && runErr == nil {
		runErr = err
	}

	utils.Infof("✅ 爬取任务完成 [%s]: 找到%d, 失败%d, 阻断%d, 耗时%.1f秒",
		runID, summary.Found(), summary.Failed, summary.Blocked, summary.Duration.Seconds())

	return summary, runErr
}

// finish 从结果表汇总统计
func (c *CrawlCoordinator) finish(summary models.RunSummary, final map[string]models.CrawlOutcome, startTime time.Time, restarts int) models.RunSummary {
	for _, o := range final {
		switch {
		case o.Resolved() && o.Phase == models.PhaseStatic:
			summary.StaticFound++
		case o.Resolved():
			summary.RenderFound++
		case o.Status == models.StatusBlocked:
			summary.Blocked++
		default:
			summary.Failed++
		}
	}
	summary.BrowserRestarts = restarts
	summary.Duration = time.Since(startTime)
	return summary
}

// writeOutputs 输出失败列表和运行报告
func (c *CrawlCoordinator) writeOutputs(summary models.RunSummary, final map[string]models.CrawlOutcome) error {
	var resolved, unresolved []models.CrawlOutcome
	for _, o := range final {
		if o.Resolved() {
			resolved = append(resolved, o)
		} else {
			unresolved = append(unresolved, o)
		}
	}

	if len(unresolved) > 0 {
		if err := utils.WriteFailedDomains(c.config.FailedOutput, unresolved); err != nil {
			utils.Errorf("写入失败列表出错: %v", err)
			return err
		}
		utils.Infof("📥 失败域名列表已写入: %s", c.config.FailedOutput)
	}

	reporter := utils.NewReporter(c.output.ReportDir, summary.RunID)
	if err := reporter.GenerateReport(summary, resolved, unresolved); err != nil {
		utils.Errorf("生成报告失败: %v", err)
		return err
	}
	return nil
}
