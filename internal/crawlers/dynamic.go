package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
)

// RenderResult 渲染阶段结果
type RenderResult struct {
	Resolved []models.CrawlOutcome // 成功找到Logo的域名
	Failed   []models.CrawlOutcome // 终态失败(FAILED/BLOCKED)
}

// RenderPhase 渲染爬取阶段编排器
// 职责: 用无头浏览器渲染静态阶段未解析的域名
// 并发度由标签页池容量天然约束,worker数等于池大小,不需要额外信号量
// 单域名的全过程被DOMAIN_TIMEOUT硬超时包裹,这是唯一的取消边界
type RenderPhase struct {
	config   models.CrawlConfig
	pool     *PagePool
	restart  *RestartManager
	limiter  *RateLimiter
	detector *CaptchaDetector
	extract  ExtractFunc
	consent  ConsentFunc

	// 测试注入点: 域名到URL变体的构造
	variants func(domain string) []string
}

// NewRenderPhase 创建渲染阶段编排器
func NewRenderPhase(config models.CrawlConfig, pool *PagePool, restart *RestartManager, limiter *RateLimiter, detector *CaptchaDetector, extract ExtractFunc, consent ConsentFunc) *RenderPhase {
	if consent == nil {
		consent = DismissConsent
	}
	return &RenderPhase{
		config:   config,
		pool:     pool,
		restart:  restart,
		limiter:  limiter,
		detector: detector,
		extract:  extract,
		consent:  consent,
		variants: urlVariants,
	}
}

// Run 运行渲染阶段
// 每个域名无论结局如何都恰好调用一次AfterDomainProcessed
// 单域名失败只产生结果记录,绝不传播为阶段级故障
func (rp *RenderPhase) Run(ctx context.Context, domains []string, onDone func(models.CrawlOutcome)) (*RenderResult, error) {
	startTime := time.Now()

	workers := rp.pool.Size()
	if workers > len(domains) {
		workers = len(domains)
	}

	utils.Infof("🌐 渲染爬取阶段启动: %d个域名, %d个标签页", len(domains), rp.pool.Size())

	queue := NewDomainQueue(len(domains))
	for _, d := range domains {
		if err := queue.Push(d); err != nil {
			utils.Warnf("域名入队失败 [%s]: %v", d, err)
		}
	}
	queue.Close()

	result := &RenderResult{}
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for {
				domain, ok := queue.Pop(ctx)
				if !ok {
					return
				}

				outcome := rp.crawlDomain(ctx, domain)

				// 每个域名恰好计数一次
				rp.restart.AfterDomainProcessed()

				mu.Lock()
				if outcome.Resolved() {
					result.Resolved = append(result.Resolved, outcome)
				} else {
					result.Failed = append(result.Failed, outcome)
				}
				mu.Unlock()

				if onDone != nil {
					onDone(outcome)
				}
			}
		}(i)
	}
	wg.Wait()

	duration := time.Since(startTime)
	utils.Infof("✅ 渲染爬取阶段完成: 解析成功%d, 失败%d, 耗时%.1f秒",
		len(result.Resolved), len(result.Failed), duration.Seconds())

	return result, ctx.Err()
}

// crawlDomain 渲染单个域名
// DOMAIN_TIMEOUT从获取标签页前开始计时,覆盖导航/弹窗/提取全过程
// 超时或崩溃时标签页以不可用状态归还,由池销毁重建
func (rp *RenderPhase) crawlDomain(ctx context.Context, domain string) (outcome models.CrawlOutcome) {
	// panic在任务边界转换为失败结果,不影响其他域名
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("渲染任务panic [%s]: %v", domain, r)
			outcome = failedOutcome(domain, fmt.Sprintf("渲染任务panic: %v", r))
		}
	}()

	dctx, cancel := context.WithTimeout(ctx, rp.config.DomainTimeout())
	defer cancel()

	pooled, err := rp.pool.Acquire(dctx)
	if err != nil {
		// 获取标签页超时按TimeoutError处理
		return failedOutcome(domain, fmt.Sprintf("获取标签页失败: %v", err))
	}

	usable := true
	defer func() { rp.pool.Release(pooled, usable) }()

	// 依次尝试URL变体;导航超时意味着页面状态不可信,直接终止
	navigated := false
	var target string
	for _, candidate := range rp.variants(domain) {
		if err := rp.limiter.Wait(dctx); err != nil {
			return failedOutcome(domain, "域名超时")
		}

		navErr := pooled.Page.Navigate(dctx, candidate, rp.config.NavTimeout())
		if navErr == nil {
			navigated = true
			target = candidate
			break
		}

		if dctx.Err() != nil {
			// 域名硬超时中断了进行中的导航,页面不可复用
			usable = false
			return failedOutcome(domain, "域名超时")
		}
		if errors.Is(navErr, context.DeadlineExceeded) {
			usable = false
			return failedOutcome(domain, fmt.Sprintf("导航超时 [%s]", candidate))
		}

		// DNS解析失败等网络错误,尝试下一个变体
		utils.Debugf("导航失败 [%s]: %v", candidate, navErr)
	}
	if !navigated {
		return failedOutcome(domain, "所有URL变体导航失败")
	}

	// Cookie弹窗处理,每次导航调用一次,失败不中断
	rp.dismissConsent(dctx, domain, pooled.Page)

	// 等待动态内容渲染完成
	if rp.config.PostNavDelayMs > 0 {
		timer := time.NewTimer(rp.config.PostNavDelay())
		select {
		case <-dctx.Done():
			timer.Stop()
			usable = false
			return failedOutcome(domain, "域名超时")
		case <-timer.C:
		}
	}

	html, err := pooled.Page.HTML()
	if err != nil {
		usable = false
		return failedOutcome(domain, fmt.Sprintf("获取渲染内容失败: %v", err))
	}

	// 渲染阶段的阻断是终态
	if rp.detector.IsBlocked(html) {
		utils.Warnf("渲染阶段检测到验证码/挑战页 [%s]", domain)
		return models.CrawlOutcome{
			Domain: domain,
			Phase:  models.PhaseRender,
			Status: models.StatusBlocked,
			Reason: "检测到验证码/挑战页",
		}
	}

	if logoURL, found := rp.extract(html, target); found {
		utils.Debugf("渲染阶段找到Logo [%s]: %s", domain, logoURL)
		return models.CrawlOutcome{
			Domain:  domain,
			LogoURL: logoURL,
			Phase:   models.PhaseRender,
			Status:  models.StatusFound,
		}
	}

	// 渲染是最后手段,未找到Logo即为最终失败
	return failedOutcome(domain, "渲染后仍未找到Logo")
}

// dismissConsent 在时限内处理Cookie弹窗
// 超时只记日志放弃等待,弹窗处理绝不拖垮域名预算
func (rp *RenderPhase) dismissConsent(ctx context.Context, domain string, page Page) {
	done := make(chan struct{})
	go func() {
		rp.consent(page)
		close(done)
	}()

	timer := time.NewTimer(rp.config.ConsentTimeout())
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		utils.Debugf("Cookie弹窗处理超时 [%s]", domain)
	case <-ctx.Done():
	}
}

// failedOutcome 构造渲染阶段失败结果
func failedOutcome(domain, reason string) models.CrawlOutcome {
	return models.CrawlOutcome{
		Domain: domain,
		Phase:  models.PhaseRender,
		Status: models.StatusFailed,
		Reason: reason,
	}
}
