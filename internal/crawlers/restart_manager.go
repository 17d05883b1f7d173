package crawlers

import (
	"sync"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
	"github.com/shirou/gopsutil/v3/mem"
)

// RestartManager 浏览器上下文重启管理器
// 职责: 每处理N个域名整体替换浏览器上下文,限制内存增长和指纹累积
// 另外周期性检查系统内存占用,超过阈值时强制替换
// 它是BrowserContext身份的唯一修改者,其他组件只持有引用,替换在池暂停下原子完成
type RestartManager struct {
	pool    *PagePool
	factory ContextFactory
	config  models.CrawlConfig

	mu       sync.Mutex
	current  BrowserContext
	count    int // 自上次重启以来已处理的域名数
	restarts int // 累计重启次数

	// 测试注入点: 内存占用采样,默认读系统内存
	memoryUsage func() (float64, error)
}

// NewRestartManager 创建重启管理器
// current为初始上下文,factory用于创建替换上下文
func NewRestartManager(current BrowserContext, factory ContextFactory, pool *PagePool, config models.CrawlConfig) *RestartManager {
	return &RestartManager{
		pool:        pool,
		factory:     factory,
		config:      config,
		current:     current,
		memoryUsage: systemMemoryUsage,
	}
}

// AfterDomainProcessed 渲染阶段每完成一个域名调用一次
// 计数达到重启间隔,或内存检查命中阈值时,执行上下文整体替换
func (rm *RestartManager) AfterDomainProcessed() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.count++

	if rm.count >= rm.config.RestartEveryNDomains {
		utils.Infof("已处理%d个域名,重启浏览器上下文", rm.count)
		rm.restartLocked()
		return
	}

	// 周期性内存压力检查
	if rm.config.MemoryCheckInterval > 0 && rm.count%rm.config.MemoryCheckInterval == 0 {
		usage, err := rm.memoryUsage()
		if err != nil {
			utils.Warnf("内存占用检查失败: %v", err)
			return
		}
		if usage >= rm.config.MemoryRestartThreshold {
			utils.Warnf("内存占用%.0f%%超过阈值%.0f%%,强制重启浏览器上下文",
				usage*100, rm.config.MemoryRestartThreshold*100)
			rm.restartLocked()
		}
	}
}

// restartLocked 执行上下文替换,调用者需持有rm.mu
// 流程: 创建新上下文 → 池暂停并排空 → 标签页整体重建 → 关闭旧上下文
// 新上下文创建失败时保留旧上下文继续运行,等下一个触发点再试
func (rm *RestartManager) restartLocked() {
	newCtx, err := rm.factory()
	if err != nil {
		utils.Errorf("创建新浏览器上下文失败,保留当前上下文: %v", err)
		return
	}

	if err := rm.pool.Swap(newCtx); err != nil {
		utils.Errorf("标签页池重建失败: %v", err)
	}

	if err := rm.current.Close(); err != nil {
		utils.Warnf("关闭旧浏览器上下文失败: %v", err)
	}

	rm.current = newCtx
	rm.count = 0
	rm.restarts++

	utils.Infof("浏览器上下文已重启(累计%d次)", rm.restarts)
}

// Restarts 累计重启次数
func (rm *RestartManager) Restarts() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.restarts
}

// systemMemoryUsage 系统内存占用比例(0~1)
func systemMemoryUsage() (float64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vmStat.UsedPercent / 100, nil
}
