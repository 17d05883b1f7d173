package crawlers

import (
	"runtime"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceProbe 系统资源探测器
// 职责: 启动时读取可用内存和CPU核数,计算两个阶段的并发预算
// 预算计算一次,运行期间不再变化
type ResourceProbe struct {
	config models.CrawlConfig
}

// NewResourceProbe 创建资源探测器
func NewResourceProbe(config models.CrawlConfig) *ResourceProbe {
	return &ResourceProbe{config: config}
}

// ComputeBudget 计算并发预算
// 静态worker: I/O密集,按CPU和内存余量放大,硬上限MaxWorkers
// 渲染标签页: 每个标签页持有活跃浏览器页面,内存消耗大,上限要小得多
// 探测失败时回退到保守默认值,两个字段都不会为0
func (rp *ResourceProbe) ComputeBudget() models.WorkerBudget {
	cpuCount := runtime.NumCPU()
	if cpuCount < 1 {
		cpuCount = 4
	}

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		utils.Warnf("获取系统内存失败,使用保守默认预算: %v", err)
		return models.WorkerBudget{
			StaticWorkers: rp.config.MinWorkers,
			RenderTabs:    rp.clampRenderTabs(rp.config.RenderTabs),
		}
	}

	availableMB := int(vmStat.Available / (1024 * 1024))
	utils.Infof("系统资源: 可用内存 %.2f GB, CPU核数 %d",
		float64(vmStat.Available)/(1024*1024*1024), cpuCount)

	budget := models.WorkerBudget{
		StaticWorkers: rp.staticWorkers(cpuCount, availableMB),
		RenderTabs:    rp.renderTabs(cpuCount, availableMB),
	}

	utils.Infof("并发预算: 静态worker=%d, 渲染标签页=%d", budget.StaticWorkers, budget.RenderTabs)
	return budget
}

// staticWorkers 计算静态阶段worker数
// I/O密集型场景取4倍CPU为基准,再按75%可用内存折算上限,取两者较小值
func (rp *ResourceProbe) staticWorkers(cpuCount, availableMB int) int {
	cpuBased := cpuCount * 4

	memBased := availableMB * 3 / 4 / rp.config.MemoryPerWorkerMB

	workers := cpuBased
	if memBased < workers {
		workers = memBased
	}
	if workers < rp.config.MinWorkers {
		workers = rp.config.MinWorkers
	}
	if workers > rp.config.MaxWorkers {
		workers = rp.config.MaxWorkers
	}
	return workers
}

// renderTabs 计算渲染阶段标签页数
// 浏览器标签页是CPU和内存大户,基准取max(2, CPU核数),内存只用60%折算
func (rp *ResourceProbe) renderTabs(cpuCount, availableMB int) int {
	cpuBased := cpuCount
	if cpuBased < 2 {
		cpuBased = 2
	}

	memBased := availableMB * 3 / 5 / rp.config.MemoryPerRenderTabMB

	tabs := cpuBased
	if memBased < tabs {
		tabs = memBased
	}
	return rp.clampRenderTabs(tabs)
}

// clampRenderTabs 标签页数量保底2个,封顶20个,且不超过配置值
func (rp *ResourceProbe) clampRenderTabs(tabs int) int {
	if tabs < 2 {
		tabs = 2
	}
	if tabs > 20 {
		tabs = 20
	}
	if rp.config.RenderTabs > 0 && tabs > rp.config.RenderTabs {
		tabs = rp.config.RenderTabs
	}
	return tabs
}
