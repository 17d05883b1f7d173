// Package crawlers 提供网站Logo的两阶段爬取能力
//
// # 概述
//
// crawlers包实现了静态(Colly)优先、渲染(go-rod)兜底的两阶段爬取流水线。
// 核心特性包括:启动时资源预算、固定容量标签页池、身份轮换、请求节流、
// 验证码检测和浏览器上下文定期重启。
//
// # 核心组件
//
// ## StaticPhase
//
// 基于Colly的静态爬取阶段,用固定数量的worker对全部域名做纯HTTP抓取。
// 每个域名依次尝试4个URL变体(https/http × 裸域名/www),第一个返回可用
// HTML的变体决定结果。阶段内不重试,未解析的域名转发渲染阶段。
//
//	phase := NewStaticPhase(config, workers, limiter, rotator, detector, extract.Logo)
//	result, err := phase.Run(ctx, domains, onDone)
//
// ## RenderPhase
//
// 基于go-rod的渲染阶段,只处理静态阶段未解析的域名。单域名的全过程
// (取标签页、导航、弹窗处理、提取)被DOMAIN_TIMEOUT硬超时包裹,
// 渲染是最后手段,未找到Logo即为最终失败。
//
//	phase := NewRenderPhase(config, pool, restart, limiter, detector, extract.Logo, nil)
//	result, err := phase.Run(ctx, domains, onDone)
//
// ## PagePool (标签页池)
//
// 维护固定数量的可复用标签页,池大小即渲染阶段的并发上限。
// 核心策略:
//   - 启动时预建全部标签页,每页绑定一个轮换身份
//   - 签出严格FIFO公平,池耗尽时排队等待
//   - 单页使用次数达到上限后销毁重建
//   - 超时/崩溃的标签页以不可用状态归还,立即销毁重建
//
// 使用示例:
//
//	pool, err := NewPagePool(bctx, tabs, maxUses, rotator)
//	defer pool.Close()
//
//	page, err := pool.Acquire(ctx)
//	if err != nil { /* 处理错误 */ }
//	defer pool.Release(page, usable)
//
// ## RestartManager (重启管理器)
//
// 每处理N个域名整体替换浏览器上下文,限制内存增长和指纹累积;
// 另外周期性检查系统内存,超过阈值时强制替换。替换流程:
// 池暂停签出 → 等待全部归还 → 旧页关闭 → 新上下文重建全部标签页。
//
//	rm := NewRestartManager(bctx, browser.NewContext, pool, config)
//	rm.AfterDomainProcessed() // 渲染阶段每完成一个域名调用一次
//
// ## ResourceProbe (资源探测)
//
// 启动时按CPU核数和可用内存计算一次并发预算,运行期间不再调整:
//   - 静态worker = min(4×CPU, 可用内存×0.75/单worker内存), 夹在[10,120]
//   - 渲染标签页 = min(max(2,CPU), 可用内存×0.6/单标签页内存), 夹在[2,20]
//
// ## RateLimiter / IdentityRotator / CaptchaDetector
//
// RateLimiter保证相邻请求的随机最小间隔,两个阶段共享一个实例;
// IdentityRotator独立轮换UA池和视口池(长度互质,组合周期为两者之积);
// CaptchaDetector用已知标记识别reCAPTCHA/hCaptcha/Cloudflare挑战页,
// 静态阶段命中后仍转发渲染阶段,渲染阶段命中即为终态。
//
// # 并发安全
//
// 所有核心组件都是并发安全的:
//   - DomainQueue: channel + sync.RWMutex
//   - PagePool: sync.Mutex + sync.Cond
//   - RateLimiter/IdentityRotator/RestartManager: sync.Mutex
//
// # 错误处理
//
//   - 单域名失败只产生结果记录,绝不传播为阶段级故障
//   - 渲染任务的panic在任务边界转换为失败结果
//   - 浏览器启动失败时渲染阶段整体失败,静态阶段结果依然有效
//   - 标签页补建失败视为可恢复,等下一次上下文替换时重建
package crawlers
