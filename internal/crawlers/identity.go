package crawlers

import (
	"sync"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
)

// userAgentPool User-Agent轮换池
var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// viewportPool 视口轮换池
var viewportPool = [][2]int{
	{1920, 1080},
	{1366, 768},
	{1440, 900},
	{1536, 864},
	{1280, 720},
}

// IdentityRotator 身份轮换器
// 职责: 从固定目录中轮询选取(User-Agent, 视口)组合
// 纯选择逻辑,无外部副作用,并发安全
// 静态阶段每个HTTP请求取一次;渲染阶段每次创建标签页取一次,
// 标签页整个生命周期保持同一身份
type IdentityRotator struct {
	mu      sync.Mutex
	uaIndex int
	vpIndex int
}

// NewIdentityRotator 创建身份轮换器
func NewIdentityRotator() *IdentityRotator {
	return &IdentityRotator{}
}

// Next 取下一个身份
// UA和视口各自独立轮询,池大小互质(7和5),组合周期为35
func (ir *IdentityRotator) Next() models.Identity {
	ir.mu.Lock()
	defer ir.mu.Unlock()

	ua := userAgentPool[ir.uaIndex]
	vp := viewportPool[ir.vpIndex]

	ir.uaIndex = (ir.uaIndex + 1) % len(userAgentPool)
	ir.vpIndex = (ir.vpIndex + 1) % len(viewportPool)

	return models.Identity{
		UserAgent:      ua,
		ViewportWidth:  vp[0],
		ViewportHeight: vp[1],
	}
}
