package crawlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
)

// ErrPoolClosed 标签页池已关闭
var ErrPoolClosed = errors.New("标签页池已关闭")

// PooledPage 池化标签页
// 签出期间归渲染任务独占,签入期间归池独占
type PooledPage struct {
	// Page 底层标签页句柄
	Page Page

	useCount  int       // 已使用次数,达到上限后销毁重建
	createdAt time.Time // 创建时间
}

// UseCount 返回已使用次数
func (p *PooledPage) UseCount() int {
	return p.useCount
}

// PagePool 标签页池
// 职责: 维护固定数量的可复用标签页,按使用次数淘汰,签出严格FIFO公平
// 池大小即渲染阶段的并发上限,不需要额外的信号量
type PagePool struct {
	size    int
	maxUses int
	rotator *IdentityRotator

	mu   sync.Mutex
	cond *sync.Cond // Swap等待所有签出归还

	bctx        BrowserContext
	available   []*PooledPage      // 空闲标签页
	waiters     []chan *PooledPage // FIFO等待队列
	outstanding int                // 当前签出数量
	paused      bool               // 上下文替换期间暂停签出
	closed      bool
}

// NewPagePool 创建标签页池并预建全部标签页
// 每个标签页创建时从轮换器取一个身份,整个生命周期保持不变
func NewPagePool(bctx BrowserContext, size, maxUses int, rotator *IdentityRotator) (*PagePool, error) {
	if size < 1 {
		size = 1
	}
	pool := &PagePool{
		size:    size,
		maxUses: maxUses,
		rotator: rotator,
		bctx:    bctx,
	}
	pool.cond = sync.NewCond(&pool.mu)

	for i := 0; i < size; i++ {
		p, err := pool.newPage()
		if err != nil {
			pool.closeLocked()
			return nil, err
		}
		pool.available = append(pool.available, p)
	}

	utils.Debugf("标签页池已就绪: %d个标签页, 单页使用上限%d次", size, maxUses)
	return pool, nil
}

// newPage 从当前上下文创建一个池化标签页
// 调用者需持有pool.mu(初始化阶段除外)
func (pool *PagePool) newPage() (*PooledPage, error) {
	page, err := pool.bctx.NewPage(pool.rotator.Next())
	if err != nil {
		return nil, err
	}
	return &PooledPage{
		Page:      page,
		createdAt: time.Now(),
	}, nil
}

// Acquire 签出一个标签页
// 所有标签页都被签出时阻塞等待;等待者按到达顺序获得标签页
func (pool *PagePool) Acquire(ctx context.Context) (*PooledPage, error) {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if !pool.paused && len(pool.available) > 0 {
		p := pool.available[0]
		pool.available = pool.available[1:]
		pool.outstanding++
		pool.mu.Unlock()
		return p, nil
	}

	// 排队等待,严格FIFO
	ch := make(chan *PooledPage, 1)
	pool.waiters = append(pool.waiters, ch)
	pool.mu.Unlock()

	select {
	case p, ok := <-ch:
		if !ok || p == nil {
			return nil, ErrPoolClosed
		}
		return p, nil
	case <-ctx.Done():
		pool.mu.Lock()
		removed := false
		for i, w := range pool.waiters {
			if w == ch {
				pool.waiters = append(pool.waiters[:i], pool.waiters[i+1:]...)
				removed = true
				break
			}
		}
		pool.mu.Unlock()

		if !removed {
			// 取消瞬间标签页可能已派发,归还以免泄漏
			select {
			case p, ok := <-ch:
				if ok && p != nil {
					pool.Release(p, true)
				}
			default:
			}
		}
		return nil, ctx.Err()
	}
}

// Release 签入标签页
// usable=false(超时/崩溃导致页面状态不可信)或使用次数到达上限时,
// 销毁该标签页并在原槽位补建新页,限制内存增长和指纹累积
func (pool *PagePool) Release(p *PooledPage, usable bool) {
	if p == nil {
		return
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()
	defer pool.cond.Broadcast()

	pool.outstanding--
	p.useCount++

	if pool.closed {
		_ = p.Page.Close()
		return
	}

	if !usable || p.useCount >= pool.maxUses {
		if !usable {
			utils.Debugf("标签页不可用,销毁重建(已使用%d次)", p.useCount)
		} else {
			utils.Debugf("标签页达到使用上限(%d次),销毁重建", p.useCount)
		}
		_ = p.Page.Close()

		// 上下文替换期间不补建,Swap会整体重建
		if pool.paused {
			return
		}

		replacement, err := pool.newPage()
		if err != nil {
			// 补建失败通常意味着浏览器异常,留待下次上下文替换时恢复
			utils.Errorf("补建标签页失败: %v", err)
			return
		}
		pool.handOff(replacement)
		return
	}

	if pool.paused {
		pool.available = append(pool.available, p)
		return
	}
	pool.handOff(p)
}

// handOff 把标签页交给队首等待者,无等待者时放回空闲集
// 调用者需持有pool.mu
func (pool *PagePool) handOff(p *PooledPage) {
	if len(pool.waiters) > 0 {
		ch := pool.waiters[0]
		pool.waiters = pool.waiters[1:]
		pool.outstanding++
		ch <- p
		return
	}
	pool.available = append(pool.available, p)
}

// Swap 整体替换浏览器上下文
// 暂停签出,等待所有签出的标签页归还,关闭旧页,从新上下文重建全部标签页
// 替换期间到达的Acquire调用排队等待,替换完成后按FIFO顺序获得新页
func (pool *PagePool) Swap(newCtx BrowserContext) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.closed {
		return ErrPoolClosed
	}

	pool.paused = true
	for pool.outstanding > 0 {
		pool.cond.Wait()
	}

	for _, p := range pool.available {
		_ = p.Page.Close()
	}
	pool.available = pool.available[:0]
	pool.bctx = newCtx

	var firstErr error
	for i := 0; i < pool.size; i++ {
		p, err := pool.newPage()
		if err != nil {
			firstErr = err
			break
		}
		pool.available = append(pool.available, p)
	}
	pool.paused = false

	// 唤醒排队的等待者
	for len(pool.waiters) > 0 && len(pool.available) > 0 {
		p := pool.available[0]
		pool.available = pool.available[1:]
		ch := pool.waiters[0]
		pool.waiters = pool.waiters[1:]
		pool.outstanding++
		ch <- p
	}

	if firstErr != nil {
		return firstErr
	}
	utils.Debugf("标签页池已从新上下文重建: %d个标签页", len(pool.available)+pool.outstanding)
	return nil
}

// CheckedOut 当前签出数量
func (pool *PagePool) CheckedOut() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return pool.outstanding
}

// Size 池容量
func (pool *PagePool) Size() int {
	return pool.size
}

// Close 关闭标签页池,释放所有标签页
func (pool *PagePool) Close() {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	pool.closeLocked()
}

// closeLocked 关闭实现,调用者需持有pool.mu
func (pool *PagePool) closeLocked() {
	if pool.closed {
		return
	}
	pool.closed = true

	for _, p := range pool.available {
		_ = p.Page.Close()
	}
	pool.available = nil

	for _, ch := range pool.waiters {
		close(ch)
	}
	pool.waiters = nil

	utils.Debugf("标签页池已关闭")
}
