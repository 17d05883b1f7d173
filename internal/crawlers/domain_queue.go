package crawlers

import (
	"context"
	"fmt"
	"sync"
)

// DomainQueue 域名工作队列
// 职责: 为固定数量的worker提供并发安全的域名分发
// 两个阶段各自持有独立队列;阶段开始时一次性灌入全部域名后关闭
type DomainQueue struct {
	pending chan string

	mu     sync.RWMutex
	closed bool
}

// NewDomainQueue 创建域名队列,容量按域名总数预分配
func NewDomainQueue(capacity int) *DomainQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &DomainQueue{
		pending: make(chan string, capacity),
	}
}

// Push 添加域名到队列
func (q *DomainQueue) Push(domain string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("队列已关闭")
	}

	select {
	case q.pending <- domain:
		return nil
	default:
		return fmt.Errorf("队列已满(容量%d)", cap(q.pending))
	}
}

// Pop 取出下一个待处理域名,阻塞等待,支持context取消
// 队列关闭且取空后返回ok=false,worker据此退出
func (q *DomainQueue) Pop(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case domain, ok := <-q.pending:
		if !ok {
			return "", false
		}
		return domain, true
	}
}

// PendingCount 当前待处理域名数量
func (q *DomainQueue) PendingCount() int {
	return len(q.pending)
}

// Close 关闭队列,已入队的域名仍可被Pop取出
func (q *DomainQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		close(q.pending)
		q.closed = true
	}
}
