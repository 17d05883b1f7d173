package crawlers

import (
	"context"
	"sync"
	"time"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
)

// fakePage 测试用标签页,行为可按需注入
type fakePage struct {
	mu     sync.Mutex
	id     int
	closed bool

	navFunc  func(ctx context.Context, url string, timeout time.Duration) error
	htmlFunc func() (string, error)

	navigated []string
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	nav := p.navFunc
	p.mu.Unlock()

	if nav != nil {
		return nav(ctx, url, timeout)
	}
	return nil
}

func (p *fakePage) HTML() (string, error) {
	if p.htmlFunc != nil {
		return p.htmlFunc()
	}
	return "<html><body><img src=\"/logo.png\"></body></html>", nil
}

func (p *fakePage) Eval(js string) error {
	return nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// fakeContext 测试用浏览器上下文,记录创建过的标签页
type fakeContext struct {
	mu      sync.Mutex
	created []*fakePage
	closed  bool

	pageErr     error                // NewPage返回的错误
	newPageHook func(page *fakePage) // 新标签页的行为配置
}

func (c *fakeContext) NewPage(identity models.Identity) (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pageErr != nil {
		return nil, c.pageErr
	}
	p := &fakePage{id: len(c.created)}
	if c.newPageHook != nil {
		c.newPageHook(p)
	}
	c.created = append(c.created, p)
	return p, nil
}

func (c *fakeContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeContext) createdCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.created)
}

func (c *fakeContext) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
