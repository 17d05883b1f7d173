package crawlers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestPool(t *testing.T, bctx BrowserContext, size, maxUses int) *PagePool {
	t.Helper()
	pool, err := NewPagePool(bctx, size, maxUses, NewIdentityRotator())
	if err != nil {
		t.Fatalf("创建标签页池失败: %v", err)
	}
	return pool
}

// TestPagePoolAcquireRelease 测试签出/签入基本流程
func TestPagePoolAcquireRelease(t *testing.T) {
	bctx := &fakeContext{}
	pool := newTestPool(t, bctx, 2, 10)
	defer pool.Close()

	if bctx.createdCount() != 2 {
		t.Fatalf("池应预建2个标签页, 实际%d", bctx.createdCount())
	}

	p1, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签出失败: %v", err)
	}
	p2, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签出失败: %v", err)
	}
	if pool.CheckedOut() != 2 {
		t.Errorf("签出数量应为2, 实际%d", pool.CheckedOut())
	}

	// 全部签出后,新的Acquire应阻塞直到超时
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("池耗尽时Acquire应超时, 实际错误: %v", err)
	}

	pool.Release(p1, true)
	p3, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签入后再签出失败: %v", err)
	}
	if p3 != p1 {
		t.Error("可复用的标签页应被重新派发")
	}

	pool.Release(p2, true)
	pool.Release(p3, true)
}

// TestPagePoolFIFO 测试等待者按到达顺序获得标签页
func TestPagePoolFIFO(t *testing.T) {
	bctx := &fakeContext{}
	pool := newTestPool(t, bctx, 1, 100)
	defer pool.Close()

	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签出失败: %v", err)
	}

	order := make(chan int, 2)
	startWaiter := func(id int) {
		go func() {
			p, err := pool.Acquire(context.Background())
			if err != nil {
				return
			}
			order <- id
			pool.Release(p, true)
		}()
		// 等待该goroutine进入等待队列后再启动下一个
		deadline := time.Now().Add(time.Second)
		for {
			pool.mu.Lock()
			n := len(pool.waiters)
			pool.mu.Unlock()
			if n >= id {
				return
			}
			if time.Now().After(deadline) {
				t.Fatalf("等待者%d未进入队列", id)
			}
			time.Sleep(time.Millisecond)
		}
	}

	startWaiter(1)
	startWaiter(2)

	pool.Release(held, true)

	for want := 1; want <= 2; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("签出顺序应为FIFO, 期望%d先获得, 实际%d", want, got)
			}
		case <-time.After(time.Second):
			t.Fatal("等待者未被唤醒")
		}
	}
}

// TestPagePoolUseCountEviction 测试使用次数到达上限后销毁重建
func TestPagePoolUseCountEviction(t *testing.T) {
	bctx := &fakeContext{}
	pool := newTestPool(t, bctx, 1, 2)
	defer pool.Close()

	first := bctx.created[0]

	for i := 0; i < 2; i++ {
		p, err := pool.Acquire(context.Background())
		if err != nil {
			t.Fatalf("签出失败: %v", err)
		}
		pool.Release(p, true)
	}

	if !first.isClosed() {
		t.Error("达到使用上限的标签页应被关闭")
	}
	if bctx.createdCount() != 2 {
		t.Errorf("应补建1个新标签页, 累计创建%d", bctx.createdCount())
	}

	// 补建的新页可正常签出
	p, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("补建后签出失败: %v", err)
	}
	if p.UseCount() != 0 {
		t.Errorf("新标签页使用次数应为0, 实际%d", p.UseCount())
	}
	pool.Release(p, true)
}

// TestPagePoolUnusableRelease 测试不可用标签页立即销毁重建
func TestPagePoolUnusableRelease(t *testing.T) {
	bctx := &fakeContext{}
	pool := newTestPool(t, bctx, 1, 100)
	defer pool.Close()

	first := bctx.created[0]

	p, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签出失败: %v", err)
	}
	pool.Release(p, false)

	if !first.isClosed() {
		t.Error("不可用标签页应被关闭")
	}
	if bctx.createdCount() != 2 {
		t.Errorf("应补建1个新标签页, 累计创建%d", bctx.createdCount())
	}
}

// TestPagePoolSwap 测试上下文整体替换
func TestPagePoolSwap(t *testing.T) {
	oldCtx := &fakeContext{}
	pool := newTestPool(t, oldCtx, 2, 100)
	defer pool.Close()

	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签出失败: %v", err)
	}

	newCtx := &fakeContext{}
	swapDone := make(chan error, 1)
	go func() {
		swapDone <- pool.Swap(newCtx)
	}()

	// 有标签页未归还时Swap应保持等待
	select {
	case <-swapDone:
		t.Fatal("存在签出标签页时Swap不应完成")
	case <-time.After(50 * time.Millisecond):
	}

	pool.Release(held, true)

	select {
	case err := <-swapDone:
		if err != nil {
			t.Fatalf("Swap失败: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("归还后Swap仍未完成")
	}

	// 旧上下文的标签页全部关闭,新上下文重建了全部标签页
	for _, p := range oldCtx.created {
		if !p.isClosed() {
			t.Error("旧上下文的标签页应全部关闭")
		}
	}
	if newCtx.createdCount() != 2 {
		t.Errorf("新上下文应创建2个标签页, 实际%d", newCtx.createdCount())
	}

	// 替换后签出的是新上下文的标签页
	p, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("替换后签出失败: %v", err)
	}
	if p.Page.(*fakePage) != newCtx.created[0] && p.Page.(*fakePage) != newCtx.created[1] {
		t.Error("替换后应派发新上下文的标签页")
	}
	pool.Release(p, true)
}

// TestPagePoolSwapWakesWaiters 测试替换期间排队的等待者在完成后被唤醒
func TestPagePoolSwapWakesWaiters(t *testing.T) {
	oldCtx := &fakeContext{}
	pool := newTestPool(t, oldCtx, 1, 100)
	defer pool.Close()

	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签出失败: %v", err)
	}

	got := make(chan *PooledPage, 1)
	go func() {
		p, err := pool.Acquire(context.Background())
		if err != nil {
			return
		}
		got <- p
	}()

	// 等待该goroutine进入队列
	deadline := time.Now().Add(time.Second)
	for {
		pool.mu.Lock()
		n := len(pool.waiters)
		pool.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("等待者未进入队列")
		}
		time.Sleep(time.Millisecond)
	}

	newCtx := &fakeContext{}
	swapDone := make(chan error, 1)
	go func() {
		swapDone <- pool.Swap(newCtx)
	}()

	pool.Release(held, true)

	select {
	case err := <-swapDone:
		if err != nil {
			t.Fatalf("Swap失败: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Swap未完成")
	}

	select {
	case p := <-got:
		if p.Page.(*fakePage) != newCtx.created[0] {
			t.Error("等待者应获得新上下文的标签页")
		}
		pool.Release(p, true)
	case <-time.After(time.Second):
		t.Fatal("替换完成后等待者未被唤醒")
	}
}

// TestPagePoolClose 测试关闭后的行为
func TestPagePoolClose(t *testing.T) {
	bctx := &fakeContext{}
	pool := newTestPool(t, bctx, 1, 100)

	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("签出失败: %v", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		_, err := pool.Acquire(context.Background())
		waitErr <- err
	}()

	// 等待该goroutine进入队列后关闭池
	deadline := time.Now().Add(time.Second)
	for {
		pool.mu.Lock()
		n := len(pool.waiters)
		pool.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("等待者未进入队列")
		}
		time.Sleep(time.Millisecond)
	}

	pool.Close()

	select {
	case err := <-waitErr:
		if !errors.Is(err, ErrPoolClosed) {
			t.Errorf("关闭后等待者应收到ErrPoolClosed, 实际: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("关闭后等待者未被唤醒")
	}

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("关闭后Acquire应返回ErrPoolClosed, 实际: %v", err)
	}

	// 签出中的标签页归还时直接关闭
	pool.Release(held, true)
	if !held.Page.(*fakePage).isClosed() {
		t.Error("关闭后归还的标签页应被直接关闭")
	}
}
