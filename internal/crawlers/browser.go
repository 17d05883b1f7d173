package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Page 浏览器标签页能力契约
// PagePool和渲染阶段只依赖该接口,不依赖具体浏览器自动化类型
type Page interface {
	// Navigate 导航到URL并等待load事件,受timeout和ctx双重约束
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// HTML 获取当前页面渲染后的HTML
	HTML() (string, error)
	// Eval 在页面中执行JavaScript函数
	Eval(js string) error
	// Close 关闭标签页
	Close() error
}

// BrowserContext 浏览器上下文能力契约
// RestartManager整体替换上下文,PagePool从上下文创建标签页
type BrowserContext interface {
	// NewPage 创建携带指定身份的标签页
	NewPage(identity models.Identity) (Page, error)
	// Close 关闭上下文及其所有标签页
	Close() error
}

// ContextFactory 创建新浏览器上下文的工厂函数,重启时调用
type ContextFactory func() (BrowserContext, error)

// Browser 浏览器进程句柄
type Browser struct {
	browser *rod.Browser
}

// LaunchBrowser 启动浏览器进程
// 启动失败是致命错误,渲染阶段整体中止
func LaunchBrowser(headless bool) (*Browser, error) {
	l := launcher.New().Headless(headless)

	// 跳过证书验证,允许访问自签名或过期证书的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return &Browser{browser: browser}, nil
}

// NewContext 创建隐身上下文
// 每个上下文独立的cookie/缓存空间,整体替换时旧状态一并丢弃
func (b *Browser) NewContext() (BrowserContext, error) {
	inc, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("创建浏览器上下文失败: %w", err)
	}
	return &rodContext{inc: inc}, nil
}

// Close 关闭浏览器进程
func (b *Browser) Close() {
	if b.browser != nil {
		b.browser.MustClose()
		utils.Debugf("浏览器已关闭")
	}
}

// rodContext BrowserContext的rod实现
type rodContext struct {
	inc *rod.Browser
}

// NewPage 创建标签页并应用身份(UA+视口)
// 身份在标签页创建时固定,整个生命周期不再变化
func (c *rodContext) NewPage(identity models.Identity) (Page, error) {
	page, err := c.inc.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: identity.UserAgent,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("设置User-Agent失败: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             identity.ViewportWidth,
		Height:            identity.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("设置视口失败: %w", err)
	}

	return &rodPage{page: page}, nil
}

// Close 释放整个上下文
func (c *rodContext) Close() error {
	err := proto.TargetDisposeBrowserContext{
		BrowserContextID: c.inc.BrowserContextID,
	}.Call(c.inc)
	if err != nil {
		return fmt.Errorf("关闭浏览器上下文失败: %w", err)
	}
	return nil
}

// rodPage Page的rod实现
type rodPage struct {
	page *rod.Page
}

// Navigate 导航并等待load事件
// timeout覆盖导航+load全过程;ctx取消(域名硬超时)同样中断导航
func (p *rodPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	page := p.page.Context(ctx).Timeout(timeout)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	return nil
}

// HTML 获取渲染后的HTML
func (p *rodPage) HTML() (string, error) {
	html, err := p.page.HTML()
	if err != nil {
		return "", fmt.Errorf("获取页面HTML失败: %w", err)
	}
	return html, nil
}

// Eval 执行JavaScript函数
func (p *rodPage) Eval(js string) error {
	_, err := p.page.Evaluate(&rod.EvalOptions{JS: js})
	if err != nil {
		return fmt.Errorf("执行JavaScript失败: %w", err)
	}
	return nil
}

// Close 关闭标签页
func (p *rodPage) Close() error {
	return p.page.Close()
}
