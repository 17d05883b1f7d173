package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// ExtractFunc Logo提取器契约: 纯函数,两个阶段以相同方式调用
type ExtractFunc func(html, baseURL string) (logoURL string, found bool)

// minUsableHTML 响应体小于该长度视为无效页面
const minUsableHTML = 50

// urlVariants 单个域名依次尝试的URL变体
func urlVariants(domain string) []string {
	return []string{
		"https://" + domain,
		"https://www." + domain,
		"http://" + domain,
		"http://www." + domain,
	}
}

// StaticResult 静态阶段结果
type StaticResult struct {
	Resolved []models.CrawlOutcome // 成功找到Logo的域名
	Forward  []string              // 进入渲染阶段的域名(未解析+静态阻断)
	Blocked  int                   // 静态阶段命中验证码的域名数(已记录,仍转发渲染阶段)
}

// StaticPhase 静态爬取阶段编排器
// 职责: 用固定数量的worker对全部域名做纯HTTP抓取+Logo提取
// 每个worker串行处理域名,共享节流器和身份轮换器
// 阶段内不重试;网络错误/超时/非2xx/无Logo都转发给渲染阶段
type StaticPhase struct {
	config   models.CrawlConfig
	workers  int
	limiter  *RateLimiter
	rotator  *IdentityRotator
	detector *CaptchaDetector
	extract  ExtractFunc

	// 测试注入点: 域名到URL变体的构造
	variants func(domain string) []string
}

// NewStaticPhase 创建静态阶段编排器
func NewStaticPhase(config models.CrawlConfig, workers int, limiter *RateLimiter, rotator *IdentityRotator, detector *CaptchaDetector, extract ExtractFunc) *StaticPhase {
	if workers < 1 {
		workers = 1
	}
	return &StaticPhase{
		config:   config,
		workers:  workers,
		limiter:  limiter,
		rotator:  rotator,
		detector: detector,
		extract:  extract,
		variants: urlVariants,
	}
}

// Run 运行静态阶段
// 所有域名处理完毕(队列排空、worker全部退出)后才返回
// onDone在每个域名得到结果时回调,用于进度显示和增量输出
func (sp *StaticPhase) Run(ctx context.Context, domains []string, onDone func(models.CrawlOutcome)) (*StaticResult, error) {
	startTime := time.Now()

	workers := sp.workers
	if workers > len(domains) {
		workers = len(domains)
	}

	utils.Infof("🔍 静态爬取阶段启动: %d个域名, %d个worker", len(domains), workers)

	queue := NewDomainQueue(len(domains))
	for _, d := range domains {
		if err := queue.Push(d); err != nil {
			utils.Warnf("域名入队失败 [%s]: %v", d, err)
		}
	}
	queue.Close()

	result := &StaticResult{}
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			// 每个worker独立的HTTP抓取器,串行复用
			fetcher := newStaticFetcher(sp.config)

			for {
				domain, ok := queue.Pop(ctx)
				if !ok {
					return
				}

				outcome := sp.crawlDomain(ctx, fetcher, domain)

				mu.Lock()
				switch outcome.Status {
				case models.StatusFound:
					result.Resolved = append(result.Resolved, outcome)
				case models.StatusBlocked:
					// 静态阶段的阻断不是终态,记录后仍转发渲染阶段
					result.Blocked++
					result.Forward = append(result.Forward, domain)
				default:
					result.Forward = append(result.Forward, domain)
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
	utils.Infof("✅ 静态爬取阶段完成: 解析成功%d, 转发渲染阶段%d (其中阻断%d), 耗时%.1f秒",
		len(result.Resolved), len(result.Forward), result.Blocked, duration.Seconds())

	return result, ctx.Err()
}

// crawlDomain 处理单个域名
// 依次尝试URL变体,第一个返回可用HTML的变体决定结果;所有变体失败则UNRESOLVED
// 每次请求前等待节流槽位并换一个身份
func (sp *StaticPhase) crawlDomain(ctx context.Context, fetcher *staticFetcher, domain string) models.CrawlOutcome {
	for _, target := range sp.variants(domain) {
		if err := sp.limiter.Wait(ctx); err != nil {
			return models.CrawlOutcome{
				Domain: domain,
				Phase:  models.PhaseStatic,
				Status: models.StatusUnresolved,
				Reason: "已取消",
			}
		}

		html, status, err := fetcher.fetch(target, sp.rotator.Next())
		if err != nil {
			utils.Debugf("静态抓取失败 [%s]: %v", target, err)
			continue
		}
		if status >= 400 {
			utils.Debugf("静态抓取非2xx [%s]: HTTP %d", target, status)
			continue
		}
		if len(strings.TrimSpace(html)) < minUsableHTML {
			utils.Debugf("响应内容过短 [%s]: %d字节", target, len(html))
			continue
		}

		if sp.detector.IsBlocked(html) {
			utils.Warnf("静态阶段检测到验证码/挑战页 [%s],转发渲染阶段", domain)
			return models.CrawlOutcome{
				Domain: domain,
				Phase:  models.PhaseStatic,
				Status: models.StatusBlocked,
				Reason: "检测到验证码/挑战页",
			}
		}

		if logoURL, found := sp.extract(html, target); found {
			utils.Debugf("静态阶段找到Logo [%s]: %s", domain, logoURL)
			return models.CrawlOutcome{
				Domain:  domain,
				LogoURL: logoURL,
				Phase:   models.PhaseStatic,
				Status:  models.StatusFound,
			}
		}

		return models.CrawlOutcome{
			Domain: domain,
			Phase:  models.PhaseStatic,
			Status: models.StatusUnresolved,
			Reason: "页面加载成功但未找到Logo",
		}
	}

	return models.CrawlOutcome{
		Domain: domain,
		Phase:  models.PhaseStatic,
		Status: models.StatusUnresolved,
		Reason: "所有URL变体均获取失败",
	}
}

// staticFetcher 单worker的HTTP抓取器
// 基于Colly,worker内串行复用,不跨worker共享
type staticFetcher struct {
	collector *colly.Collector

	// 单次fetch的瞬时状态,worker串行访问
	identity models.Identity
	status   int
	body     []byte
	fetchErr error
}

// newStaticFetcher 创建抓取器
// 自定义HTTP客户端: 禁用TLS证书验证,连接和读取超时分开控制
func newStaticFetcher(config models.CrawlConfig) *staticFetcher {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // 允许访问自签名、过期或主机名不匹配的HTTPS站点
			},
			DialContext: (&net.Dialer{
				Timeout: time.Duration(config.ConnectTimeout) * time.Second,
			}).DialContext,
		},
		Timeout: config.HTTPTimeout(),
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	c.SetClient(httpClient)
	c.SetRequestTimeout(config.HTTPTimeout())

	sf := &staticFetcher{collector: c}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", sf.identity.UserAgent)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
	})

	c.OnResponse(func(r *colly.Response) {
		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", r.Request.URL, encoding, err)
			} else {
				body = decompressed
			}
		}
		sf.status = r.StatusCode
		sf.body = body
	})

	c.OnError(func(r *colly.Response, err error) {
		sf.fetchErr = err
		if r != nil {
			sf.status = r.StatusCode
		}
	})

	return sf
}

// fetch 同步抓取单个URL,返回(解压后的HTML, 状态码, 错误)
func (sf *staticFetcher) fetch(target string, identity models.Identity) (string, int, error) {
	sf.identity = identity
	sf.status = 0
	sf.body = nil
	sf.fetchErr = nil

	if err := sf.collector.Visit(target); err != nil {
		return "", 0, err
	}
	if sf.fetchErr != nil {
		return "", sf.status, sf.fetchErr
	}
	return string(sf.body), sf.status, nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		// 未知编码,返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
