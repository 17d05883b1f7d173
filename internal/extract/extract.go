// Package extract 从HTML中定位站点Logo
// 对外契约是纯函数 Logo(html, baseURL) -> (url, found),
// 静态阶段和渲染阶段以完全相同的方式调用
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// styleURLRe 提取内联样式中的background-image url(...)
var styleURLRe = regexp.MustCompile(`(?i)url\((.*?)\)`)

// imageExtensions 常见图片扩展名
var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".bmp", ".avif", ".apng",
}

// excludePatterns 明显不是Logo的URL特征
var excludePatterns = []string{
	"avatar", "placeholder", "blank", "spacer", "pixel", "tracking", "1x1", "transparent",
}

// lazyAttrs 懒加载图片的常见属性
var lazyAttrs = []string{"data-src", "data-lazy-src", "data-original", "data-url"}

// Logo 在HTML中查找第一个可用的Logo资源
// 查找顺序: <img>标签 → 内联样式background-image → 内联SVG
// 未找到时返回("", false),绝不返回空字符串的"成功"结果
func Logo(html, baseURL string) (string, bool) {
	if html == "" || baseURL == "" {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	// 1) <img>标签(含懒加载属性和srcset)
	var found string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src := strings.TrimSpace(sel.AttrOr("src", ""))

		if src == "" {
			for _, attr := range lazyAttrs {
				if v := strings.TrimSpace(sel.AttrOr(attr, "")); v != "" {
					src = v
					break
				}
			}
		}

		if src == "" {
			if srcset := sel.AttrOr("srcset", ""); srcset != "" {
				src = firstSrcsetEntry(srcset)
			}
		}

		if src == "" {
			return true
		}

		full := normalizeURL(baseURL, src)
		if strings.HasPrefix(full, "data:") || isValidImageURL(full) {
			found = full
			return false
		}
		return true
	})
	if found != "" {
		return found, true
	}

	// 2) 内联样式中的background-image
	doc.Find("[style]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		style := sel.AttrOr("style", "")
		if !strings.Contains(strings.ToLower(style), "url(") {
			return true
		}
		for _, m := range styleURLRe.FindAllStringSubmatch(style, -1) {
			raw := strings.Trim(strings.TrimSpace(m[1]), `"'`)
			if raw == "" {
				continue
			}
			full := normalizeURL(baseURL, raw)
			if strings.HasPrefix(full, "data:") || isValidImageURL(full) {
				found = full
				return false
			}
		}
		return true
	})
	if found != "" {
		return found, true
	}

	// 3) 内联SVG,转为data URL
	doc.Find("svg").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		inner, err := goquery.OuterHtml(sel)
		if err != nil {
			return true
		}
		inner = strings.TrimSpace(inner)
		if len(inner) < 30 {
			return true
		}
		found = "data:image/svg+xml;utf8," + inner
		return false
	})
	if found != "" {
		return found, true
	}

	return "", false
}

// firstSrcsetEntry 取srcset中第一个URL
func firstSrcsetEntry(srcset string) string {
	for _, part := range strings.Split(srcset, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// normalizeURL 把相对/协议相对URL归一化为绝对URL
// data: URL原样保留
func normalizeURL(baseURL, raw string) string {
	raw = strings.Trim(strings.TrimSpace(raw), `"'`)
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "data:") {
		return raw
	}

	if strings.HasPrefix(raw, "//") {
		if parsed, err := url.Parse(baseURL); err == nil && parsed.Scheme != "" {
			return parsed.Scheme + ":" + raw
		}
		return "https:" + raw
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// isValidImageURL 判断URL是否像一个可用的Logo图片
func isValidImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > 2048 {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" && parsed.Scheme != "data" {
		return false
	}

	lower := strings.ToLower(raw)
	path := strings.ToLower(parsed.Path)
	if path == "" {
		path = lower
	}

	hasExtension := false
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			hasExtension = true
			break
		}
	}

	looksLikeImage := hasExtension ||
		strings.HasPrefix(raw, "data:image/") ||
		strings.Contains(path, "/logo") ||
		strings.Contains(path, "/icon")

	for _, pattern := range excludePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	return looksLikeImage
}
