package extract

import (
	"strings"
	"testing"
)

// TestLogo 测试Logo定位的各条路径
func TestLogo(t *testing.T) {
	const base = "https://example.com"

	tests := []struct {
		name  string
		html  string
		want  string
		found bool
	}{
		{
			name:  "img相对路径",
			html:  `<html><body><img src="/static/logo.png"></body></html>`,
			want:  "https://example.com/static/logo.png",
			found: true,
		},
		{
			name:  "img绝对路径",
			html:  `<img src="https://cdn.example.com/brand/logo.svg">`,
			want:  "https://cdn.example.com/brand/logo.svg",
			found: true,
		},
		{
			name:  "协议相对URL",
			html:  `<img src="//cdn.example.com/logo.webp">`,
			want:  "https://cdn.example.com/logo.webp",
			found: true,
		},
		{
			name:  "懒加载data-src",
			html:  `<img data-src="/img/logo.png" class="lazyload">`,
			want:  "https://example.com/img/logo.png",
			found: true,
		},
		{
			name:  "srcset取第一个",
			html:  `<img srcset="/logo-2x.png 2x, /logo-3x.png 3x">`,
			want:  "https://example.com/logo-2x.png",
			found: true,
		},
		{
			name:  "data URL原样返回",
			html:  `<img src="data:image/png;base64,iVBORw0KGgo=">`,
			want:  "data:image/png;base64,iVBORw0KGgo=",
			found: true,
		},
		{
			name:  "背景图样式",
			html:  `<div class="brand" style="background-image: url('/assets/logo.jpg')"></div>`,
			want:  "https://example.com/assets/logo.jpg",
			found: true,
		},
		{
			name:  "无扩展名但路径含logo",
			html:  `<img src="/cdn/logo?v=3">`,
			want:  "https://example.com/cdn/logo?v=3",
			found: true,
		},
		{
			name:  "跳过追踪像素取后面的图",
			html:  `<img src="/pixel.gif"><img src="/real-logo.png">`,
			want:  "https://example.com/real-logo.png",
			found: true,
		},
		{
			name:  "跳过头像",
			html:  `<img src="/user/avatar.png">`,
			found: false,
		},
		{
			name:  "非图片路径不命中",
			html:  `<img src="/download/report.pdf">`,
			found: false,
		},
		{
			name:  "无任何图像",
			html:  `<html><body><p>text only</p></body></html>`,
			found: false,
		},
		{
			name:  "空HTML",
			html:  "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Logo(tt.html, base)
			if found != tt.found {
				t.Fatalf("found = %v, 期望 %v (got=%q)", found, tt.found, got)
			}
			if found && got != tt.want {
				t.Errorf("Logo() = %q, 期望 %q", got, tt.want)
			}
		})
	}
}

// TestLogoInlineSVG 测试内联SVG兜底转data URL
func TestLogoInlineSVG(t *testing.T) {
	html := `<html><body><a class="brand">
<svg viewBox="0 0 100 40" xmlns="http://www.w3.org/2000/svg"><path d="M0 0h100v40H0z"/></svg>
</a></body></html>`

	got, found := Logo(html, "https://example.com")
	if !found {
		t.Fatal("内联SVG应被识别为Logo")
	}
	if !strings.HasPrefix(got, "data:image/svg+xml;utf8,") {
		t.Errorf("SVG应转为data URL, 实际: %q", got)
	}
	if !strings.Contains(got, "<svg") {
		t.Errorf("data URL应携带SVG内容: %q", got)
	}
}

// TestLogoPriority 测试img优先于背景图和SVG
func TestLogoPriority(t *testing.T) {
	html := `<html><body>
<div style="background-image: url('/bg-logo.png')"></div>
<svg viewBox="0 0 10 10" xmlns="http://www.w3.org/2000/svg"><rect width="10" height="10"/></svg>
<img src="/img-logo.png">
</body></html>`

	got, found := Logo(html, "https://example.com")
	if !found {
		t.Fatal("应找到Logo")
	}
	if got != "https://example.com/img-logo.png" {
		t.Errorf("img标签应优先命中, 实际: %q", got)
	}
}

// TestLogoEmptyNeverSucceeds 测试绝不返回空URL的成功结果
func TestLogoEmptyNeverSucceeds(t *testing.T) {
	cases := []string{
		`<img src="">`,
		`<img>`,
		`<div style="background-image: url('')"></div>`,
	}
	for _, html := range cases {
		if got, found := Logo(html, "https://example.com"); found {
			t.Errorf("HTML %q 不应产生成功结果(got=%q)", html, got)
		}
	}
}
