package crawlers

import "strings"

// captchaMarkers 验证码/挑战页的HTML特征标记
// 覆盖reCAPTCHA、hCaptcha、Cloudflare和通用挑战页
var captchaMarkers = []string{
	// reCAPTCHA
	"google.com/recaptcha",
	"g-recaptcha",
	"id=\"recaptcha",
	// hCaptcha
	"hcaptcha.com",
	"h-captcha",
	"id=\"hcaptcha",
	// Cloudflare
	"cf-wrapper",
	"challenge-running",
	"challenge-form",
	"cf-browser-verification",
	// 通用挑战页元素
	"challenge-stage",
	"captcha-container",
	"class=\"captcha",
	"id=\"captcha",
}

// captchaTextMarkers 验证码/挑战页的可见文本特征
var captchaTextMarkers = []string{
	"verify you are human",
	"are you a robot",
	"please verify",
	"security check",
	"checking your browser",
	"just a moment",
	"ddos protection",
	"attention required",
	"access denied",
}

// CaptchaDetector 验证码检测器
// 职责: 检查响应HTML或渲染后的页面内容是否命中已知挑战标记
// 命中后调用方记录BLOCKED状态,不做无限重试
type CaptchaDetector struct{}

// NewCaptchaDetector 创建验证码检测器
func NewCaptchaDetector() *CaptchaDetector {
	return &CaptchaDetector{}
}

// IsBlocked 判断内容是否为验证码/挑战页
// content可以是原始HTML(静态阶段)或渲染后的页面快照(渲染阶段)
func (cd *CaptchaDetector) IsBlocked(content string) bool {
	if content == "" {
		return false
	}

	lower := strings.ToLower(content)

	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	for _, marker := range captchaTextMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}
