package crawlers

import (
	"testing"
)

// TestCaptchaDetectorIsBlocked 测试验证码/挑战页检测
func TestCaptchaDetectorIsBlocked(t *testing.T) {
	cd := NewCaptchaDetector()

	tests := []struct {
		name    string
		content string
		blocked bool
	}{
		{
			name:    "reCAPTCHA脚本",
			content: `<html><script src="https://www.google.com/recaptcha/api.js"></script></html>`,
			blocked: true,
		},
		{
			name:    "reCAPTCHA容器",
			content: `<div class="g-recaptcha" data-sitekey="xxx"></div>`,
			blocked: true,
		},
		{
			name:    "hCaptcha脚本",
			content: `<script src="https://js.hcaptcha.com/1/api.js"></script>`,
			blocked: true,
		},
		{
			name:    "Cloudflare挑战页",
			content: `<div id="cf-wrapper"><span>Checking your browser</span></div>`,
			blocked: true,
		},
		{
			name:    "Cloudflare挑战表单",
			content: `<form class="challenge-form" action="/cdn-cgi/xxx"></form>`,
			blocked: true,
		},
		{
			name:    "人机验证提示文本",
			content: `<html><body><p>Please verify you are human to continue.</p></body></html>`,
			blocked: true,
		},
		{
			name:    "大小写不敏感",
			content: `<DIV CLASS="G-RECAPTCHA"></DIV>`,
			blocked: true,
		},
		{
			name:    "正常页面",
			content: `<html><head><title>Welcome</title></head><body><img src="/logo.png"></body></html>`,
			blocked: false,
		},
		{
			name:    "正常页面提到captcha一词但无标记",
			content: `<html><body><article>How image recognition improved over the years.</article></body></html>`,
			blocked: false,
		},
		{
			name:    "空内容",
			content: "",
			blocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cd.IsBlocked(tt.content); got != tt.blocked {
				t.Errorf("IsBlocked() = %v, 期望 %v", got, tt.blocked)
			}
		})
	}
}
