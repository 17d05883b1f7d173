package crawlers

import (
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
)

// ConsentFunc Cookie弹窗处理函数,每次导航后调用一次
// 尽力而为,任何失败都不中断爬取流程
type ConsentFunc func(page Page)

// consentClickJS 在页面内查找并点击Cookie同意按钮
// 先按文本匹配button,再按id/class属性匹配,点击第一个可见元素后立即返回
const consentClickJS = `() => {
	const texts = ["accept all", "accept", "agree", "ok", "reject all", "reject"];

	const visible = (el) => {
		if (!el || typeof el.getBoundingClientRect !== "function") return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};

	// 按钮文本匹配
	const buttons = document.querySelectorAll("button, [role=button]");
	for (const btn of buttons) {
		const label = (btn.innerText || "").trim().toLowerCase();
		if (!label || label.length > 32) continue;
		for (const t of texts) {
			if (label === t || label.startsWith(t + " ")) {
				if (visible(btn)) {
					try { btn.click(); } catch (e) { /* ignore */ }
					return true;
				}
			}
		}
	}

	// id/class属性匹配
	const attrTargets = document.querySelectorAll('[id*="accept"], [class*="accept"]');
	for (const el of attrTargets) {
		if ((el.tagName === "BUTTON" || el.tagName === "A") && visible(el)) {
			try { el.click(); } catch (e) { /* ignore */ }
			return true;
		}
	}

	return false;
}`

// DismissConsent 默认Cookie弹窗处理实现
// 失败只记Debug日志,弹窗处理绝不导致爬取失败
func DismissConsent(page Page) {
	if err := page.Eval(consentClickJS); err != nil {
		utils.Debugf("Cookie弹窗处理失败: %v", err)
	}
}
