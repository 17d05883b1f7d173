package crawlers

import (
	"fmt"
	"testing"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
)

// TestIdentityRotatorCycles 测试UA和视口独立轮换
func TestIdentityRotatorCycles(t *testing.T) {
	ir := NewIdentityRotator()

	first := ir.Next()
	if first.UserAgent == "" {
		t.Fatal("身份的User-Agent不能为空")
	}
	if first.ViewportWidth <= 0 || first.ViewportHeight <= 0 {
		t.Fatalf("视口尺寸无效: %dx%d", first.ViewportWidth, first.ViewportHeight)
	}

	// UA池和视口池长度互质,一个完整周期内组合不重复
	total := len(userAgentPool) * len(viewportPool)
	seen := make(map[string]bool, total)
	seen[identityKey(first)] = true
	for i := 1; i < total; i++ {
		key := identityKey(ir.Next())
		if seen[key] {
			t.Fatalf("第%d次轮换出现重复组合: %s", i, key)
		}
		seen[key] = true
	}

	// 完整周期后回到起点
	again := ir.Next()
	if identityKey(again) != identityKey(first) {
		t.Errorf("完整周期后应回到第一个组合, 期望%s, 实际%s", identityKey(first), identityKey(again))
	}
}

func identityKey(id models.Identity) string {
	return fmt.Sprintf("%s|%dx%d", id.UserAgent, id.ViewportWidth, id.ViewportHeight)
}

// TestIdentityRotatorUserAgentPeriod 测试UA按池长度循环
func TestIdentityRotatorUserAgentPeriod(t *testing.T) {
	ir := NewIdentityRotator()

	firstUA := ir.Next().UserAgent
	for i := 1; i < len(userAgentPool); i++ {
		if ua := ir.Next().UserAgent; ua == firstUA {
			t.Fatalf("UA在第%d次轮换提前重复", i)
		}
	}
	if ua := ir.Next().UserAgent; ua != firstUA {
		t.Errorf("UA应在%d次后循环, 期望%q, 实际%q", len(userAgentPool), firstUA, ua)
	}
}
