package crawlers

import (
	"testing"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
)

// TestStaticWorkersBudget 测试静态worker预算计算
func TestStaticWorkersBudget(t *testing.T) {
	rp := NewResourceProbe(models.DefaultCrawlConfig())

	tests := []struct {
		name        string
		cpuCount    int
		availableMB int
		want        int
	}{
		{
			name:        "CPU受限",
			cpuCount:    8,
			availableMB: 64 * 1024, // 内存足够, 4×8=32
			want:        32,
		},
		{
			name:        "内存受限",
			cpuCount:    16,
			availableMB: 3200, // 3200×0.75/120=20 < 4×16
			want:        20,
		},
		{
			name:        "低配机器夹到下限",
			cpuCount:    1,
			availableMB: 512,
			want:        10,
		},
		{
			name:        "高配机器夹到上限",
			cpuCount:    64,
			availableMB: 256 * 1024,
			want:        120,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rp.staticWorkers(tt.cpuCount, tt.availableMB); got != tt.want {
				t.Errorf("staticWorkers(%d, %d) = %d, 期望 %d", tt.cpuCount, tt.availableMB, got, tt.want)
			}
		})
	}
}

// TestRenderTabsBudget 测试渲染标签页预算计算
func TestRenderTabsBudget(t *testing.T) {
	cfg := models.DefaultCrawlConfig()
	cfg.RenderTabs = 8
	rp := NewResourceProbe(cfg)

	tests := []struct {
		name        string
		cpuCount    int
		availableMB int
		want        int
	}{
		{
			name:        "CPU基准但受配置值封顶",
			cpuCount:    16,
			availableMB: 64 * 1024,
			want:        8, // min(16, 内存充足) 夹到配置的8
		},
		{
			name:        "内存受限",
			cpuCount:    8,
			availableMB: 2000, // 2000×0.6/400=3
			want:        3,
		},
		{
			name:        "单核保底2个",
			cpuCount:    1,
			availableMB: 64 * 1024,
			want:        2,
		},
		{
			name:        "极低内存仍保底2个",
			cpuCount:    4,
			availableMB: 400,
			want:        2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rp.renderTabs(tt.cpuCount, tt.availableMB); got != tt.want {
				t.Errorf("renderTabs(%d, %d) = %d, 期望 %d", tt.cpuCount, tt.availableMB, got, tt.want)
			}
		})
	}
}

// TestComputeBudgetNeverZero 测试预算字段永不为0
func TestComputeBudgetNeverZero(t *testing.T) {
	budget := NewResourceProbe(models.DefaultCrawlConfig()).ComputeBudget()
	if budget.StaticWorkers < 1 || budget.RenderTabs < 1 {
		t.Errorf("预算字段不能为0: %+v", budget)
	}
}
