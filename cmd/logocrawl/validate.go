package main

import (
	"fmt"

	"github.com/RecoveryAshes/LogoCrawl/internal/core"
)

// ValidateFlags 验证合并后的运行配置
func ValidateFlags(config *core.Config) error {
	// 验证标签页数
	if config.Crawl.RenderTabs < 1 || config.Crawl.RenderTabs > 20 {
		return fmt.Errorf("标签页数必须在1-20之间,当前值: %d", config.Crawl.RenderTabs)
	}

	// 其余约束统一由配置校验兜底
	if err := config.Crawl.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	if config.Output.ResultFile == "" {
		return fmt.Errorf("结果输出路径不能为空")
	}

	return nil
}
