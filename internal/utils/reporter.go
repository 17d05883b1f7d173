package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 运行报告生成器
// 职责: 在一次爬取运行结束后输出JSON格式的汇总报告
type Reporter struct {
	outputDir string
	runID     string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, runID string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		runID:     runID,
	}
}

// runReport 运行报告的JSON结构
type runReport struct {
	RunID           string                `json:"run_id"`
	StartTime       time.Time             `json:"start_time"`
	EndTime         time.Time             `json:"end_time"`
	DurationSeconds float64               `json:"duration_seconds"`
	TotalDomains    int                   `json:"total_domains"`
	StaticFound     int                   `json:"static_found"`
	RenderFound     int                   `json:"render_found"`
	Failed          int                   `json:"failed"`
	Blocked         int                   `json:"blocked"`
	BrowserRestarts int                   `json:"browser_restarts"`
	Resolved        []models.CrawlOutcome `json:"resolved"`
	Unresolved      []models.CrawlOutcome `json:"unresolved"`
}

// GenerateReport 生成运行报告
func (r *Reporter) GenerateReport(summary models.RunSummary, resolved, unresolved []models.CrawlOutcome) error {
	reportsDir := filepath.Join(r.outputDir, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	endTime := time.Now()
	report := runReport{
		RunID:           summary.RunID,
		StartTime:       endTime.Add(-summary.Duration),
		EndTime:         endTime,
		DurationSeconds: summary.Duration.Seconds(),
		TotalDomains:    summary.TotalDomains,
		StaticFound:     summary.StaticFound,
		RenderFound:     summary.RenderFound,
		Failed:          summary.Failed,
		Blocked:         summary.Blocked,
		BrowserRestarts: summary.BrowserRestarts,
		Resolved:        resolved,
		Unresolved:      unresolved,
	}

	filename := fmt.Sprintf("crawl_report_%s.json", r.runID)
	if err := r.saveJSONReport(reportsDir, filename, report); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", filepath.Join(reportsDir, filename))
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
// 进度条走标准错误,避免污染标准输出上的CSV结果流
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
