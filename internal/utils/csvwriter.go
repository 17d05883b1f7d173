package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RecoveryAshes/LogoCrawl/internal/models"
)

// resultFlushEvery CSV结果缓冲条数,攒够即落盘
const resultFlushEvery = 10

// ResultWriter Logo结果CSV写入器
// 职责: 增量写入成功结果,进程中途被杀时已解析的域名不丢失
// 并发安全,两阶段的worker回调都会直接写入
type ResultWriter struct {
	mu      sync.Mutex
	file    *os.File
	writer  *csv.Writer
	pending int
	written int
}

// NewResultWriter 创建结果写入器并写入表头
// path为"-"时写入标准输出
func NewResultWriter(path string) (*ResultWriter, error) {
	var file *os.File
	if path == "-" {
		file = os.Stdout
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("创建输出目录失败: %w", err)
			}
		}

		created, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("创建结果文件失败: %w", err)
		}
		file = created
	}

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"domain", "logo_url"}); err != nil {
		if file != os.Stdout {
			file.Close()
		}
		return nil, fmt.Errorf("写入CSV表头失败: %w", err)
	}
	writer.Flush()

	return &ResultWriter{
		file:   file,
		writer: writer,
	}, nil
}

// Write 写入一条成功结果
func (w *ResultWriter) Write(outcome models.CrawlOutcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write([]string{outcome.Domain, outcome.LogoURL}); err != nil {
		return fmt.Errorf("写入结果行失败: %w", err)
	}
	w.written++
	w.pending++

	if w.pending >= resultFlushEvery {
		w.writer.Flush()
		w.pending = 0
	}
	return w.writer.Error()
}

// Written 返回已写入的结果条数
func (w *ResultWriter) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close 刷新缓冲并关闭文件,标准输出只刷新不关闭
func (w *ResultWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if w.file == os.Stdout {
		return w.writer.Error()
	}
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// WriteFailedDomains 将最终失败/阻断的域名写入CSV
// 一次性写入,运行结束时调用
func WriteFailedDomains(path string, outcomes []models.CrawlOutcome) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建失败列表文件失败: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"domain", "reason"}); err != nil {
		return fmt.Errorf("写入CSV表头失败: %w", err)
	}
	for _, o := range outcomes {
		if err := writer.Write([]string{o.Domain, o.Reason}); err != nil {
			return fmt.Errorf("写入失败行失败: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
