package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/LogoCrawl/internal/core"
	"github.com/RecoveryAshes/LogoCrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 输入输出参数
	inputFile    string
	resultFile   string
	failedOutput string

	// 爬取参数
	maxDomains    int
	renderTabs    int
	restartEvery  int
	domainTimeout int
	navTimeout    int
	pageMaxUses   int
	delayMin      int
	delayMax      int
	headless      bool
)

var rootCmd = &cobra.Command{
	Use:   "logocrawl",
	Short: "网站Logo批量爬取工具",
	Long: `LogoCrawl - 高性能网站Logo批量爬取工具 (Go版本)

从域名列表批量提取网站Logo URL,支持:
  • 两阶段爬取: 静态HTTP优先,无头浏览器渲染兜底
  • 启动时按CPU/内存自动计算并发预算
  • User-Agent与视口轮换、请求随机节流
  • 验证码/挑战页检测
  • 浏览器上下文定期重启防止内存膨胀
  • 成功结果增量落盘,中途退出不丢数据

使用示例:
  # 从文件读取域名列表,结果写入CSV文件
  logocrawl -i domains.txt -o logos.csv

  # 从标准输入读取,结果输出到标准输出
  cat domains.txt | logocrawl > logos.csv

  # 调整渲染标签页数和单域名超时
  logocrawl -i domains.txt --tabs 8 --domain-timeout 15000

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 加载并合并配置
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig.MergeCLIFlags(core.CLIFlags{
			MaxDomains:    maxDomains,
			RenderTabs:    renderTabs,
			RestartEvery:  restartEvery,
			DomainTimeout: domainTimeout,
			NavTimeout:    navTimeout,
			PageMaxUses:   pageMaxUses,
			DelayMin:      delayMin,
			DelayMax:      delayMax,
			Headless:      headless,
			HeadlessSet:   cmd.Flags().Changed("headless"),
			FailedOutput:  failedOutput,
			ResultFile:    resultFile,
		})

		if err := ValidateFlags(appConfig); err != nil {
			return err
		}

		// 读取域名列表,未指定输入文件时从标准输入读取
		var domains []string
		if inputFile == "" {
			domains, err = utils.ReadDomains(os.Stdin, appConfig.Crawl.MaxDomains)
			if err != nil {
				return fmt.Errorf("读取标准输入失败: %w", err)
			}
		} else {
			file, err := os.Open(inputFile)
			if err != nil {
				return fmt.Errorf("打开域名文件失败: %w", err)
			}
			domains, err = utils.ReadDomains(file, appConfig.Crawl.MaxDomains)
			file.Close()
			if err != nil {
				return fmt.Errorf("读取域名文件失败: %w", err)
			}
		}
		if len(domains) == 0 {
			return fmt.Errorf("输入中没有有效域名")
		}

		// 信号处理: 第一次Ctrl+C优雅取消,第二次强制退出
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 2)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			cancel()
			<-sigChan
			utils.Warn("再次收到中断信号, 强制退出")
			os.Exit(1)
		}()

		// 执行爬取
		coordinator := core.NewCrawlCoordinator(appConfig)
		summary, err := coordinator.Run(ctx, domains)

		// 显示统计结果(走标准错误,标准输出留给CSV结果流)
		fmt.Fprintln(os.Stderr, "\n==================================================")
		fmt.Fprintln(os.Stderr, "📊 爬取统计")
		fmt.Fprintln(os.Stderr, "==================================================")
		fmt.Fprintf(os.Stderr, "✅ 输入域名数: %d\n", summary.TotalDomains)
		fmt.Fprintf(os.Stderr, "✅ 静态阶段找到: %d\n", summary.StaticFound)
		fmt.Fprintf(os.Stderr, "✅ 渲染阶段找到: %d\n", summary.RenderFound)
		fmt.Fprintf(os.Stderr, "❌ 失败域名: %d\n", summary.Failed)
		fmt.Fprintf(os.Stderr, "🚫 验证码阻断: %d\n", summary.Blocked)
		fmt.Fprintf(os.Stderr, "🔄 浏览器重启次数: %d\n", summary.BrowserRestarts)
		fmt.Fprintf(os.Stderr, "⏱️  总耗时: %.2f秒\n", summary.Duration.Seconds())
		fmt.Fprintln(os.Stderr, "==================================================")

		if err != nil {
			return fmt.Errorf("爬取过程出现故障: %w", err)
		}

		utils.Info("✨ 爬取任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("LogoCrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 高性能网站Logo爬取工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 输入输出参数
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "域名列表文件路径 (缺省从标准输入读取)")
	rootCmd.Flags().StringVarP(&resultFile, "output", "o", "", "Logo结果CSV输出路径 (\"-\"为标准输出)")
	rootCmd.Flags().StringVar(&failedOutput, "failed-output", "", "失败域名列表CSV输出路径")

	// 爬取参数
	rootCmd.Flags().IntVar(&maxDomains, "max-domains", 0, "输入域名数量上限")
	rootCmd.Flags().IntVar(&renderTabs, "tabs", 0, "渲染阶段标签页数量")
	rootCmd.Flags().IntVar(&restartEvery, "restart-every", 0, "每处理N个域名重启浏览器上下文")
	rootCmd.Flags().IntVar(&domainTimeout, "domain-timeout", 0, "单域名硬超时(毫秒)")
	rootCmd.Flags().IntVar(&navTimeout, "nav-timeout", 0, "单次导航超时(毫秒)")
	rootCmd.Flags().IntVar(&pageMaxUses, "page-max-uses", 0, "标签页复用次数上限")
	rootCmd.Flags().IntVar(&delayMin, "delay-min", 0, "请求最小间隔(毫秒)")
	rootCmd.Flags().IntVar(&delayMax, "delay-max", 0, "请求最大间隔(毫秒)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
