package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"regionstruct/config"
	"regionstruct/interactive"
	"regionstruct/message"
	"regionstruct/pipeline"
	"regionstruct/utils"
)

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Printf("⚠️  加载配置失败: %v\n", err)
		cfg = config.Default() // 使用默认配置
	}
	return cfg
}

func loadMessages(cfg *config.Config) *message.Messages {
	msgs, err := message.LoadMessages("message", cfg.General.Language)
	if err != nil {
		fmt.Printf("⚠️  加载语言文件失败: %v\n", err)
	}
	return msgs
}

func main() {
	var (
		inputDir        string
		outputDir       string
		outputFormat    string
		workers         int
		structureHeight int
		schedule        string
		configPath      string
		interactiveMode bool
		noClean         bool
	)

	var rootCmd = &cobra.Command{
		Use:   "regionstruct",
		Short: "RegionStruct - 将Minecraft区域文件转换为结构文件",
		Long:  `RegionStruct 读取存档中的 .mca 区域文件，把每个区块按高度切分并保存为结构文件（nbt、json、cbor），可进一步打包为放置数据包`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(configPath)

			// 进入设置模式
			if cmd.Flags().Changed("set") {
				interactive.ShowSettingsMenu(cfg, configPath)
				return
			}

			// 命令行参数覆盖配置
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.General.RegionDirectory = inputDir
			}
			if flags.Changed("output") {
				cfg.General.OutputDirectory = outputDir
			}
			if flags.Changed("format") {
				cfg.General.Format = outputFormat
			}
			if flags.Changed("workers") {
				cfg.Extract.Workers = workers
			}
			if flags.Changed("height") {
				cfg.Extract.StructureHeight = structureHeight
			}
			if flags.Changed("schedule") {
				cfg.Extract.Schedule = schedule
			}
			if noClean {
				cfg.Extract.CleanOutput = false
			}
			if err := cfg.Validate(); err != nil {
				fmt.Printf("%s❌ %v%s\n", utils.Red, err, utils.Reset)
				os.Exit(1)
			}
			msgs := loadMessages(cfg)

			// 创建资源监控器
			resourceMonitor := utils.NewResourceMonitor()

			// 检查是否启用交互模式，或者没有提供输入目录
			if interactiveMode || !flags.Changed("input") {
				interactive.RunInteractiveMode(cfg, msgs, resourceMonitor, true)
				return
			}

			interactive.DisplayLogo(cfg)
			useColor := cfg.UI.ColoredOutput
			fmt.Println(utils.ColoredPrintf(utils.Cyan, "⚙️  使用配置: 语言=%s, 区域目录=%s, 输出目录=%s, 格式=%s", useColor,
				cfg.General.Language, cfg.General.RegionDirectory, cfg.General.OutputDirectory, cfg.General.Format))

			// 验证输入目录
			if info, err := os.Stat(cfg.General.RegionDirectory); err != nil || !info.IsDir() {
				fmt.Printf("%s❌ 区域目录不存在: %s%s\n", utils.Red, cfg.General.RegionDirectory, utils.Reset)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			resourceMonitor.Start()
			summary, err := pipeline.Extract(ctx, cfg, msgs)
			if summary != nil {
				pipeline.PrintSummary(summary, msgs, useColor)
			}
			resourceMonitor.ShowMaxResourceUsage()
			if err != nil {
				fmt.Printf("%s❌ %s: %v%s\n", utils.Red, msgs.Get("error"), err, utils.Reset)
				os.Exit(1)
			}
		},
	}

	// 添加命令行标志
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "配置文件路径 (.json 或 .yaml)")
	rootCmd.Flags().StringVarP(&inputDir, "input", "i", "", "区域文件目录")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "结构输出目录")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "nbt", "输出格式 (nbt, json, cbor)")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 12, "并行处理的区域数")
	rootCmd.Flags().IntVarP(&structureHeight, "height", "H", 48, "每个结构的高度")
	rootCmd.Flags().StringVar(&schedule, "schedule", "enumerate", "区域调度方式 (enumerate, round_robin, shuffle)")
	rootCmd.Flags().BoolVarP(&interactiveMode, "interactive", "I", false, "启用交互式模式")
	rootCmd.Flags().BoolVar(&noClean, "no-clean", false, "运行前不清空输出目录")
	rootCmd.Flags().Bool("set", false, "进入设置模式")

	rootCmd.AddCommand(newDatapackCmd(&configPath), newVerifyCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("❌ 命令执行失败: %v\n", err)
		os.Exit(1)
	}
}

func newDatapackCmd(configPath *string) *cobra.Command {
	var (
		structDir string
		outDir    string
		splits    int
	)
	cmd := &cobra.Command{
		Use:   "datapack",
		Short: "把结构目录打包成放置数据包",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			if structDir == "" {
				structDir = cfg.General.OutputDirectory
			}
			if outDir == "" {
				outDir = cfg.Datapack.OutputDirectory
			}
			if cmd.Flags().Changed("splits") {
				cfg.Datapack.Splits = splits
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err := pipeline.BuildDatapacks(cfg, loadMessages(cfg), structDir, outDir)
			return err
		},
	}
	cmd.Flags().StringVarP(&structDir, "structures", "s", "", "结构文件目录（默认为配置中的输出目录）")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "数据包输出目录")
	cmd.Flags().IntVarP(&splits, "splits", "n", 1, "拆分成几个数据包")
	return cmd
}

func newVerifyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [dir]",
		Short: "验证目录中的所有 .nbt 结构文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			dir := cfg.General.OutputDirectory
			if len(args) == 1 {
				dir = filepath.Clean(args[0])
			}
			_, failed, err := pipeline.VerifyDir(dir, loadMessages(cfg), cfg.UI.ColoredOutput)
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d 个结构文件验证失败", failed)
			}
			return nil
		},
	}
}
