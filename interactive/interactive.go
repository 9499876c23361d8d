package interactive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"regionstruct/config"
	"regionstruct/format"
	"regionstruct/message"
	"regionstruct/pipeline"
	"regionstruct/utils"
)

// PromptRun 交互式获取本次运行的目录、格式与并发参数，直接写入 cfg
func PromptRun(cfg *config.Config, msgs *message.Messages) {
	useColor := cfg.UI.ColoredOutput
	fmt.Println(utils.ColoredPrint(utils.Cyan, strings.Repeat("=", 50), useColor))

	// 区域目录必须存在且包含 .mca 文件
	for {
		dir := utils.GetUserInput("🗺️  "+msgs.Get("region_dir"), cfg.General.RegionDirectory, useColor)
		regions, err := regionCount(dir)
		if err != nil {
			fmt.Println(utils.ColoredPrintf(utils.Red, "❌ 无法读取目录 '%s': %v", useColor, dir, err))
			continue
		}
		if regions == 0 {
			fmt.Println(utils.ColoredPrintf(utils.Red, "❌ %s: %s", useColor, msgs.Get("no_regions"), dir))
			continue
		}
		fmt.Println(utils.ColoredPrintf(utils.Green, "✅ 找到 %d 个区域文件", useColor, regions))
		cfg.General.RegionDirectory = dir
		break
	}

	cfg.General.OutputDirectory = utils.GetUserInput("💾 "+msgs.Get("output_dir"), cfg.General.OutputDirectory, useColor)

	// 选择输出格式
	formats := format.NewEmitterManager().GetAvailableFormats()
	current := 0
	for i, f := range formats {
		if f == cfg.General.Format {
			current = i
		}
	}
	fmt.Println()
	cfg.General.Format = formats[utils.GetUserChoice("📁 "+msgs.Get("format"), formats, current, useColor)]

	cfg.Extract.Workers = utils.GetUserInputInt("🧵 工作协程数", cfg.Extract.Workers, useColor)
	cfg.Extract.StructureHeight = utils.GetUserInputInt("📐 结构高度", cfg.Extract.StructureHeight, useColor)
	cfg.Extract.CleanOutput = utils.GetUserInputBool("🧹 运行前清空输出目录?", cfg.Extract.CleanOutput, useColor)
}

func regionCount(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".mca") {
			n++
		}
	}
	return n, nil
}

// RunInteractiveMode 运行交互式模式
func RunInteractiveMode(cfg *config.Config, msgs *message.Messages, resourceMonitor *utils.ResourceMonitor, showLogo bool) {
	useColor := cfg.UI.ColoredOutput
	if showLogo {
		DisplayLogo(cfg)
	}
	fmt.Println(utils.ColoredPrintf(utils.Cyan, "⚙️  使用配置: 语言=%s, 输出目录=%s", useColor, cfg.General.Language, cfg.General.OutputDirectory))
	fmt.Println(utils.ColoredPrint(utils.Green, msgs.Get("welcome"), useColor))

	// 询问是否启用自动验证
	cfg.Features.AutoVerification = format.AskAutoVerification()

	PromptRun(cfg, msgs)

	resourceMonitor.Start()
	summary, err := pipeline.Extract(context.Background(), cfg, msgs)
	if err != nil {
		fmt.Println(utils.ColoredPrintf(utils.Red, "❌ %s: %v", useColor, msgs.Get("error"), err))
		resourceMonitor.ShowMaxResourceUsage()
		return
	}
	pipeline.PrintSummary(summary, msgs, useColor)

	if cfg.General.Format == "nbt" && summary.Structures > 0 &&
		utils.GetUserInputBool("📦 是否生成数据包?", false, useColor) {
		cfg.Datapack.Splits = utils.GetUserInputInt("✂️  拆分数量", cfg.Datapack.Splits, useColor)
		if _, err := pipeline.BuildDatapacks(cfg, msgs, cfg.General.OutputDirectory, cfg.Datapack.OutputDirectory); err != nil {
			fmt.Println(utils.ColoredPrintf(utils.Red, "❌ %s: %v", useColor, msgs.Get("error"), err))
		}
	}
	resourceMonitor.ShowMaxResourceUsage()
}

// DisplayLogo 显示彩色logo
func DisplayLogo(cfg *config.Config) {
	useColor := cfg.UI.ColoredOutput

	logo := []string{
		"╔═══════════════════════════════════════════════════╗",
		"║  ██████╗ ███████╗ ██████╗ ██╗ ██████╗ ███╗   ██╗  ║",
		"║  ██╔══██╗██╔════╝██╔════╝ ██║██╔═══██╗████╗  ██║  ║",
		"║  ██████╔╝█████╗  ██║  ███╗██║██║   ██║██╔██╗ ██║  ║",
		"║  ██╔══██╗██╔══╝  ██║   ██║██║██║   ██║██║╚██╗██║  ║",
		"║  ██║  ██║███████╗╚██████╔╝██║╚██████╔╝██║ ╚████║  ║",
		"║  ╚═╝  ╚═╝╚══════╝ ╚═════╝ ╚═╝ ╚═════╝ ╚═╝  ╚═══╝  ║",
		"╚═══════════════════════════════════════════════════╝",
	}

	start := utils.RGBColor{R: 30, G: 144, B: 255}
	end := utils.RGBColor{R: 255, G: 105, B: 180}
	gradient := utils.GenerateGradientColors(start, end, len(logo))
	for i, line := range logo {
		if useColor {
			c := gradient[i]
			fmt.Printf("%s%s%s\n", utils.RGBToANSIColor(c.R, c.G, c.B), line, utils.Reset)
		} else {
			fmt.Println(line)
		}
	}
	fmt.Print("                   ")
	utils.PrintRainbowText("regions → structures", useColor)
	fmt.Println()
	fmt.Println()
}

func onOff(b bool) string {
	if b {
		return "启用"
	}
	return "禁用"
}

// ShowSettingsMenu 显示设置菜单，保存到 configPath
func ShowSettingsMenu(cfg *config.Config, configPath string) {
	useColor := cfg.UI.ColoredOutput
	utils.PrintSectionTitle("⚙️  RegionStruct 设置菜单", useColor)

	options := []string{
		"查看当前配置",
		"修改区域目录",
		"修改输出目录",
		"修改输出格式",
		"修改工作协程数与结构高度",
		"切换控制台颜色",
		"修改语言设置",
		"切换可选功能（清单/报告/预览/自动验证）",
		"重置为默认配置",
		"保存并退出",
		"不保存退出",
	}

	for {
		fmt.Println()
		switch utils.GetUserChoice("请选择操作", options, -1, useColor) {
		case 0:
			fmt.Println(utils.ColoredPrint(utils.Green, "📋 当前配置:", useColor))
			fmt.Printf("   区域目录: %s\n", cfg.General.RegionDirectory)
			fmt.Printf("   输出目录: %s\n", cfg.General.OutputDirectory)
			fmt.Printf("   输出格式: %s\n", cfg.General.Format)
			fmt.Printf("   工作协程: %d, 结构高度: %d, 调度: %s\n", cfg.Extract.Workers, cfg.Extract.StructureHeight, cfg.Extract.Schedule)
			fmt.Printf("   控制台颜色: %s\n", onOff(cfg.UI.ColoredOutput))
			fmt.Printf("   语言设置: %s\n", cfg.General.Language)
			fmt.Printf("   清单: %s, 报告: %s, 预览: %s, 自动验证: %s\n",
				onOff(cfg.Features.Manifest), onOff(cfg.Features.Report), onOff(cfg.Features.Preview), onOff(cfg.Features.AutoVerification))

		case 1:
			cfg.General.RegionDirectory = utils.GetUserInput("请输入新的区域目录", cfg.General.RegionDirectory, useColor)

		case 2:
			cfg.General.OutputDirectory = utils.GetUserInput("请输入新的输出目录", cfg.General.OutputDirectory, useColor)

		case 3:
			formats := format.NewEmitterManager().GetAvailableFormats()
			cfg.General.Format = formats[utils.GetUserChoice("选择输出格式", formats, 0, useColor)]

		case 4:
			cfg.Extract.Workers = utils.GetUserInputInt("工作协程数", cfg.Extract.Workers, useColor)
			cfg.Extract.StructureHeight = utils.GetUserInputInt("结构高度", cfg.Extract.StructureHeight, useColor)

		case 5:
			cfg.UI.ColoredOutput = !cfg.UI.ColoredOutput
			useColor = cfg.UI.ColoredOutput
			fmt.Printf("✅ 控制台颜色已%s\n", onOff(useColor))

		case 6:
			langs := []string{"zh_CN", "en_US"}
			cfg.General.Language = langs[utils.GetUserChoice("🗣️  选择语言", []string{"中文 (zh_CN)", "English (en_US)"}, 0, useColor)]
			fmt.Printf("✅ 语言已设置为 %s\n", cfg.General.Language)

		case 7:
			cfg.Features.Manifest = utils.GetUserInputBool("生成结构清单?", cfg.Features.Manifest, useColor)
			cfg.Features.Report = utils.GetUserInputBool("生成处理报告?", cfg.Features.Report, useColor)
			cfg.Features.Preview = utils.GetUserInputBool("生成预览图?", cfg.Features.Preview, useColor)
			cfg.Features.AutoVerification = utils.GetUserInputBool("自动验证?", cfg.Features.AutoVerification, useColor)

		case 8:
			if utils.GetUserInputBool("⚠️  确定要重置为默认配置吗?", false, useColor) {
				*cfg = *config.Default()
				useColor = cfg.UI.ColoredOutput
				fmt.Println("✅ 配置已重置为默认值")
			}

		case 9:
			if err := cfg.SaveConfig(configPath); err != nil {
				fmt.Printf("❌ 保存配置失败: %v\n", err)
			} else {
				fmt.Println("✅ 配置已保存")
			}
			return

		case 10:
			// 重新加载配置，放弃更改
			if loaded, err := config.LoadConfig(configPath); err == nil {
				*cfg = *loaded
			}
			fmt.Println("⚠️  更改未保存")
			return
		}
	}
}
