// Package pipeline 把配置、批处理与各个输出钩子组装成一次完整的运行。
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"regionstruct/batch"
	"regionstruct/config"
	"regionstruct/datapack"
	"regionstruct/extract"
	"regionstruct/format"
	"regionstruct/manifest"
	"regionstruct/message"
	"regionstruct/preview"
	"regionstruct/report"
	"regionstruct/src/anvil"
	"regionstruct/utils"
)

// ManifestFile 输出目录中的清单数据库文件名
const ManifestFile = "manifest.db"

// logOutput 跳过的子区块、区块以及钩子错误写到这里
var logOutput io.Writer = os.Stderr

// Summary 一次提取运行的汇总
type Summary struct {
	Regions       int
	FailedRegions int
	Structures    int
	Warnings      int
	ManifestPath  string
	ReportPath    string
	Elapsed       time.Duration
	Outcomes      []*batch.Outcome
}

// Extract 按配置处理 RegionDirectory 中的全部区域
func Extract(ctx context.Context, cfg *config.Config, msgs *message.Messages) (*Summary, error) {
	useColor := cfg.UI.ColoredOutput
	start := time.Now()

	paths, err := batch.ListRegions(cfg.General.RegionDirectory)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %s", msgs.Get("no_regions"), cfg.General.RegionDirectory)
	}

	emitter, err := format.NewEmitterManager().GetEmitter(cfg.General.Format)
	if err != nil {
		return nil, err
	}
	schedule, err := batch.ParseSchedule(cfg.Extract.Schedule)
	if err != nil {
		return nil, err
	}

	outDir := cfg.General.OutputDirectory
	if cfg.Extract.CleanOutput {
		if err := batch.CleanOutput(outDir); err != nil {
			return nil, fmt.Errorf("清理输出目录失败: %w", err)
		}
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	logger := log.New(logOutput, "", 0)
	summary := &Summary{Regions: len(paths)}

	var hooks []batch.Hook
	if cfg.Features.AutoVerification && emitter.GetFormatName() == "nbt" {
		hooks = append(hooks, batch.VerifyHook{})
	}
	if cfg.Features.Manifest {
		summary.ManifestPath = filepath.Join(outDir, ManifestFile)
		db, err := manifest.Open(summary.ManifestPath, emitter.GetFormatName())
		if err != nil {
			return nil, fmt.Errorf("打开结构清单失败: %w", err)
		}
		defer db.Close()
		hooks = append(hooks, db)
	}
	if cfg.Features.Report {
		w, err := report.NewWriter(filepath.Join(outDir, "reports"), start)
		if err != nil {
			return nil, fmt.Errorf("创建处理报告失败: %w", err)
		}
		defer w.Close()
		summary.ReportPath = w.Path()
		hooks = append(hooks, w)
	}
	if cfg.Features.Preview {
		hooks = append(hooks, preview.Hook{Dir: filepath.Join(outDir, "previews"), Options: preview.DefaultOptions()})
	}

	// 区域完成时打印一行，进度条与文本输出共用一把锁
	var mu sync.Mutex
	done := 0
	printLine := func(o *batch.Outcome) error {
		mu.Lock()
		defer mu.Unlock()
		done++
		if o.Err != nil {
			fmt.Printf("\r%s\n", utils.ColoredPrintf(utils.Red, "❌ "+msgs.Get("region_failed"), useColor, o.Name, o.Err))
			return nil
		}
		fmt.Printf("\r%s\n", utils.ColoredPrintf(utils.Green, msgs.Get("region_progress"), useColor,
			done, len(paths), o.Name, len(o.Files), o.Elapsed.Seconds()))
		return nil
	}
	hooks = append(hooks, batch.HookFunc(printLine))

	opts := batch.Options{
		Workers:   cfg.Extract.Workers,
		Schedule:  schedule,
		Seed:      start.UnixNano(),
		OutputDir: outDir,
		Emitter:   emitter,
		Extract: extract.Options{
			StructureHeight: cfg.Extract.StructureHeight,
			Resolve: extract.ResolveOptions{
				StripSubstrings: cfg.Extract.StripFieldSubstring,
				FillUniform:     cfg.Extract.FillUniformSections,
			},
			Logger: logger,
		},
		Anvil:  anvil.Options{SwapWordHalves: cfg.Extract.SwapWordHalves},
		Hooks:  hooks,
		Logger: logger,
	}
	if cfg.UI.ProgressBar {
		bar := utils.NewProgressBar(len(paths), "📊 "+msgs.Get("extraction_start"), os.Stdout)
		opts.Progress = func(current, total int, message string) {
			mu.Lock()
			defer mu.Unlock()
			_ = bar.Set(current)
		}
	}

	fmt.Println(utils.ColoredPrint(utils.Cyan, "🔄 "+msgs.Get("extraction_start"), useColor))
	outcomes, runErr := batch.Run(ctx, paths, opts)
	summary.Outcomes = outcomes
	for _, o := range outcomes {
		if o.Err != nil {
			summary.FailedRegions++
			continue
		}
		summary.Structures += len(o.Files)
		summary.Warnings += len(o.HookErrors)
		if o.Result != nil {
			summary.Warnings += len(o.Result.Errors)
		}
	}
	summary.Elapsed = time.Since(start)
	return summary, runErr
}

// PrintSummary 打印运行汇总
func PrintSummary(s *Summary, msgs *message.Messages, useColor bool) {
	fmt.Println(utils.ColoredPrintf(utils.Cyan, "%s", useColor, "══════════════════════════════════════════════════"))
	fmt.Println(utils.ColoredPrintf(utils.Green, "✅ %s", useColor, msgs.Get("extraction_done")))
	fmt.Println(utils.ColoredPrintf(utils.Yellow, "🗺️  区域: %d (失败 %d)", useColor, s.Regions, s.FailedRegions))
	fmt.Println(utils.ColoredPrintf(utils.Yellow, "🧱 结构: %d", useColor, s.Structures))
	if s.Warnings > 0 {
		fmt.Println(utils.ColoredPrintf(utils.Yellow, "⚠️  跳过的区块与子区块: %d", useColor, s.Warnings))
	}
	if s.ManifestPath != "" {
		fmt.Println(utils.ColoredPrintf(utils.Cyan, "🗃️  "+msgs.Get("manifest_saved"), useColor, s.ManifestPath))
	}
	if s.ReportPath != "" {
		fmt.Println(utils.ColoredPrintf(utils.Cyan, "📝 "+msgs.Get("report_saved"), useColor, s.ReportPath))
	}
	fmt.Println(utils.ColoredPrintf(utils.Green, "⏱️  "+msgs.Get("total_time"), useColor, s.Elapsed.Seconds()))
}

// DatapackOptions 从配置生成数据包选项
func DatapackOptions(cfg *config.Config) datapack.Options {
	return datapack.Options{
		Namespace:        cfg.Datapack.Namespace,
		Name:             cfg.Datapack.Name,
		PackFormat:       cfg.Datapack.PackFormat,
		ChunksPerTick:    cfg.Datapack.ChunksPerTick,
		TicksBeforePlace: cfg.Datapack.TicksBeforePlace,
		Splits:           cfg.Datapack.Splits,
	}
}

// BuildDatapacks 由结构目录生成数据包
func BuildDatapacks(cfg *config.Config, msgs *message.Messages, structDir, outDir string) ([]string, error) {
	useColor := cfg.UI.ColoredOutput
	opts := DatapackOptions(cfg)
	opts.Progress = func(current, total int, message string) {
		utils.DisplayProgressBar(current, total, message, useColor)
	}

	fmt.Println(utils.ColoredPrint(utils.Cyan, "📦 "+msgs.Get("datapack_start"), useColor))
	start := time.Now()
	packs, err := datapack.Build(structDir, outDir, opts)
	if err != nil {
		return packs, err
	}
	for _, p := range packs {
		fmt.Println(utils.ColoredPrintf(utils.Green, "✅ "+msgs.Get("datapack_done"), useColor, p))
	}
	fmt.Println(utils.ColoredPrintf(utils.Green, "⏱️  "+msgs.Get("total_time"), useColor, time.Since(start).Seconds()))
	return packs, nil
}

// VerifyDir 校验目录中所有结构文件，返回通过与失败的数量
func VerifyDir(dir string, msgs *message.Messages, useColor bool) (passed, failed int, err error) {
	files, err := datapack.ListStructures(dir)
	if err != nil {
		return 0, 0, err
	}
	fmt.Println(utils.ColoredPrint(utils.Cyan, "🔍 "+msgs.Get("verify_start"), useColor))
	for i, f := range files {
		ok, message := format.VerifyStructureFile(f)
		if ok {
			passed++
		} else {
			failed++
			fmt.Printf("\r%s\n", utils.ColoredPrintf(utils.Red, "❌ %s: %s", useColor, filepath.Base(f), message))
		}
		utils.DisplayProgressBar(i+1, len(files), filepath.Base(f), useColor)
	}
	fmt.Println(utils.ColoredPrintf(utils.Green, msgs.Get("verify_done"), useColor, passed, failed))
	return passed, failed, nil
}
