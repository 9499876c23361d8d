// Package batch 调度多个区域文件的提取任务并把结构写入输出目录。
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"regionstruct/extract"
	"regionstruct/format"
	"regionstruct/src/anvil"
)

// Schedule 区域分配策略，不影响结果
type Schedule string

const (
	// Enumerate 共享队列，按文件名顺序
	Enumerate Schedule = "enumerate"
	// RoundRobin 静态分配，第 i 个区域交给第 i mod workers 个协程
	RoundRobin Schedule = "round_robin"
	// Shuffle 随机打乱后放入共享队列
	Shuffle Schedule = "shuffle"
)

// ParseSchedule 解析调度名称，空字符串视为 enumerate
func ParseSchedule(name string) (Schedule, error) {
	switch s := Schedule(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return Enumerate, nil
	case Enumerate, RoundRobin, Shuffle:
		return s, nil
	default:
		return "", fmt.Errorf("未知的调度方式: %s", name)
	}
}

// Hook 在区域处理完成后运行（包括失败的区域，此时 Outcome.Err 非空、Result 可能为 nil），
// 必须可以并发调用
type Hook interface {
	AfterRegion(o *Outcome) error
}

// HookFunc 函数形式的 Hook
type HookFunc func(o *Outcome) error

// AfterRegion 调用 f(o)
func (f HookFunc) AfterRegion(o *Outcome) error { return f(o) }

// Options 批处理选项
type Options struct {
	Workers   int
	Schedule  Schedule
	Seed      int64
	OutputDir string
	Emitter   format.Emitter
	Extract   extract.Options
	Anvil     anvil.Options
	Hooks     []Hook
	// Progress 每完成一个区域调用一次
	Progress format.ProgressCallback
	Logger   *log.Logger
}

// Emitted 已写出的一个结构文件
type Emitted struct {
	Key         string
	Path        string
	Origin      [3]int
	Size        [3]int
	PaletteLen  int
	Blocks      int
	DataVersion int32
}

// Outcome 单个区域的处理结果。区域失败只记录在 Err 中，不影响其他区域。
type Outcome struct {
	Index  int
	Path   string
	Name   string
	Result *extract.RegionResult
	Files  []Emitted
	Err    error
	// HookErrors 钩子失败不会让区域失败
	HookErrors []error
	Elapsed    time.Duration
}

// ListRegions 列出目录中的 .mca 文件，按名称排序
func ListRegions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取区域目录失败: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mca") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Run 在 opts.Workers 个协程上处理所有区域，结果按输入顺序返回。
// ctx 取消后不再分派新区域，已分派的区域会处理完毕，返回值附带 ctx.Err()。
func Run(ctx context.Context, paths []string, opts Options) ([]*Outcome, error) {
	if opts.Emitter == nil {
		return nil, errors.New("未指定输出格式")
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	outcomes := make([]*Outcome, len(paths))
	var (
		mu   sync.Mutex
		done int
	)
	finish := func(o *Outcome) {
		outcomes[o.Index] = o
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		n := done
		mu.Unlock()
		opts.Progress(n, len(paths), o.Name)
	}

	var wg sync.WaitGroup
	switch opts.Schedule {
	case RoundRobin:
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := w; i < len(paths); i += workers {
					if ctx.Err() != nil {
						return
					}
					finish(processRegion(i, paths[i], opts))
				}
			}(w)
		}
	default:
		order := make([]int, len(paths))
		for i := range order {
			order[i] = i
		}
		if opts.Schedule == Shuffle {
			rng := rand.New(rand.NewSource(opts.Seed))
			rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		}
		queue := make(chan int)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range queue {
					finish(processRegion(i, paths[i], opts))
				}
			}()
		}
	dispatch:
		for _, i := range order {
			select {
			case <-ctx.Done():
				break dispatch
			case queue <- i:
			}
		}
		close(queue)
	}
	wg.Wait()

	out := outcomes[:0]
	for _, o := range outcomes {
		if o != nil {
			out = append(out, o)
		}
	}
	return out, ctx.Err()
}

func processRegion(index int, path string, opts Options) *Outcome {
	start := time.Now()
	o := &Outcome{Index: index, Path: path, Name: filepath.Base(path)}

	o.Err = extractRegion(o, opts)
	o.Elapsed = time.Since(start)

	// 失败的区域也运行钩子
	for _, h := range opts.Hooks {
		if err := h.AfterRegion(o); err != nil {
			o.HookErrors = append(o.HookErrors, err)
			if opts.Logger != nil {
				opts.Logger.Printf("⚠️  %s: %v", o.Name, err)
			}
		}
	}
	// 钩子运行完毕后释放结构，避免大世界占满内存
	if o.Result != nil {
		o.Result.Structures = nil
	}
	return o
}

// extractRegion 读取区域并写出全部结构。写出中途失败时删除本区域已写的文件。
func extractRegion(o *Outcome, opts Options) error {
	r, err := anvil.Open(o.Path, opts.Anvil)
	if err != nil {
		return err
	}
	res, err := extract.ProcessRegion(r, opts.Extract)
	if cerr := r.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: 关闭区域文件失败: %v", extract.ErrRegionRead, cerr)
	}
	if err != nil {
		return &extract.RegionError{Path: o.Path, Err: err}
	}
	o.Result = res

	for _, s := range res.Structures {
		file, err := opts.Emitter.Emit(opts.OutputDir, s)
		if err != nil {
			removeEmitted(o.Files)
			o.Files = nil
			return &extract.RegionError{Path: o.Path, Err: err}
		}
		o.Files = append(o.Files, Emitted{
			Key:         s.Key(),
			Path:        file,
			Origin:      s.Origin,
			Size:        s.Size,
			PaletteLen:  len(s.Palette),
			Blocks:      len(s.Blocks),
			DataVersion: s.DataVersion,
		})
	}
	return nil
}

func removeEmitted(files []Emitted) {
	for _, f := range files {
		_ = os.Remove(f.Path)
	}
}

// VerifyHook 对每个写出的 .nbt 文件做读回校验
type VerifyHook struct{}

// AfterRegion 校验本区域写出的结构文件
func (VerifyHook) AfterRegion(o *Outcome) error {
	var failed []string
	for _, f := range o.Files {
		if filepath.Ext(f.Path) != ".nbt" {
			continue
		}
		if ok, msg := format.VerifyStructureFile(f.Path); !ok {
			failed = append(failed, fmt.Sprintf("%s: %s", filepath.Base(f.Path), msg))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("结构文件验证失败: %s", strings.Join(failed, "; "))
	}
	return nil
}

// CleanOutput 删除输出目录中上一次运行留下的文件
func CleanOutput(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
