package extract

import (
	"errors"
	"log"
	"time"
)

// RegionSize 区域文件每边的区块数
const RegionSize = 32

// ChunkSource 区块来源，由区域文件读取器实现
type ChunkSource interface {
	// Chunk 返回网格坐标 (gridX, gridZ) 处的区块；槽位为空时返回 nil, nil
	Chunk(gridX, gridZ int) (*Chunk, error)
}

// Options 单个区域的处理选项
type Options struct {
	StructureHeight int
	Resolve         ResolveOptions
	// Logger 记录被跳过的子区块与区块，nil 表示不输出
	Logger *log.Logger
}

// RegionResult 一个区域的处理结果
type RegionResult struct {
	Structures    []*Structure
	DataVersion   int32
	ChunksRead    int
	ChunksSkipped int
	Voxels        int
	// Errors 非致命错误：被跳过的区块与子区块
	Errors  []error
	Elapsed time.Duration
}

// DataVersionAccumulator 区域内观察到的最大数据版本
type DataVersionAccumulator struct {
	max int32
}

// Observe 记录一个区块的数据版本
func (a *DataVersionAccumulator) Observe(v int32) {
	if v > a.max {
		a.max = v
	}
}

// Max 当前最大值
func (a *DataVersionAccumulator) Max() int32 { return a.max }

// ProcessRegion 按 (i, j) 顺序扫描 32x32 个区块槽位，解析、切分并建立结构。
// 所有区块读取完毕后才把最大数据版本写入每个结构。
// 单个区块失败只会跳过该区块。
func ProcessRegion(src ChunkSource, opts Options) (*RegionResult, error) {
	if src == nil {
		return nil, errors.New("区块来源为空")
	}
	start := time.Now()
	res := &RegionResult{}
	var versions DataVersionAccumulator

	for i := 0; i < RegionSize; i++ {
		for j := 0; j < RegionSize; j++ {
			c, err := src.Chunk(i, j)
			if err != nil {
				res.ChunksSkipped++
				res.Errors = append(res.Errors, &ChunkError{GridX: i, GridZ: j, Err: err})
				logf(opts.Logger, "⚠️  跳过区块槽位(%d,%d): %v", i, j, err)
				continue
			}
			if c == nil {
				continue
			}
			res.ChunksRead++
			versions.Observe(c.DataVersion)

			structures, voxels, errs := ProcessChunk(c, opts)
			for _, e := range errs {
				logf(opts.Logger, "⚠️  %v", e)
			}
			res.Errors = append(res.Errors, errs...)
			res.Voxels += voxels
			res.Structures = append(res.Structures, structures...)
		}
	}

	res.DataVersion = versions.Max()
	for _, s := range res.Structures {
		s.DataVersion = res.DataVersion
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// ProcessChunk 处理单个区块：解析体素、按高度切分、为每个分段建立结构
func ProcessChunk(c *Chunk, opts Options) ([]*Structure, int, []error) {
	voxels, errs := ResolveChunk(c, opts.Resolve)
	if len(voxels) == 0 {
		return nil, 0, errs
	}
	bands := Partition(voxels, opts.StructureHeight)
	structures := make([]*Structure, 0, len(bands))
	for _, b := range bands {
		structures = append(structures, BuildStructure(b.Voxels))
	}
	return structures, len(voxels), errs
}

func logf(l *log.Logger, format string, args ...any) {
	if l != nil {
		l.Printf(format, args...)
	}
}
