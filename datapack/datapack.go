// Package datapack 把结构文件打包成可在游戏中逐块放置的数据包。
package datapack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"regionstruct/format"
)

// Options 数据包选项
type Options struct {
	Namespace string
	Name      string
	// PackFormat 写入 pack.mcmeta
	PackFormat int
	// ChunksPerTick 每个 tick 放置的列数
	ChunksPerTick int
	// TicksBeforePlace forceload 与放置之间的间隔
	TicksBeforePlace int
	// Splits 拆分成几个数据包
	Splits   int
	Progress format.ProgressCallback
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		Namespace:        "regions_to_structures",
		Name:             "Regions To Structures",
		PackFormat:       26,
		ChunksPerTick:    20,
		TicksBeforePlace: 20,
		Splits:           1,
	}
}

type structureFile struct {
	name    string // 不含扩展名
	path    string
	x, y, z int
}

// column 同一 (x, z) 的所有结构由一个函数放置
type column struct {
	x, z     int
	commands []string
}

// ListStructures 列出目录中文件名可解析为 x_y_z.nbt 的结构，按名称排序
func ListStructures(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".nbt" {
			continue
		}
		if _, _, _, ok := format.ParseStructureName(e.Name()); ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Build 从 structDir 的结构文件生成数据包，写入 outDir，返回生成的 zip 路径
func Build(structDir, outDir string, opts Options) ([]string, error) {
	if opts.Namespace == "" || opts.ChunksPerTick <= 0 {
		return nil, errors.New("数据包命名空间或每tick列数无效")
	}
	paths, err := ListStructures(structDir)
	if err != nil {
		return nil, fmt.Errorf("读取结构目录失败: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("目录中没有结构文件: %s", structDir)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	files := make([]structureFile, 0, len(paths))
	for _, p := range paths {
		x, y, z, _ := format.ParseStructureName(p)
		name := strings.TrimSuffix(filepath.Base(p), ".nbt")
		files = append(files, structureFile{name: name, path: p, x: x, y: y, z: z})
	}

	splits := opts.Splits
	if splits <= 0 {
		splits = 1
	}
	if splits > len(files) {
		splits = len(files)
	}

	var out []string
	for i := 0; i < splits; i++ {
		part := files[i*len(files)/splits : (i+1)*len(files)/splits]
		zipName, namespace, description := "structures.zip", opts.Namespace, opts.Name
		if splits > 1 {
			zipName = fmt.Sprintf("structures_%d.zip", i+1)
			namespace = fmt.Sprintf("%s_%d", opts.Namespace, i+1)
			description = fmt.Sprintf("%s #%d", opts.Name, i+1)
		}
		path := filepath.Join(outDir, zipName)
		if err := writePack(path, namespace, description, part, opts); err != nil {
			return out, fmt.Errorf("生成数据包 %s 失败: %w", zipName, err)
		}
		out = append(out, path)
		if opts.Progress != nil {
			opts.Progress(i+1, splits, zipName)
		}
	}
	return out, nil
}

func writePack(path, namespace, description string, files []structureFile, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	meta, err := PackMeta(opts.PackFormat, description)
	if err != nil {
		return err
	}
	if err := writeEntry(zw, "pack.mcmeta", meta); err != nil {
		return err
	}

	for _, s := range files {
		w, err := zw.Create(fmt.Sprintf("data/%s/structures/%s.nbt", namespace, s.name))
		if err != nil {
			return err
		}
		if err := copyFile(w, s.path); err != nil {
			return err
		}
	}

	fns := functions(namespace, files, opts)
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeEntry(zw, fmt.Sprintf("data/%s/functions/%s.mcfunction", namespace, name), []byte(fns[name])); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

// PackMeta pack.mcmeta 内容
func PackMeta(packFormat int, description string) ([]byte, error) {
	meta := map[string]any{
		"pack": map[string]any{
			"pack_format": packFormat,
			"description": description,
		},
	}
	b, err := json.MarshalIndent(meta, "", "\t")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// functions 生成函数名（相对 functions/，不含扩展名）到内容的映射
func functions(namespace string, files []structureFile, opts Options) map[string]string {
	var columns []*column
	byKey := make(map[[2]int]*column)
	for _, s := range files {
		key := [2]int{s.x, s.z}
		c, ok := byKey[key]
		if !ok {
			c = &column{x: s.x, z: s.z}
			byKey[key] = c
			columns = append(columns, c)
		}
		c.commands = append(c.commands, fmt.Sprintf("place template %s:%s %d %d %d", namespace, s.name, s.x, s.y, s.z))
	}

	out := make(map[string]string, len(columns)*2+1)
	for _, c := range columns {
		out[fmt.Sprintf("chunks/%d_%d", c.x, c.z)] = strings.Join(c.commands, "\n") + fmt.Sprintf("\nforceload remove %d %d", c.x, c.z)
	}

	per := opts.ChunksPerTick
	last := len(columns) / per
	for i := 0; i < len(columns); i += per {
		tick := i / per
		group := columns[i:min(i+per, len(columns))]

		var lines []string
		for _, c := range group {
			lines = append(lines, fmt.Sprintf("forceload add %d %d", c.x, c.z))
		}
		for _, c := range group {
			lines = append(lines, fmt.Sprintf("schedule function %s:chunks/%d_%d %dt", namespace, c.x, c.z, opts.TicksBeforePlace))
		}
		if i+per < len(columns) {
			lines = append(lines, fmt.Sprintf("schedule function %s:place/%d 1t", namespace, tick+1))
		}
		lines = append(lines, fmt.Sprintf(`tellraw @a [{"text":"[%s] ","color":"gold"},{"text":"Progression: %d/%d","color":"white"}]`, opts.Name, tick, last))
		out[fmt.Sprintf("place/%d", tick)] = strings.Join(lines, "\n")
	}

	out["_place_everything"] = fmt.Sprintf("function %s:place/0", namespace)
	return out
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
