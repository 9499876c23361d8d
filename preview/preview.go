// Package preview 为区域生成俯视预览图。
package preview

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"regionstruct/batch"
	"regionstruct/extract"
)

// Options 预览选项
type Options struct {
	// Scale 每个方块的像素数
	Scale int
	// Label 绘制在左上角的文字，为空则不绘制
	Label string
	// DepthShade 每低于最高点一格的变暗比例
	DepthShade float64
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{Scale: 2, DepthShade: 0.004}
}

type column struct {
	y    int
	name string
}

// Render 生成俯视图：每一列取最高的方块着色
func Render(structures []*extract.Structure, opts Options) (*image.NRGBA, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	minX, minZ := math.MaxInt, math.MaxInt
	maxX, maxZ := math.MinInt, math.MinInt
	for _, s := range structures {
		if s == nil || len(s.Blocks) == 0 {
			continue
		}
		minX = min(minX, s.Origin[0])
		minZ = min(minZ, s.Origin[2])
		maxX = max(maxX, s.Origin[0]+s.Size[0]-1)
		maxZ = max(maxZ, s.Origin[2]+s.Size[2]-1)
	}
	if minX > maxX {
		return nil, errors.New("没有可预览的方块")
	}

	w, h := maxX-minX+1, maxZ-minZ+1
	top := make(map[[2]int]column, w*h/4)
	highest := math.MinInt
	for _, s := range structures {
		if s == nil {
			continue
		}
		for _, b := range s.Blocks {
			x := s.Origin[0] + b.Pos[0] - minX
			y := s.Origin[1] + b.Pos[1]
			z := s.Origin[2] + b.Pos[2] - minZ
			key := [2]int{x, z}
			if c, ok := top[key]; !ok || y > c.y {
				top[key] = column{y: y, name: s.Palette[b.State].Name}
			}
			highest = max(highest, y)
		}
	}

	img := imaging.New(w, h, color.NRGBA{0, 0, 0, 0})
	for key, c := range top {
		depth := float64(highest-c.y) * opts.DepthShade
		img.SetNRGBA(key[0], key[1], BlockColor(c.name, depth))
	}

	if opts.Scale > 1 {
		img = imaging.Resize(img, w*opts.Scale, h*opts.Scale, imaging.NearestNeighbor)
	}
	if opts.Label != "" {
		drawLabel(img, opts.Label)
	}
	return img, nil
}

// BlockColor 由方块名的哈希得到稳定颜色，depth 越大越暗
func BlockColor(name string, depth float64) color.NRGBA {
	sum := xxhash.Sum64String(strings.TrimPrefix(name, "minecraft:"))
	hue := float64(sum % 360)
	sat := 0.45 + float64((sum>>16)%40)/100
	val := 0.9 - math.Min(math.Max(depth, 0), 0.7)
	r, g, b := colorful.Hsv(hue, sat, val).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func drawLabel(img *image.NRGBA, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, 13),
	}
	d.DrawString(label)
}

// Save 保存为PNG
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return imaging.Save(img, path)
}

// Hook 每个区域处理完后在 Dir 下保存 <区域名>.png
type Hook struct {
	Dir     string
	Options Options
}

// AfterRegion 实现 batch.Hook
func (h Hook) AfterRegion(o *batch.Outcome) error {
	if o.Err != nil || o.Result == nil || len(o.Result.Structures) == 0 {
		return nil
	}
	opts := h.Options
	name := strings.TrimSuffix(o.Name, filepath.Ext(o.Name))
	if opts.Label == "" {
		opts.Label = name
	}
	img, err := Render(o.Result.Structures, opts)
	if err != nil {
		return err
	}
	return Save(filepath.Join(h.Dir, name+".png"), img)
}
