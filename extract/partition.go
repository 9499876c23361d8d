package extract

// DefaultStructureHeight 每个结构的高度
const DefaultStructureHeight = 48

// Band 一个竖直分段 [MinY, MinY+Height) 及落在其中的体素
type Band struct {
	MinY   int
	Height int
	Voxels []Voxel
}

// Partition 从最低体素开始，按固定高度把区块体素切分为互不重叠的竖直分段。
// 没有体素的分段被丢弃；体素在分段内保持原有顺序。
func Partition(voxels []Voxel, height int) []Band {
	if len(voxels) == 0 {
		return nil
	}
	if height <= 0 {
		height = DefaultStructureHeight
	}

	minY, maxY := voxels[0].Y, voxels[0].Y
	for _, v := range voxels[1:] {
		minY = min(minY, v.Y)
		maxY = max(maxY, v.Y)
	}

	count := (maxY-minY)/height + 1
	bands := make([]Band, count)
	for i := range bands {
		bands[i] = Band{MinY: minY + i*height, Height: height}
	}
	for _, v := range voxels {
		i := (v.Y - minY) / height
		bands[i].Voxels = append(bands[i].Voxels, v)
	}

	out := bands[:0]
	for _, b := range bands {
		if len(b.Voxels) > 0 {
			out = append(out, b)
		}
	}
	return out
}
