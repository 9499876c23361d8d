package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// General 通用设置
type General struct {
	Language        string `json:"language" yaml:"language"`
	RegionDirectory string `json:"region_directory" yaml:"region_directory"`
	OutputDirectory string `json:"output_directory" yaml:"output_directory"`
	Format          string `json:"format" yaml:"format"`
}

// Extract 提取设置
type Extract struct {
	StructureHeight     int      `json:"structure_height" yaml:"structure_height"`
	Workers             int      `json:"workers" yaml:"workers"`
	Schedule            string   `json:"schedule" yaml:"schedule"`
	CleanOutput         bool     `json:"clean_output" yaml:"clean_output"`
	SwapWordHalves      bool     `json:"swap_word_halves" yaml:"swap_word_halves"`
	StripFieldSubstring []string `json:"strip_field_substrings" yaml:"strip_field_substrings"`
	FillUniformSections bool     `json:"fill_uniform_sections" yaml:"fill_uniform_sections"`
}

// Datapack 数据包设置
type Datapack struct {
	Namespace        string `json:"namespace" yaml:"namespace"`
	Name             string `json:"name" yaml:"name"`
	PackFormat       int    `json:"pack_format" yaml:"pack_format"`
	ChunksPerTick    int    `json:"chunks_per_tick" yaml:"chunks_per_tick"`
	TicksBeforePlace int    `json:"ticks_before_place" yaml:"ticks_before_place"`
	Splits           int    `json:"splits" yaml:"splits"`
	OutputDirectory  string `json:"output_directory" yaml:"output_directory"`
}

// UI 界面设置
type UI struct {
	ColoredOutput bool `json:"colored_output" yaml:"colored_output"`
	ProgressBar   bool `json:"progress_bar" yaml:"progress_bar"`
}

// Features 可选功能
type Features struct {
	AutoVerification bool `json:"auto_verification" yaml:"auto_verification"`
	Manifest         bool `json:"manifest" yaml:"manifest"`
	Report           bool `json:"report" yaml:"report"`
	Preview          bool `json:"preview" yaml:"preview"`
}

// Config 应用配置
type Config struct {
	General  General  `json:"general" yaml:"general"`
	Extract  Extract  `json:"extract" yaml:"extract"`
	Datapack Datapack `json:"datapack" yaml:"datapack"`
	UI       UI       `json:"ui" yaml:"ui"`
	Features Features `json:"features" yaml:"features"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		General: General{
			Language:        "zh_CN",
			RegionDirectory: "region",
			OutputDirectory: "structures",
			Format:          "nbt",
		},
		Extract: Extract{
			StructureHeight:     48,
			Workers:             12,
			Schedule:            "enumerate",
			CleanOutput:         true,
			SwapWordHalves:      true,
			StripFieldSubstring: []string{"Paper"},
		},
		Datapack: Datapack{
			Namespace:        "regions_to_structures",
			Name:             "Regions To Structures",
			PackFormat:       26,
			ChunksPerTick:    20,
			TicksBeforePlace: 20,
			Splits:           1,
			OutputDirectory:  "datapacks",
		},
		UI: UI{
			ColoredOutput: true,
			ProgressBar:   true,
		},
		Features: Features{
			AutoVerification: true,
			Manifest:         true,
			Report:           true,
		},
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig 从文件加载配置，文件不存在时返回默认配置。
// .yaml/.yml 按 YAML 解析，其余按 JSON 解析；文件中未出现的字段保留默认值。
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return config, err
	}

	if isYAML(configPath) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return Default(), fmt.Errorf("解析配置文件 %s 失败: %w", configPath, err)
	}
	return config, config.Validate()
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if c.Extract.StructureHeight <= 0 {
		return fmt.Errorf("structure_height 必须为正数: %d", c.Extract.StructureHeight)
	}
	if c.Extract.Workers <= 0 {
		return fmt.Errorf("workers 必须为正数: %d", c.Extract.Workers)
	}
	if c.Datapack.ChunksPerTick <= 0 {
		return fmt.Errorf("chunks_per_tick 必须为正数: %d", c.Datapack.ChunksPerTick)
	}
	if c.Datapack.Splits <= 0 {
		return fmt.Errorf("splits 必须为正数: %d", c.Datapack.Splits)
	}
	return nil
}

// SaveConfig 保存配置到文件
func (c *Config) SaveConfig(configPath string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(configPath) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
