package message

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Messages 国际化消息
type Messages struct {
	LangCode string            `json:"lang_code"`
	Messages map[string]string `json:"messages"`
}

var builtin = map[string]map[string]string{
	"zh_CN": {
		"welcome":          "欢迎使用 RegionStruct!",
		"region_dir":       "请输入区域文件目录",
		"output_dir":       "结构输出目录",
		"format":           "输出格式",
		"extraction_start": "开始提取...",
		"extraction_done":  "提取完成!",
		"region_progress":  "区域 %d/%d: %s 找到 %d 个结构，保存用时 %.2f秒",
		"region_failed":    "区域 %s 处理失败: %v",
		"no_regions":       "目录中没有区域文件",
		"total_time":       "总耗时: %.2f秒",
		"verify_start":     "正在验证结构文件...",
		"verify_done":      "验证完成: %d 个通过，%d 个失败",
		"datapack_start":   "正在生成数据包...",
		"datapack_done":    "数据包已生成: %s",
		"manifest_saved":   "结构清单已保存: %s",
		"report_saved":     "处理报告已保存: %s",
		"error":            "错误",
		"success":          "成功",
	},
	"en_US": {
		"welcome":          "Welcome to RegionStruct!",
		"region_dir":       "Enter the region directory",
		"output_dir":       "Structure output directory",
		"format":           "Output format",
		"extraction_start": "Extracting...",
		"extraction_done":  "Extraction done!",
		"region_progress":  "Region %d/%d: %s found %d structures, saved in %.2fs",
		"region_failed":    "Region %s failed: %v",
		"no_regions":       "No region files in directory",
		"total_time":       "Total time: %.2fs",
		"verify_start":     "Verifying structure files...",
		"verify_done":      "Verification done: %d passed, %d failed",
		"datapack_start":   "Generating datapack...",
		"datapack_done":    "Datapack written: %s",
		"manifest_saved":   "Manifest saved: %s",
		"report_saved":     "Report saved: %s",
		"error":            "Error",
		"success":          "Success",
	},
}

// LoadMessages 加载指定语言的消息，dir 下的 <lang>.json 可覆盖内置文本
func LoadMessages(dir, langCode string) (*Messages, error) {
	defaults, ok := builtin[langCode]
	if !ok {
		defaults = builtin["zh_CN"]
	}

	msg := &Messages{
		LangCode: langCode,
		Messages: make(map[string]string, len(defaults)),
	}
	for k, v := range defaults {
		msg.Messages[k] = v
	}

	// 尝试从文件加载特定语言的消息
	data, err := os.ReadFile(filepath.Join(dir, langCode+".json"))
	if os.IsNotExist(err) {
		return msg, nil
	}
	if err != nil {
		return msg, err
	}
	var fileMsg map[string]string
	if err := json.Unmarshal(data, &fileMsg); err != nil {
		return msg, err
	}
	for k, v := range fileMsg {
		msg.Messages[k] = v
	}
	return msg, nil
}

// Get 获取指定键的消息
func (m *Messages) Get(key string) string {
	if msg, exists := m.Messages[key]; exists {
		return msg
	}
	return key // 返回键名作为默认值
}
