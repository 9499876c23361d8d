package format

import (
	"fmt"
	"sort"
)

// EmitterManager 输出器管理器
type EmitterManager struct {
	emitters map[string]Emitter
}

// NewEmitterManager 创建新的输出器管理器
func NewEmitterManager() *EmitterManager {
	manager := &EmitterManager{
		emitters: make(map[string]Emitter),
	}

	// 注册内置输出器
	manager.RegisterEmitter("nbt", NewStructureEmitter())
	manager.RegisterEmitter("json", NewJSONEmitter())
	manager.RegisterEmitter("cbor", NewCBOREmitter())

	return manager
}

// RegisterEmitter 注册输出器
func (em *EmitterManager) RegisterEmitter(formatName string, emitter Emitter) {
	em.emitters[formatName] = emitter
}

// GetEmitter 获取指定格式的输出器
func (em *EmitterManager) GetEmitter(formatName string) (Emitter, error) {
	emitter, exists := em.emitters[formatName]
	if !exists {
		return nil, fmt.Errorf("不支持的格式: %s", formatName)
	}
	return emitter, nil
}

// GetAvailableFormats 获取所有可用格式（按名称排序）
func (em *EmitterManager) GetAvailableFormats() []string {
	formats := make([]string, 0, len(em.emitters))
	for formatName := range em.emitters {
		formats = append(formats, formatName)
	}
	sort.Strings(formats)
	return formats
}
