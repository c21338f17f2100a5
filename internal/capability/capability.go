// Package capability answers which models a device can run and how fast,
// from static chipset tables.
package capability

import (
	"runtime"
	"strings"
)

// Plugin names understood by the inference runtime.
const (
	PluginNPU    = "npu"
	PluginCPUGPU = "cpu_gpu"
)

// Speed tiers.
const (
	SpeedFast         = "fast"
	SpeedMedium       = "medium"
	SpeedSlow         = "slow"
	SpeedNotSupported = "not_supported"
)

var npuChipsets = map[string]bool{
	"SM8650": true, // Snapdragon 8 Gen 3
	"SM8750": true, // Snapdragon 8 Gen 4
	"SM8850": true,
}

var modelRequirements = map[string]string{
	"OmniNeural-4B":             PluginNPU,
	"paddleocr-npu":             PluginNPU,
	"parakeet-tdt-0.6b-v3-npu":  PluginNPU,
	"embeddinggemma-300m-npu":   PluginNPU,
	"jina-v2-rerank-npu":        PluginNPU,
	"LFM2-1.2B-npu":             PluginNPU,
	"SmolVLM-256M-Instruct-f16": PluginCPUGPU,
	"LFM2-1.2B-GGUF-GGUF":       PluginCPUGPU,
}

var chipsetPerformance = map[string]string{
	"SM8650": SpeedFast,
	"SM8750": SpeedFast,
	"SM8550": SpeedFast,

	"SM8450": SpeedMedium,
	"SM8350": SpeedMedium,
	"SM8250": SpeedMedium,
	"SM7550": SpeedMedium,
	"SM7450": SpeedMedium,
	"SM7325": SpeedMedium,
	"SM7350": SpeedMedium,
	"SM8150": SpeedMedium,

	"SM7250": SpeedSlow,
	"SM6375": SpeedSlow,
	"SM6350": SpeedSlow,
	"SM7125": SpeedSlow,
}

// Device describes what a chipset offers.
type Device struct {
	Chipset          string   `json:"chipset"`
	OS               string   `json:"os"`
	Arch             string   `json:"arch"`
	HasNPU           bool     `json:"hasNpu"`
	HasGPU           bool     `json:"hasGpu"`
	HasCPU           bool     `json:"hasCpu"`
	SupportedPlugins []string `json:"supportedPlugins"`
	PerformanceLevel string   `json:"performanceLevel"`
}

// Compatibility is the verdict for one model on one chipset.
type Compatibility struct {
	ModelID         string `json:"modelId"`
	IsCompatible    bool   `json:"isCompatible"`
	RequiredPlugin  string `json:"requiredPlugin"`
	AvailablePlugin string `json:"availablePlugin"`
	ExpectedSpeed   string `json:"expectedSpeed"`
	Recommendation  string `json:"recommendation"`
	Chipset         string `json:"chipset"`
	HasNPU          bool   `json:"hasNpu"`
}

// Normalize upper-cases and trims a chipset identifier.
func Normalize(chipset string) string {
	return strings.ToUpper(strings.TrimSpace(chipset))
}

func HasNPU(chipset string) bool { return npuChipsets[Normalize(chipset)] }

// PerformanceLevel defaults to medium for chipsets missing from the table.
func PerformanceLevel(chipset string) string {
	if p, ok := chipsetPerformance[Normalize(chipset)]; ok {
		return p
	}
	return SpeedMedium
}

// RequiredPlugin defaults to cpu_gpu for models missing from the table.
func RequiredPlugin(modelID string) string {
	if p, ok := modelRequirements[modelID]; ok {
		return p
	}
	return PluginCPUGPU
}

// DeviceInfo reports the capabilities of chipset on the running platform.
// Every device is assumed to have a CPU and a GPU.
func DeviceInfo(chipset string) Device {
	c := Normalize(chipset)
	npu := HasNPU(c)
	plugins := []string{PluginCPUGPU}
	if npu {
		plugins = []string{PluginNPU, PluginCPUGPU}
	}
	return Device{
		Chipset:          c,
		OS:               runtime.GOOS,
		Arch:             runtime.GOARCH,
		HasNPU:           npu,
		HasGPU:           true,
		HasCPU:           true,
		SupportedPlugins: plugins,
		PerformanceLevel: PerformanceLevel(c),
	}
}

// CheckCompatibility decides whether modelID can run on chipset.
func CheckCompatibility(modelID, chipset string) Compatibility {
	c := Normalize(chipset)
	npu := HasNPU(c)
	required := RequiredPlugin(modelID)

	compatible := required == PluginCPUGPU || (required == PluginNPU && npu)

	var speed string
	switch {
	case !compatible:
		speed = SpeedNotSupported
	case required == PluginNPU:
		speed = SpeedFast
	default:
		speed = PerformanceLevel(c)
	}

	available := PluginCPUGPU
	if npu {
		available = PluginNPU
	}
	return Compatibility{
		ModelID:         modelID,
		IsCompatible:    compatible,
		RequiredPlugin:  required,
		AvailablePlugin: available,
		ExpectedSpeed:   speed,
		Recommendation:  recommendation(compatible, speed),
		Chipset:         c,
		HasNPU:          npu,
	}
}

func recommendation(compatible bool, speed string) string {
	switch {
	case !compatible:
		return "This model requires NPU support. Your device doesn't have NPU. Try CPU/GPU models instead."
	case speed == SpeedFast:
		return "Recommended - Will run smoothly on your device"
	case speed == SpeedMedium:
		return "Compatible - Will run with acceptable performance"
	case speed == SpeedSlow:
		return "Compatible but may be slow - Consider using a smaller model"
	default:
		return "Not supported on your device"
	}
}
