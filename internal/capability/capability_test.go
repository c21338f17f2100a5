package capability

import "testing"

func TestCheckCompatibility(t *testing.T) {
	cases := []struct {
		model, chipset string
		compatible     bool
		speed          string
		available      string
	}{
		{"OmniNeural-4B", "SM8650", true, SpeedFast, PluginNPU},
		{"OmniNeural-4B", "sm7250", false, SpeedNotSupported, PluginCPUGPU},
		{"SmolVLM-256M-Instruct-f16", "SM7250", true, SpeedSlow, PluginCPUGPU},
		{"SmolVLM-256M-Instruct-f16", "SM8750", true, SpeedFast, PluginNPU},
		{"unknown-model", "", true, SpeedMedium, PluginCPUGPU},
		{"unknown-model", "SM8450", true, SpeedMedium, PluginCPUGPU},
	}
	for _, c := range cases {
		got := CheckCompatibility(c.model, c.chipset)
		if got.IsCompatible != c.compatible || got.ExpectedSpeed != c.speed || got.AvailablePlugin != c.available {
			t.Fatalf("%s on %q: got %+v", c.model, c.chipset, got)
		}
		if got.Recommendation == "" {
			t.Fatalf("%s on %q: empty recommendation", c.model, c.chipset)
		}
	}
}

func TestDeviceInfo(t *testing.T) {
	d := DeviceInfo(" sm8850 ")
	if d.Chipset != "SM8850" || !d.HasNPU || len(d.SupportedPlugins) != 2 || d.SupportedPlugins[0] != PluginNPU {
		t.Fatalf("unexpected device: %+v", d)
	}
	// missing from the performance table
	if d.PerformanceLevel != SpeedMedium {
		t.Fatalf("performance = %q", d.PerformanceLevel)
	}

	d = DeviceInfo("SM6375")
	if d.HasNPU || d.PerformanceLevel != SpeedSlow || len(d.SupportedPlugins) != 1 {
		t.Fatalf("unexpected device: %+v", d)
	}
}
