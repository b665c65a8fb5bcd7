package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistryLoadsOverrides(t *testing.T) {
	path := writeProfiles(t, `
default:
  min_strength_pct: 4
symbols:
  BTC-USDT:
    min_strength_pct: 8
    volume_factor: 2.5
`)
	reg, err := NewRegistry(path)
	assert.NoError(t, err)

	def := reg.For("ABC-USDT")
	assert.Equal(t, 4.0, def.MinStrengthPct, "default 档覆盖内置默认")
	assert.Equal(t, 14, def.RSIPeriod, "未覆盖的字段回落到内置默认")

	btc := reg.For("BTC-USDT")
	assert.Equal(t, 8.0, btc.MinStrengthPct)
	assert.Equal(t, 2.5, btc.VolumeFactor)
	assert.Equal(t, 80.0, btc.RSIFloor)
}

func TestRegistryEmptyPathIsStatic(t *testing.T) {
	reg, err := NewRegistry("")
	assert.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), reg.For("ANY-USDT"))
}

func TestRegistryRejectsUnknownKeys(t *testing.T) {
	path := writeProfiles(t, `
default:
  min_strength_pc: 4
`)
	_, err := NewRegistry(path)
	assert.Error(t, err, "拼错的 key 必须在加载时报错，不能静默忽略")
}

func TestRegistryRejectsNegativeValues(t *testing.T) {
	path := writeProfiles(t, `
default:
  min_strength_pct: -1
`)
	_, err := NewRegistry(path)
	assert.Error(t, err)
}

func TestStaticMergesDefaults(t *testing.T) {
	reg := NewStatic(Thresholds{RSIFloor: 70})
	th := reg.For("ABC-USDT")
	assert.Equal(t, 70.0, th.RSIFloor)
	assert.Equal(t, 5.0, th.MinStrengthPct)
	assert.Equal(t, 1.3, th.WickBodyRatio)
}
