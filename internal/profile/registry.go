// Package profile 管理评估阈值档案：默认档 + 按 symbol 覆盖，
// 文件热更新，应用前先过 JSON Schema 校验。
package profile

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pumpwatch/internal/logger"
)

// Thresholds 一组评估闸门参数。
type Thresholds struct {
	MinStrengthPct float64 `mapstructure:"min_strength_pct" yaml:"min_strength_pct"`
	RSIPeriod      int     `mapstructure:"rsi_period" yaml:"rsi_period"`
	RSIFloor       float64 `mapstructure:"rsi_floor" yaml:"rsi_floor"`
	WickBodyRatio  float64 `mapstructure:"wick_body_ratio" yaml:"wick_body_ratio"`
	VolumeFactor   float64 `mapstructure:"volume_factor" yaml:"volume_factor"`
}

// DefaultThresholds 跟随最完整的启发式变体。
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinStrengthPct: 5,
		RSIPeriod:      14,
		RSIFloor:       80,
		WickBodyRatio:  1.3,
		VolumeFactor:   2.0,
	}
}

func (t Thresholds) merged(base Thresholds) Thresholds {
	out := base
	if t.MinStrengthPct > 0 {
		out.MinStrengthPct = t.MinStrengthPct
	}
	if t.RSIPeriod > 0 {
		out.RSIPeriod = t.RSIPeriod
	}
	if t.RSIFloor > 0 {
		out.RSIFloor = t.RSIFloor
	}
	if t.WickBodyRatio > 0 {
		out.WickBodyRatio = t.WickBodyRatio
	}
	if t.VolumeFactor > 0 {
		out.VolumeFactor = t.VolumeFactor
	}
	return out
}

type fileConfig struct {
	Default Thresholds            `mapstructure:"default"`
	Symbols map[string]Thresholds `mapstructure:"symbols"`
}

// Snapshot 某一时刻的完整档案。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Default  Thresholds
	Symbols  map[string]Thresholds
}

// Registry 持有档案并监听文件变更。
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRegistry 读取档案文件并监听更新。path 为空时返回纯默认档的 registry。
func NewRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewStatic(DefaultThresholds()), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profile config failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("profile reload failed: %v", err)
			return
		}
		snap := r.CurrentSnapshot()
		logger.Infof("profile reloaded: version=%d symbols=%d", snap.Version, len(snap.Symbols))
	})
	v.WatchConfig()
	return r, nil
}

// NewStatic 构造不读文件的 registry（测试与最小部署用）。
func NewStatic(def Thresholds) *Registry {
	return &Registry{
		snapshot: Snapshot{
			Version:  1,
			LoadedAt: time.Now(),
			Default:  def.merged(DefaultThresholds()),
			Symbols:  map[string]Thresholds{},
		},
	}
}

func (r *Registry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read profile file: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("profile yaml invalid: %w", err)
	}
	if err := validateDocument(normalizeKeys(doc)); err != nil {
		return fmt.Errorf("profile schema: %w", err)
	}

	var cfg fileConfig
	if err := r.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reread profile config: %w", err)
	}
	if err := r.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return fmt.Errorf("decode profile config: %w", err)
	}

	def := cfg.Default.merged(DefaultThresholds())
	symbols := make(map[string]Thresholds, len(cfg.Symbols))
	for sym, t := range cfg.Symbols {
		symbols[strings.ToUpper(strings.TrimSpace(sym))] = t.merged(def)
	}

	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Default:  def,
		Symbols:  symbols,
	}
	r.mu.Unlock()
	return nil
}

// For 返回 symbol 生效的阈值（覆盖档优先）。
func (r *Registry) For(symbol string) Thresholds {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.snapshot.Symbols[symbol]; ok {
		return t
	}
	return r.snapshot.Default
}

// CurrentSnapshot 返回档案副本。
func (r *Registry) CurrentSnapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.snapshot
	out.Symbols = make(map[string]Thresholds, len(r.snapshot.Symbols))
	for k, v := range r.snapshot.Symbols {
		out.Symbols[k] = v
	}
	return out
}
