package engine

import (
	"context"
	"fmt"
	"time"

	talib "github.com/markcheno/go-talib"

	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/market"
	"pumpwatch/internal/profile"
)

// minCandleHistory 低于该数量的 K 线直接硬失败。
const minCandleHistory = 6

// volumeBaselineSpan 成交量基线取最新一根之前 5 根的均值。
const volumeBaselineSpan = 5

type EvaluatorSettings struct {
	Interval    string
	CandleLimit int
	SampleCount int
	SampleGap   time.Duration
	CallTimeout time.Duration
}

func (s EvaluatorSettings) withDefaults() EvaluatorSettings {
	out := s
	if out.Interval == "" {
		out.Interval = "1m"
	}
	if out.CandleLimit < minCandleHistory {
		out.CandleLimit = 50
	}
	if out.SampleCount < 2 {
		out.SampleCount = 3
	}
	if out.SampleGap <= 0 {
		out.SampleGap = 400 * time.Millisecond
	}
	if out.CallTimeout <= 0 {
		out.CallTimeout = 10 * time.Second
	}
	return out
}

// Verdict 一次评估的结论。Reason 固定为第一个不满足的条件。
type Verdict struct {
	Pass         bool                 `json:"pass"`
	Reason       string               `json:"reason,omitempty"`
	PumpPct      float64              `json:"real_pump_pct"`
	VolumeSpike  bool                 `json:"volume_spike"`
	WickReversal bool                 `json:"wick_reversal"`
	MomentumFade bool                 `json:"momentum_fade"`
	RSI          float64              `json:"rsi"`
	Samples      []market.PriceSample `json:"samples,omitempty"`
}

// Evaluator 只读地判定一个报警是否构成可进场的反转机会。
// 条件按固定顺序短路：真实涨幅 → 放量 → 上影线 → 动能衰减 → RSI。
type Evaluator struct {
	client   exchange.Client
	profiles *profile.Registry
	settings EvaluatorSettings
}

func NewEvaluator(client exchange.Client, profiles *profile.Registry, settings EvaluatorSettings) *Evaluator {
	if profiles == nil {
		profiles = profile.NewStatic(profile.DefaultThresholds())
	}
	return &Evaluator{
		client:   client,
		profiles: profiles,
		settings: settings.withDefaults(),
	}
}

// Thresholds 返回 symbol 当前生效的阈值档。
func (e *Evaluator) Thresholds(symbol string) profile.Thresholds {
	return e.profiles.For(symbol)
}

// Evaluate 拉取 K 线与三次实时价并给出结论。任何上游失败原样上抛，
// 绝不静默当作通过。
func (e *Evaluator) Evaluate(ctx context.Context, symbol string, declaredPct float64) (Verdict, error) {
	th := e.profiles.For(symbol)

	candles, err := e.fetchCandles(ctx, symbol)
	if err != nil {
		return Verdict{}, err
	}

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	v := Verdict{}

	// 真实涨幅：最近两根收盘价之差，必须不低于报警声称的强度。
	if prev.Close <= 0 {
		return Verdict{}, fmt.Errorf("evaluate %s: zero reference close", symbol)
	}
	v.PumpPct = (last.Close - prev.Close) / prev.Close * 100
	if v.PumpPct < declaredPct {
		v.Reason = fmt.Sprintf("pump not confirmed: real %.2f%% < declared %.2f%%", v.PumpPct, declaredPct)
		return v, nil
	}

	// 放量：最新一根成交量超过此前 5 根均值的 VolumeFactor 倍。
	baseline := volumeBaseline(candles)
	v.VolumeSpike = baseline > 0 && last.Volume > th.VolumeFactor*baseline
	if !v.VolumeSpike {
		v.Reason = "no volume spike"
		return v, nil
	}

	// 上影线：wick 超过实体的 WickBodyRatio 倍说明冲高被卖回。
	v.WickReversal = last.UpperWick() > th.WickBodyRatio*last.Body()
	if !v.WickReversal {
		v.Reason = "no wick reversal"
		return v, nil
	}

	// 动能衰减：连续采样严格递减，确认回落正在发生。
	samples, err := e.takeSamples(ctx, symbol)
	if err != nil {
		return Verdict{}, err
	}
	v.Samples = samples
	v.MomentumFade = strictlyDecreasing(samples)
	if !v.MomentumFade {
		v.Reason = "momentum not fading"
		return v, nil
	}

	// RSI 极端超买才值得反手。
	v.RSI = simpleRSI(closesOf(candles), th.RSIPeriod)
	if v.RSI <= th.RSIFloor {
		v.Reason = fmt.Sprintf("rsi %.1f below floor %.1f", v.RSI, th.RSIFloor)
		return v, nil
	}

	v.Pass = true
	return v, nil
}

func (e *Evaluator) fetchCandles(ctx context.Context, symbol string) ([]market.Candle, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.settings.CallTimeout)
	defer cancel()
	candles, err := e.client.GetCandles(callCtx, symbol, e.settings.Interval, e.settings.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	if len(candles) < minCandleHistory {
		return nil, fmt.Errorf("%w: %s got %d candles, need %d", ErrInsufficientHistory, symbol, len(candles), minCandleHistory)
	}
	return candles, nil
}

func (e *Evaluator) takeSamples(ctx context.Context, symbol string) ([]market.PriceSample, error) {
	samples := make([]market.PriceSample, 0, e.settings.SampleCount)
	for i := 0; i < e.settings.SampleCount; i++ {
		if i > 0 {
			timer := time.NewTimer(e.settings.SampleGap)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, e.settings.CallTimeout)
		price, err := e.client.GetPrice(callCtx, symbol)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("sample price %s: %w", symbol, err)
		}
		samples = append(samples, market.PriceSample{
			Symbol:     symbol,
			Price:      price,
			ObservedAt: time.Now(),
		})
	}
	return samples, nil
}

func volumeBaseline(candles []market.Candle) float64 {
	volumes := make([]float64, 0, len(candles)-1)
	for _, c := range candles[:len(candles)-1] {
		volumes = append(volumes, c.Volume)
	}
	if len(volumes) < volumeBaselineSpan {
		return 0
	}
	sma := talib.Sma(volumes, volumeBaselineSpan)
	return sma[len(sma)-1]
}

func closesOf(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func strictlyDecreasing(samples []market.PriceSample) bool {
	if len(samples) < 2 {
		return false
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Price >= samples[i-1].Price {
			return false
		}
	}
	return true
}
