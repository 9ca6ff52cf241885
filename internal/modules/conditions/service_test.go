package conditions

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/glassnode"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

func risingSeries(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func fallingSeries(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 1000 - float64(i)*2
	}
	return closes
}

func TestBitcoinTrendState(t *testing.T) {
	assert.Equal(t, domain.BitcoinBullish, BitcoinTrendState(risingSeries(250)))
	assert.Equal(t, domain.BitcoinBearish, BitcoinTrendState(fallingSeries(250)))

	// Flat series keeps both averages equal
	flat := make([]float64, 250)
	for i := range flat {
		flat[i] = 500
	}
	assert.Equal(t, domain.BitcoinNeutral, BitcoinTrendState(flat))

	// Not enough bars for the long average
	assert.Equal(t, domain.BitcoinNeutral, BitcoinTrendState(risingSeries(100)))
}

func TestAvivBucket(t *testing.T) {
	assert.Equal(t, "oversold", AvivBucket(0.4))
	assert.Equal(t, "neutral", AvivBucket(1.0))
	assert.Equal(t, "overbought", AvivBucket(3.0))
}

type fakePrices struct {
	series domain.PriceSeries
	err    error
}

func (f *fakePrices) GetPriceHistory(context.Context, string, int) (domain.PriceSeries, error) {
	return f.series, f.err
}

type fakeOnchain struct {
	enabled bool
	latest  map[string]float64
	vaulted []glassnode.MetricPoint
}

func (f *fakeOnchain) Enabled() bool { return f.enabled }

func (f *fakeOnchain) GetMetric(_ context.Context, metricPath, _ string, _ time.Time) ([]glassnode.MetricPoint, error) {
	if metricPath == glassnode.MetricVaultedSupply {
		return f.vaulted, nil
	}
	return nil, domain.ErrAPIError
}

func (f *fakeOnchain) LatestValue(_ context.Context, metricPath, _ string) (float64, error) {
	if v, ok := f.latest[metricPath]; ok {
		return v, nil
	}
	return 0, domain.ErrAPIError
}

type fakeMacro struct {
	change float64
	err    error
}

func (f *fakeMacro) FedRateChange(context.Context) (float64, error) {
	return f.change, f.err
}

func priceSeriesFrom(closes []float64) domain.PriceSeries {
	now := time.Now().UTC()
	series := make(domain.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = domain.PricePoint{Date: now.AddDate(0, 0, i-len(closes)), Price: c}
	}
	return series
}

func TestSnapshotFull(t *testing.T) {
	svc := NewService(
		&fakePrices{series: priceSeriesFrom(risingSeries(250))},
		&fakeOnchain{
			enabled: true,
			latest: map[string]float64{
				glassnode.MetricAVIV:         0.5,
				glassnode.MetricActiveSupply: 0.62,
			},
			vaulted: []glassnode.MetricPoint{{V: 0.40}, {V: 0.45}},
		},
		&fakeMacro{change: -0.25},
		zerolog.Nop(),
	)

	snapshot := svc.Snapshot(context.Background())

	assert.Equal(t, domain.BitcoinBullish, snapshot.BitcoinState)
	require.NotNil(t, snapshot.AvivRatio)
	assert.Equal(t, 0.5, *snapshot.AvivRatio)
	require.NotNil(t, snapshot.VaultedSupply)
	assert.Equal(t, 0.45, *snapshot.VaultedSupply)
	assert.True(t, snapshot.SmartMoneyActivity)
	assert.Equal(t, -0.25, snapshot.FedRateChange)
}

func TestSnapshotDegradesWithoutSources(t *testing.T) {
	svc := NewService(
		&fakePrices{err: domain.ErrAPIError},
		&fakeOnchain{enabled: false},
		&fakeMacro{err: domain.ErrAPIError},
		zerolog.Nop(),
	)

	snapshot := svc.Snapshot(context.Background())

	assert.Equal(t, domain.BitcoinNeutral, snapshot.BitcoinState)
	assert.Nil(t, snapshot.AvivRatio)
	assert.Nil(t, snapshot.VaultedSupply)
	assert.False(t, snapshot.SmartMoneyActivity)
	assert.Zero(t, snapshot.FedRateChange)
}

func TestSnapshotVaultedSupplyFalling(t *testing.T) {
	svc := NewService(
		&fakePrices{series: priceSeriesFrom(fallingSeries(250))},
		&fakeOnchain{
			enabled: true,
			latest:  map[string]float64{},
			vaulted: []glassnode.MetricPoint{{V: 0.50}, {V: 0.44}},
		},
		&fakeMacro{change: 0.25},
		zerolog.Nop(),
	)

	snapshot := svc.Snapshot(context.Background())

	assert.Equal(t, domain.BitcoinBearish, snapshot.BitcoinState)
	assert.False(t, snapshot.SmartMoneyActivity)
	assert.Equal(t, 0.25, snapshot.FedRateChange)
}
