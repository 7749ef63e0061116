package sales

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/cafepos/pkg/logger"
)

const (
	saleNumberCounter = "sale_number"
	saleNumberLayout  = "20060102"
)

type dailyCounter interface {
	NextDailySequence(ctx context.Context, name string, day time.Time) (int64, error)
}

// DailyNumberGenerator formats <prefix>-YYYYMMDD-NNNN from a per-day counter.
// Without a counter, or when the counter fails, it falls back to a sequence derived
// from the time of day so numbers stay unique within a process.
type DailyNumberGenerator struct {
	counter  dailyCounter
	prefix   string
	now      clock
	logg     *logger.Logger
	fallback atomic.Int64
}

// NewDailyNumberGenerator builds a generator. counter may be nil.
func NewDailyNumberGenerator(counter dailyCounter, prefix string, logg *logger.Logger) *DailyNumberGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "S"
	}
	return &DailyNumberGenerator{
		counter: counter,
		prefix:  prefix,
		now:     time.Now,
		logg:    logg,
	}
}

func (g *DailyNumberGenerator) Next(ctx context.Context) (string, error) {
	day := g.now().UTC()
	if g.counter != nil {
		seq, err := g.counter.NextDailySequence(ctx, saleNumberCounter, day)
		if err == nil {
			return g.format(day, seq), nil
		}
		if g.logg != nil {
			g.logg.Warn(ctx, fmt.Sprintf("sale number counter unavailable, using fallback: %v", err))
		}
	}
	return g.format(day, g.fallbackSequence(day)), nil
}

func (g *DailyNumberGenerator) fallbackSequence(day time.Time) int64 {
	secondOfDay := int64(day.Hour()*3600 + day.Minute()*60 + day.Second())
	return secondOfDay*100 + g.fallback.Add(1)%100
}

func (g *DailyNumberGenerator) format(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", g.prefix, day.Format(saleNumberLayout), seq)
}
