package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOptionsDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		want Options
	}{
		{name: "zero", in: Options{}, want: Options{MaxOpenConns: 50, MaxIdleConns: 10, SlowThreshold: 500 * time.Millisecond}},
		{name: "small pool", in: Options{MaxOpenConns: 4}, want: Options{MaxOpenConns: 4, MaxIdleConns: 4, SlowThreshold: 500 * time.Millisecond}},
		{name: "idle above open", in: Options{MaxOpenConns: 8, MaxIdleConns: 20, SlowThreshold: time.Second}, want: Options{MaxOpenConns: 8, MaxIdleConns: 8, SlowThreshold: time.Second}},
		{name: "explicit", in: Options{MaxOpenConns: 30, MaxIdleConns: 5, SlowThreshold: time.Second}, want: Options{MaxOpenConns: 30, MaxIdleConns: 5, SlowThreshold: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.withDefaults())
		})
	}
}

func TestGormWarningsGoThroughZap(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := zapWriter{log: zap.New(core).Named("gorm").Sugar()}

	w.Printf("slow sql %dms", 900)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "slow sql 900ms", entries[0].Message)
		assert.Equal(t, "gorm", entries[0].LoggerName)
	}
}
