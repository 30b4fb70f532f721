package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "info", want: zapcore.InfoLevel},
		{in: "DEBUG", want: zapcore.DebugLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: " error ", want: zapcore.ErrorLevel},
		{in: "verbose", want: zapcore.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New("debug", "json")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", "console")
	assert.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
}
