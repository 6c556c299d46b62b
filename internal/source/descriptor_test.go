package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/llehouerou/undertow/internal/playlist"
)

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr bool
	}{
		{"direct", Direct("http://host/a.mp3"), false},
		{"direct without url", Descriptor{Kind: KindDirect}, true},
		{"embedded with ref", Embedded("yt", "abc123"), false},
		{"embedded with provider only", Embedded("abc123", ""), false},
		{"embedded empty", Descriptor{Kind: KindEmbedded}, true},
		{"no kind", Descriptor{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("Validate() error = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func TestDescriptor_Target(t *testing.T) {
	if got := Direct("http://x").Target(); got != "http://x" {
		t.Errorf("Direct Target() = %q", got)
	}
	if got := Embedded("p", "ref").Target(); got != "ref" {
		t.Errorf("Embedded Target() = %q, want ref", got)
	}
	if got := Embedded("p", "").Target(); got != "p" {
		t.Errorf("Embedded Target() = %q, want p", got)
	}
}

type telemetryFunc func() error

func (f telemetryFunc) ReportPlayStarted(context.Context, playlist.Track, time.Duration) error {
	return f()
}

func TestMultiTelemetry_JoinsErrors(t *testing.T) {
	errA := errors.New("a")
	calls := 0
	m := MultiTelemetry{
		telemetryFunc(func() error { calls++; return errA }),
		nil,
		telemetryFunc(func() error { calls++; return nil }),
	}

	err := m.ReportPlayStarted(context.Background(), playlist.Track{ID: "t"}, time.Minute)

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, errA) {
		t.Errorf("error = %v, want errA", err)
	}
}
