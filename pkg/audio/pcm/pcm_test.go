package pcm

import (
	"testing"
	"time"
)

func TestFormatProperties(t *testing.T) {
	tests := []struct {
		format     Format
		sampleRate int
		str        string
	}{
		{L16Mono11K, 11025, "audio/L16; rate=11025; channels=1"},
		{L16Mono16K, 16000, "audio/L16; rate=16000; channels=1"},
		{L16Mono22K, 22050, "audio/L16; rate=22050; channels=1"},
		{L16Mono44K, 44100, "audio/L16; rate=44100; channels=1"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.format.SampleRate(); got != tt.sampleRate {
				t.Errorf("SampleRate() = %d, want %d", got, tt.sampleRate)
			}
			if got := tt.format.Channels(); got != 1 {
				t.Errorf("Channels() = %d, want 1", got)
			}
			if got := tt.format.Depth(); got != 16 {
				t.Errorf("Depth() = %d, want 16", got)
			}
			if got := tt.format.BytesPerSample(); got != 2 {
				t.Errorf("BytesPerSample() = %d, want 2", got)
			}
			if got := tt.format.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
			if !tt.format.Valid() {
				t.Error("Valid() = false")
			}
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	f := Format(42)
	if f.Valid() {
		t.Error("Format(42).Valid() = true")
	}
	if got := f.String(); got != "audio/invalid" {
		t.Errorf("String() = %q", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("SampleRate() on invalid format did not panic")
		}
	}()
	f.SampleRate()
}

func TestSampleMath(t *testing.T) {
	f := L16Mono11K
	if got := f.SamplesInSeconds(10); got != 110250 {
		t.Errorf("SamplesInSeconds(10) = %d, want 110250", got)
	}
	if got := f.SamplesInDuration(2 * time.Second); got != 22050 {
		t.Errorf("SamplesInDuration(2s) = %d, want 22050", got)
	}
	if got := f.BytesInSamples(1024); got != 2048 {
		t.Errorf("BytesInSamples(1024) = %d, want 2048", got)
	}
	if got := f.Duration(11025 * 3); got != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", got)
	}
}

func TestEncodeDecodeLE(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 0x1234}
	data := EncodeLE(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(data), len(samples)*2)
	}
	// 0x1234 little-endian is 0x34, 0x12.
	if data[10] != 0x34 || data[11] != 0x12 {
		t.Errorf("byte order = %#x %#x", data[10], data[11])
	}
	got := DecodeLE(append(data, 0xff))
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], samples[i])
		}
	}
}
