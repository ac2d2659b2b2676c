package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// SampleRate is the PCM rate whisper.cpp expects.
const SampleRate = 16000

var soxAvailable = sync.OnceValue(func() bool {
	_, err := exec.LookPath("sox")
	return err == nil
})

// CheckSox reports whether sox is in PATH. The lookup happens once.
func CheckSox() bool {
	return soxAvailable()
}

// DecodePCM converts any sox-readable audio file to 16kHz mono float32
// samples in [-1, 1].
func DecodePCM(ctx context.Context, inputPath string) ([]float32, error) {
	if !CheckSox() {
		return nil, fmt.Errorf("sox not found in PATH")
	}

	// Raw signed 16-bit little-endian on stdout
	cmd := exec.CommandContext(ctx, "sox",
		inputPath,
		"-t", "raw",
		"-r", fmt.Sprint(SampleRate),
		"-c", "1",
		"-b", "16",
		"-e", "signed-integer",
		"-L",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("sox decode: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("sox decode: no audio samples")
	}
	return pcm16ToFloat32(stdout.Bytes()), nil
}

// pcm16ToFloat32 converts little-endian 16-bit PCM to float32 samples.
// A trailing odd byte is ignored.
func pcm16ToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
		samples[i] = float32(s) / 32768.0
	}
	return samples
}
