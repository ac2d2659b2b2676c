//go:build !whisper

package transcribe

import (
	"context"
	"fmt"
)

// NewWhisperCppLoader returns a loader that always fails when the binary was
// built without whisper.cpp.
func NewWhisperCppLoader(modelDir, language string) Loader {
	return func(ctx context.Context, size string) (Model, error) {
		return nil, fmt.Errorf("whispercpp backend disabled (build with -tags whisper to enable)")
	}
}
