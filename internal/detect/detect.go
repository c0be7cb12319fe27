// Package detect labels uploaded e-waste images. The only current
// implementation picks a label at random; the interface exists so a
// real model can replace it without touching callers.
package detect

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"time"
)

// Labels is the fixed detection vocabulary.
var Labels = []string{
	"Laptop",
	"Old Monitor",
	"Smartphone",
	"Keyboard",
	"Broken Printer",
	"Tablet",
}

// Detector labels a single e-waste image. The image may be nil when
// the upload could not be decoded; implementations must still produce
// a label or a detection error, never reject the input.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (string, error)
}

// RandomDetector is a placeholder detector. It ignores the image and
// returns a uniformly-random label after an artificial delay, to mimic
// inference latency.
type RandomDetector struct {
	Delay time.Duration
}

// Detect returns one of the fixed labels. The delay is cut short if the
// context is cancelled.
func (d *RandomDetector) Detect(ctx context.Context, _ image.Image) (string, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return "", fmt.Errorf("detection cancelled: %w", ctx.Err())
		}
	}

	return Labels[rand.IntN(len(Labels))], nil
}
