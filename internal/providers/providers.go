// Package providers defines the contract shared by the LLM vision backends
// that can read a cover page image.
package providers

import (
	"context"
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string

	// Image is an encoded page image sent with the prompt, if any.
	Image []byte
	// ImageMIME is the media type of Image, e.g. "image/png".
	ImageMIME string
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// ImageFormat returns the subtype of the image media type ("png" for
// "image/png"), defaulting to png.
func (c Config) ImageFormat() string {
	switch c.ImageMIME {
	case "image/jpeg":
		return "jpeg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

// MIME returns ImageMIME or image/png when unset.
func (c Config) MIME() string {
	if c.ImageMIME == "" {
		return "image/png"
	}
	return c.ImageMIME
}
