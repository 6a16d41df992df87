package driven

import "context"

// OCREngine extracts text from scanned page images.
//
// Engines are treated as singleton, non-thread-safe resources: only one
// extraction runs at a time, and implementations acquire and release any
// underlying engine instance per invocation, even on failure.
type OCREngine interface {
	// ExtractText runs OCR over the image at the given URL.
	// Failures (unreachable or unreadable resource) wrap
	// domain.ErrOCRFailed.
	ExtractText(ctx context.Context, imageURL string) (string, error)
}
