package domain

import (
	"strings"
	"time"
)

// ErrorSentinel is the prefix marking an OCR result as a failed attempt.
// A page whose OCRResult starts with this prefix holds no usable text
// and is a candidate for reprocessing.
const ErrorSentinel = "ERROR"

// Cloudinary describes where the scanned page image is stored.
// A page without one cannot be OCRed.
type Cloudinary struct {
	// SecureURL is the HTTPS URL of the stored image.
	SecureURL string `json:"secure_url"`

	// PublicID is the storage-side identifier of the asset.
	PublicID string `json:"public_id"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the image format (jpg, png, ...).
	Format string `json:"format"`

	// Bytes is the asset size in bytes.
	Bytes int64 `json:"bytes"`
}

// Page is one scanned page of an archival record.
// Pages are created by an external ingestion process; this system only
// fills in the derived fields (OCRResult, Embedding) after the fact.
type Page struct {
	// ID is the unique identifier for the page. Immutable.
	ID string

	// ParentRecordID references the record this page belongs to.
	// Read-only foreign relation; never written by this system.
	ParentRecordID string

	// PageNumber is the ordinal position within the parent record,
	// unique per record. The backing store keeps it as text.
	PageNumber string

	// Cloudinary locates the page image. Nil when the image was never
	// uploaded, which makes the page terminally unprocessable for OCR.
	Cloudinary *Cloudinary

	// OCRResult is the extracted text. Nil means OCR was never attempted;
	// a value starting with ErrorSentinel records a failed attempt.
	OCRResult *string

	// Embedding is the page's vector representation, present only after
	// successful embedding generation. Nil (not empty) means not yet
	// computed.
	Embedding []float32

	// Error is true when the last processing attempt failed and the row
	// should be retried.
	Error bool

	// UpdatedAt is when the page was last processed, successfully or not.
	UpdatedAt time.Time
}

// HasImage reports whether the page has an image that OCR can read.
func (p *Page) HasImage() bool {
	return p.Cloudinary != nil && p.Cloudinary.SecureURL != ""
}

// HasText reports whether the page holds usable OCR text,
// i.e. a non-nil result that is not an error sentinel.
func (p *Page) HasText() bool {
	return p.OCRResult != nil && !strings.HasPrefix(*p.OCRResult, ErrorSentinel)
}

// NeedsOCR reports whether the page still requires an OCR pass.
func (p *Page) NeedsOCR() bool {
	return !p.HasText()
}

// NeedsEmbedding reports whether the page has text but no vector yet.
func (p *Page) NeedsEmbedding() bool {
	return p.HasText() && p.Embedding == nil
}

// PageUpdate is a partial update applied to a single page row.
// Nil fields are left untouched by the store.
type PageUpdate struct {
	// OCRResult replaces the stored OCR text when non-nil.
	OCRResult *string

	// Embedding replaces the stored vector when non-nil.
	Embedding []float32

	// Error replaces the error flag when non-nil.
	Error *bool

	// UpdatedAt replaces the processing timestamp when non-nil.
	UpdatedAt *time.Time
}

// PageMap maps numeric page numbers to pages for one record.
// Keys are parsed from the store's textual page_number; pages whose
// number does not parse are omitted.
type PageMap map[int]Page
