package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var configValidator = validator.New()

// Validate runs struct-tag validation over c and then the cross-field
// checks that validator tags alone can't express: image OCR min/max
// dimension ordering and overlap-less-than-chars for content chunking.
// Returns a *ValidationError on the first failure found.
func (c ExtractionConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return NewValidationError(err.Error(), NewErrorContext("validate_config"))
	}

	min, max := c.ImageOCRMinDimensions, c.ImageOCRMaxDimensions
	if !max.IsZero() {
		if max.Width > 0 && min.Width > max.Width {
			return NewValidationError(
				fmt.Sprintf("image_ocr_min_dimensions width %d exceeds max width %d", min.Width, max.Width),
				NewErrorContext("validate_config"))
		}
		if max.Height > 0 && min.Height > max.Height {
			return NewValidationError(
				fmt.Sprintf("image_ocr_min_dimensions height %d exceeds max height %d", min.Height, max.Height),
				NewErrorContext("validate_config"))
		}
	}

	if c.ChunkContent && c.MaxChars > 0 && c.MaxOverlap >= c.MaxChars {
		return NewValidationError(
			fmt.Sprintf("max_overlap %d must be less than max_chars %d", c.MaxOverlap, c.MaxChars),
			NewErrorContext("validate_config"))
	}

	return nil
}
