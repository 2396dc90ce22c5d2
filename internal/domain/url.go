package domain

import "errors"

// URLMapping is the only persisted entity: a short code and the URL it stands for.
// Mappings are written once at shorten time and never updated or deleted.
type URLMapping struct {
	ShortCode   string
	OriginalURL string
}

// Domain errors
var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrEmptyShortCode = errors.New("short code cannot be empty")
)

// NewURLMapping is a constructor for a mapping about to be saved.
func NewURLMapping(shortCode, originalURL string) URLMapping {
	return URLMapping{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
	}
}

// Validate checks the fields a store needs. The original URL is stored as given;
// its well-formedness is not checked here.
func (m URLMapping) Validate() error {
	if m.ShortCode == "" {
		return ErrEmptyShortCode
	}
	if m.OriginalURL == "" {
		return ErrEmptyURL
	}
	return nil
}
