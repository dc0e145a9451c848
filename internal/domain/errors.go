package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoCredentials is returned when an account has no usable key pair.
	ErrNoCredentials = errors.New("credentials not found")
	// ErrInvalidURL is returned for article URLs the tagger cannot fetch.
	ErrInvalidURL = errors.New("invalid article url")
)

// FetchError wraps a remote failure while retrieving articles.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "fetch articles: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// TaggingError wraps a tagging engine failure for one article.
type TaggingError struct {
	ArticleID string
	URL       string
	Err       error
}

func (e *TaggingError) Error() string {
	return fmt.Sprintf("tag article %s (%s): %v", e.ArticleID, e.URL, e.Err)
}

func (e *TaggingError) Unwrap() error { return e.Err }

// PersistError wraps a remote failure while sending one chunk of actions.
type PersistError struct {
	Chunk int
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist chunk %d: %v", e.Chunk, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// CredentialError wraps a failure resolving the key pair of an account.
type CredentialError struct {
	Account string
	Err     error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials for %q: %v", e.Account, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }
