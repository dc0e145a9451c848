package credentials

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/ports"
)

// DefaultPath is where the key pairs live unless configured otherwise.
const DefaultPath = "~/.pocket/credentials"

const (
	consumerKeyName = "consumer_key"
	accessTokenName = "access_token"
)

// Store reads per-account key pairs from an INI file with one section per account.
type Store struct {
	path string
}

var _ ports.CredentialStore = (*Store)(nil)

// NewStore expands a leading "~" in path; an empty path uses DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	expanded, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: expanded}, nil
}

// Path returns the resolved file location.
func (s *Store) Path() string {
	return s.path
}

// Get loads the file and returns the key pair of account.
func (s *Store) Get(account string) (domain.Credentials, error) {
	file, err := ini.Load(s.path)
	if err != nil {
		return domain.Credentials{}, &domain.CredentialError{
			Account: account,
			Err:     errors.Wrapf(domain.ErrNoCredentials, "load %s: %v", s.path, err),
		}
	}

	section, err := file.GetSection(account)
	if err != nil {
		return domain.Credentials{}, &domain.CredentialError{
			Account: account,
			Err:     errors.Wrapf(domain.ErrNoCredentials, "no section in %s", s.path),
		}
	}

	creds := domain.Credentials{
		ConsumerKey: strings.TrimSpace(section.Key(consumerKeyName).String()),
		AccessToken: strings.TrimSpace(section.Key(accessTokenName).String()),
	}
	if creds.ConsumerKey == "" || creds.AccessToken == "" {
		return domain.Credentials{}, &domain.CredentialError{
			Account: account,
			Err:     errors.Wrapf(domain.ErrNoCredentials, "%s and %s are required", consumerKeyName, accessTokenName),
		}
	}

	return creds, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
