package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrInsecurePermissions is returned for secret files that other users can
// read or that anyone but the owner can write.
var ErrInsecurePermissions = errors.New("insecure secret file permissions")

// ErrEmptySecret is returned for secret files with no content.
var ErrEmptySecret = errors.New("secret file is empty")

// ReadFile returns the content of the secret file at path with surrounding
// whitespace removed. This suits Kubernetes-style secret mounts, where each
// secret is a file ending in a newline.
//
// The file must be a regular file that is neither readable by other users
// nor writable by its group or other users (0600, 0640, 0400 and 0440 are
// accepted).
func ReadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("secret file not found: %s", path)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", path)
	}

	if mode := info.Mode().Perm(); mode&0o027 != 0 {
		return "", fmt.Errorf("%w on %s: %o (expected 0600, 0640, 0400 or 0440)", ErrInsecurePermissions, path, mode)
	}

	// #nosec G304 - the path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptySecret, path)
	}
	return value, nil
}
