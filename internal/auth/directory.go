// internal/auth/directory.go
package auth

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Directory is the immutable username→password table loaded once at startup.
// Entries are "user:secret" lines; the secret is either a plaintext password
// or an Argon2id encoded hash (detected by its $argon2id$ prefix). There is
// no dynamic user management: the table is read-only after load.
type Directory struct {
	users map[string]string
	log   *logrus.Logger
}

// LoadDirectory reads the credential file at path. Malformed lines are
// skipped with a warning; an unreadable file is an error (fatal at startup).
func LoadDirectory(path string, logger *logrus.Logger) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credential file %s: %w", path, err)
	}
	defer f.Close()

	d := &Directory{users: make(map[string]string), log: logger}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		user, secret, ok := strings.Cut(line, ":")
		if !ok || user == "" {
			logger.Warnf("skipping malformed credential line: %q", line)
			continue
		}
		d.users[user] = secret
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credential file %s: %w", path, err)
	}

	logger.Infof("loaded %d users from %s", len(d.users), path)
	return d, nil
}

// Len reports the number of loaded users.
func (d *Directory) Len() int {
	return len(d.users)
}

// Validate reports whether the given credentials match a directory entry.
func (d *Directory) Validate(user, pass string) bool {
	secret, ok := d.users[user]
	if !ok {
		return false
	}
	if strings.HasPrefix(secret, HashPrefix) {
		match, err := VerifyPassword(pass, secret)
		if err != nil {
			d.log.Errorf("bad stored hash for user %s: %v", user, err)
			return false
		}
		return match
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(pass)) == 1
}
