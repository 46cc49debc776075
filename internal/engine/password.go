package engine

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

var errUnknownHash = errors.New("unknown password hash format")

// hashPassword returns the bcrypt hash of password.
func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// checkPassword verifies password against a stored hash. Besides bcrypt it
// understands the "method$salt$hex" hashes written by older deployments.
// legacy reports whether the hash should be replaced by a bcrypt one.
func checkPassword(stored, password string) (ok, legacy bool, err error) {
	if strings.HasPrefix(stored, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, false, nil
		}
		return err == nil, false, err
	}

	method, salt, ok := strings.Cut(stored, "$")
	if !ok {
		return false, false, errUnknownHash
	}
	salt, want, ok := strings.Cut(salt, "$")
	if !ok {
		return false, false, errUnknownHash
	}

	var got []byte
	params := strings.Split(method, ":")
	switch params[0] {
	case "pbkdf2":
		got, err = legacyPBKDF2(params[1:], password, salt)
	case "scrypt":
		got, err = legacyScrypt(params[1:], password, salt)
	default:
		return false, false, errUnknownHash
	}
	if err != nil {
		return false, false, err
	}
	match := subtle.ConstantTimeCompare([]byte(hex.EncodeToString(got)), []byte(want)) == 1
	return match, match, nil
}

func legacyPBKDF2(params []string, password, salt string) ([]byte, error) {
	name, iterations := "sha256", 600000
	if len(params) > 0 && params[0] != "" {
		name = params[0]
	}
	if len(params) > 1 {
		n, err := strconv.Atoi(params[1])
		if err != nil {
			return nil, errUnknownHash
		}
		iterations = n
	}
	var h func() hash.Hash
	switch name {
	case "sha1":
		h = sha1.New
	case "sha256":
		h = sha256.New
	case "sha512":
		h = sha512.New
	default:
		return nil, errUnknownHash
	}
	return pbkdf2.Key([]byte(password), []byte(salt), iterations, h().Size(), h), nil
}

func legacyScrypt(params []string, password, salt string) ([]byte, error) {
	n, r, p := 1<<15, 8, 1
	if len(params) == 3 {
		var errs [3]error
		n, errs[0] = strconv.Atoi(params[0])
		r, errs[1] = strconv.Atoi(params[1])
		p, errs[2] = strconv.Atoi(params[2])
		if err := errors.Join(errs[:]...); err != nil {
			return nil, errUnknownHash
		}
	}
	return scrypt.Key([]byte(password), []byte(salt), n, r, p, 64)
}
