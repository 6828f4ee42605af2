package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a portal account password. Cost comes from
// config so tests can run with a cheap setting.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a login attempt against the stored hash. Callers
// report the mismatch as invalid credentials without detail.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
