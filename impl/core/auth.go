package core

import "crypto/subtle"

// ValidateToken checks an operator API key.
func (c *Core) ValidateToken(token string) error {
	if c.authKey == "" {
		return ErrAuthDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.authKey)) != 1 {
		return ErrInvalidKey
	}
	return nil
}
