package entity

import "fmt"

// Credentials authenticate the operator account that pays for every
// transaction in a run.
type Credentials struct {
	AccountID  AccountID
	PrivateKey string
}

// Validate checks that both values are present.
func (c Credentials) Validate() error {
	if c.AccountID == "" {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrMissingAccountID)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrMissingPrivateKey)
	}
	if err := c.AccountID.Validate(); err != nil {
		return fmt.Errorf("%w: MY_ACCOUNT_ID: %w", ErrConfiguration, err)
	}
	return nil
}

// String never includes the private key.
func (c Credentials) String() string {
	return fmt.Sprintf("operator %s", c.AccountID)
}

// KeyPair is a hex encoded asymmetric keypair.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// String never includes the private key.
func (k KeyPair) String() string {
	return "public key " + k.PublicKey
}
