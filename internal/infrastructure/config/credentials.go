package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
)

// Operator credential variables.
const (
	EnvAccountID  = "MY_ACCOUNT_ID"
	EnvPrivateKey = "MY_PRIVATE_KEY"
)

// EnvCredentialSource implements the CredentialSource port. Values come
// from the process environment, falling back to a dotenv file.
type EnvCredentialSource struct {
	lookup     func(string) (string, bool)
	dotEnvPath string
}

// NewEnvCredentialSource reads the process environment and, for values it
// lacks, dotEnvPath (ignored when empty or absent).
func NewEnvCredentialSource(dotEnvPath string) port.CredentialSource {
	return &EnvCredentialSource{lookup: os.LookupEnv, dotEnvPath: dotEnvPath}
}

// Load returns validated credentials or an error wrapping ErrConfiguration.
func (s *EnvCredentialSource) Load() (entity.Credentials, error) {
	accountID := s.get(EnvAccountID)
	privateKey := s.get(EnvPrivateKey)

	if accountID == "" || privateKey == "" {
		dotEnv, err := s.readDotEnv()
		if err != nil {
			return entity.Credentials{}, err
		}
		if accountID == "" {
			accountID = strings.TrimSpace(dotEnv[EnvAccountID])
		}
		if privateKey == "" {
			privateKey = strings.TrimSpace(dotEnv[EnvPrivateKey])
		}
	}

	creds := entity.Credentials{
		AccountID:  entity.AccountID(accountID),
		PrivateKey: privateKey,
	}
	if err := creds.Validate(); err != nil {
		return entity.Credentials{}, err
	}
	return creds, nil
}

func (s *EnvCredentialSource) get(key string) string {
	v, _ := s.lookup(key)
	return strings.TrimSpace(v)
}

func (s *EnvCredentialSource) readDotEnv() (map[string]string, error) {
	out := make(map[string]string)
	if s.dotEnvPath == "" {
		return out, nil
	}
	if _, err := os.Stat(s.dotEnvPath); errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}

	v := viper.New()
	v.SetConfigFile(s.dotEnvPath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", entity.ErrConfiguration, s.dotEnvPath, err)
	}
	for _, key := range []string{EnvAccountID, EnvPrivateKey} {
		out[key] = v.GetString(key)
	}
	return out, nil
}
