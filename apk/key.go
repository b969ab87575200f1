package apk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/frantjc/goapk"
	"github.com/frantjc/goapk/config"
	"github.com/frantjc/goapk/keytool"
)

const (
	// DevProfile is the signing profile that may fall back to the
	// auto-generated debug keystore.
	DevProfile = "dev"

	// KeystoreEnvPrefix and the suffixes name the per-profile
	// environment overrides, e.g. GOAPK_RELEASE_KEYSTORE and
	// GOAPK_RELEASE_KEYSTORE_PASSWORD.
	KeystoreEnvPrefix = "GOAPK_"
	KeystoreEnvSuffix = "_KEYSTORE"
	PasswordEnvSuffix = "_KEYSTORE_PASSWORD"

	// DefaultDebugPassword is the well-known password of the
	// debug keystore.
	DefaultDebugPassword = "android"

	debugKeyAlias    = "androiddebugkey"
	debugKeyDName    = "CN=Android Debug,O=Android,C=US"
	debugKeyValidity = 10000
)

type SigningError struct {
	Profile string
	Err     error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing profile %s: %s", e.Profile, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// Key is a resolved signing credential record.
type Key struct {
	Keystore string
	Password string
}

// KeystoreEnv returns the names of the environment variables that
// override the profile's keystore path and password.
func KeystoreEnv(profile string) (string, string) {
	name := strings.ToUpper(profile)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)

	return KeystoreEnvPrefix + name + KeystoreEnvSuffix, KeystoreEnvPrefix + name + PasswordEnvSuffix
}

// DefaultDebugKeystore is the per-user debug keystore location used
// when the configuration does not override it.
func DefaultDebugKeystore() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".android", "debug.keystore")
	}

	return filepath.Join(home, ".android", "debug.keystore")
}

// KeyGen generates a debug keystore.
type KeyGen interface {
	GenKeyPair(ctx context.Context, keystore, password string) error
}

// KeyGenFunc adapts a function to KeyGen.
type KeyGenFunc func(ctx context.Context, keystore, password string) error

func (f KeyGenFunc) GenKeyPair(ctx context.Context, keystore, password string) error {
	return f(ctx, keystore, password)
}

// KeytoolKeyGen binds KeyGen to `keytool` with the debug keystore's
// fixed subject and validity.
type KeytoolKeyGen struct {
	Keytool keytool.Command
}

func (g *KeytoolKeyGen) GenKeyPair(ctx context.Context, keystore, password string) error {
	return g.Keytool.GenKeyPair(ctx, keystore, &keytool.GenKeyPairOpts{
		Alias:             debugKeyAlias,
		DistinguishedName: debugKeyDName,
		KeyStorePassword:  password,
		KeyAlgorithm:      "RSA",
		KeySize:           2048,
		ValidityDays:      debugKeyValidity,
	})
}

// KeyResolver resolves signing credentials for named profiles.
// Precedence per profile: both environment overrides, then the
// configuration's signing table, then, for the dev profile only, the
// debug keystore, generated if and only if none exists yet.
type KeyResolver struct {
	// Signing is the configuration's signing table.
	Signing map[string]config.SigningKey
	// Dir resolves relative signing-table paths.
	Dir string
	// DebugKeystore is the debug keystore location. Empty means
	// DefaultDebugKeystore.
	DebugKeystore string
	// KeyGen generates the debug keystore when absent.
	KeyGen KeyGen
}

// Resolve returns exactly one credential record for the profile, or a
// SigningError naming it.
func (r *KeyResolver) Resolve(ctx context.Context, profile string) (*Key, error) {
	var (
		log              = goapk.LoggerFrom(ctx)
		pathEnv, passEnv = KeystoreEnv(profile)
		path, pass       = os.Getenv(pathEnv), os.Getenv(passEnv)
	)

	if path != "" && pass != "" {
		return &Key{Keystore: path, Password: pass}, nil
	}

	if path != "" && profile == DevProfile {
		log.Info(passEnv + " not specified, falling back to default password")
		return &Key{Keystore: path, Password: DefaultDebugPassword}, nil
	}

	if entry, ok := r.Signing[profile]; ok {
		keystore := entry.Path
		if keystore != "" && !filepath.IsAbs(keystore) {
			keystore = filepath.Join(r.Dir, keystore)
		}

		return &Key{Keystore: keystore, Password: entry.KeystorePassword}, nil
	}

	if profile == DevProfile {
		return r.debugKey(ctx)
	}

	return nil, &SigningError{
		Profile: profile,
		Err:     fmt.Errorf("no keystore configured: set %s and %s or add a signing table entry", pathEnv, passEnv),
	}
}

// debugKey returns the debug keystore credential, generating the
// keystore only when no file exists at its location. An existing
// keystore is never overwritten, rotated, or regenerated.
func (r *KeyResolver) debugKey(ctx context.Context) (*Key, error) {
	keystore := r.DebugKeystore
	if keystore == "" {
		keystore = DefaultDebugKeystore()
	}

	key := &Key{Keystore: keystore, Password: DefaultDebugPassword}

	if _, err := os.Stat(keystore); err == nil {
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, &SigningError{Profile: DevProfile, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(keystore), 0o700); err != nil {
		return nil, &SigningError{Profile: DevProfile, Err: err}
	}

	goapk.LoggerFrom(ctx).Info("generating debug keystore " + keystore)

	if err := r.KeyGen.GenKeyPair(ctx, keystore, DefaultDebugPassword); err != nil {
		return nil, &SigningError{Profile: DevProfile, Err: err}
	}

	return key, nil
}
