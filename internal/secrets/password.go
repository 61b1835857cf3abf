package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service groups the app's secrets in the OS keychain.
	KeyringService = "receitanet"
)

var ErrNoPIN = errors.New("certificate PIN not found in keychain")

// Account is the keychain account holding the PIN of a certificate.
func Account(certificate string) string {
	return "receitanet:cert:" + strings.TrimSpace(certificate)
}

// PIN reads the certificate PIN. ErrNoPIN means the certificate has none
// stored, which is fine for certificates that do not ask for one.
func PIN(certificate string) (string, error) {
	if strings.TrimSpace(certificate) == "" {
		return "", errors.New("certificate name is empty")
	}
	pin, err := keyring.Get(KeyringService, Account(certificate))
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(pin) == "") {
		return "", ErrNoPIN
	}
	if err != nil {
		return "", err
	}
	return pin, nil
}

func SetPIN(certificate, pin string) error {
	if strings.TrimSpace(certificate) == "" {
		return errors.New("certificate name is empty")
	}
	if strings.TrimSpace(pin) == "" {
		return errors.New("pin is empty")
	}
	return keyring.Set(KeyringService, Account(certificate), pin)
}

func DeletePIN(certificate string) error {
	if strings.TrimSpace(certificate) == "" {
		return errors.New("certificate name is empty")
	}
	err := keyring.Delete(KeyringService, Account(certificate))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNoPIN
	}
	return err
}
