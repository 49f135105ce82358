package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainFunction = "eir/function/v1"
	DomainEnvs     = "eir/envs/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint identifies the content of fun: its ident and its text form in
// layout order. Two functions with the same fingerprint print identically.
func Fingerprint(fun *Function) string {
	return hashWithDomain(DomainFunction, []byte(fun.Text()))
}

// EnvsFingerprint identifies the content of a closure environment table.
func EnvsFingerprint(envs *ModuleEnvs) (string, error) {
	canonical, err := MarshalCanonical(envs)
	if err != nil {
		return "", fmt.Errorf("EnvsFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEnvs, canonical), nil
}

// MustEnvsFingerprint is like EnvsFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEnvsFingerprint(envs *ModuleEnvs) string {
	h, err := EnvsFingerprint(envs)
	if err != nil {
		panic(err)
	}
	return h
}
