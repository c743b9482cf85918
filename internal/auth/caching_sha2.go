package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// CachingSHA2Name is the wire name of the caching_sha2_password plugin.
const CachingSHA2Name = "caching_sha2_password"

// Full-auth status bytes sent in an AuthMoreData packet.
const (
	sha2FastAuthSuccess   = 0x03
	sha2FullAuthRequired  = 0x04
	sha2RequestPublicKey  = 0x02
)

type cachingSHA2State int

const (
	sha2AwaitingFastOrFull cachingSHA2State = iota
	sha2AwaitingPublicKey
	sha2Done
)

type cachingSHA2 struct {
	password string
	opts     Options
	scramble []byte
	state    cachingSHA2State
}

func (p *cachingSHA2) Name() string { return CachingSHA2Name }

func (p *cachingSHA2) Respond(scramble []byte) ([]byte, error) {
	p.scramble = append([]byte(nil), scramble...)
	return cachingSHA2Hash([]byte(p.password), scramble), nil
}

// Continue handles the AuthMoreData rounds: fast-auth success carries no
// further response; full auth sends the cleartext password over TLS, or
// an RSA-encrypted payload otherwise, matching MySQL 8 semantics.
func (p *cachingSHA2) Continue(serverData []byte) ([]byte, bool, error) {
	switch p.state {
	case sha2AwaitingFastOrFull:
		if len(serverData) == 0 {
			return nil, false, fmt.Errorf("auth: empty caching_sha2_password response")
		}
		switch serverData[0] {
		case sha2FastAuthSuccess:
			p.state = sha2Done
			return nil, true, nil
		case sha2FullAuthRequired:
			return p.beginFullAuth()
		default:
			return nil, false, fmt.Errorf("auth: unexpected caching_sha2_password status 0x%02x", serverData[0])
		}
	case sha2AwaitingPublicKey:
		key, err := parseRSAPublicKey(serverData)
		if err != nil {
			return nil, false, err
		}
		resp, err := p.encryptPassword(key)
		if err != nil {
			return nil, false, err
		}
		p.state = sha2Done
		return resp, true, nil
	default:
		return nil, true, nil
	}
}

func (p *cachingSHA2) beginFullAuth() ([]byte, bool, error) {
	if len(p.password) == 0 {
		p.state = sha2Done
		return []byte{0}, true, nil
	}
	if p.opts.UseCleartext {
		p.state = sha2Done
		resp := append([]byte(p.password), 0)
		return resp, true, nil
	}
	if p.opts.ServerPublicKey != nil {
		key, err := parseRSAPublicKey(p.opts.ServerPublicKey)
		if err != nil {
			return nil, false, err
		}
		resp, err := p.encryptPassword(key)
		if err != nil {
			return nil, false, err
		}
		p.state = sha2Done
		return resp, true, nil
	}
	p.state = sha2AwaitingPublicKey
	return []byte{sha2RequestPublicKey}, false, nil
}

func (p *cachingSHA2) encryptPassword(key *rsa.PublicKey) ([]byte, error) {
	plain := make([]byte, len(p.password)+1)
	copy(plain, p.password)
	plain[len(p.password)] = 0
	for i := range plain {
		plain[i] ^= p.scramble[i%len(p.scramble)]
	}
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, key, plain, nil)
}

func parseRSAPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("auth: invalid RSA public key PEM from server")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing RSA public key: %w", err)
	}
	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("auth: server public key is not RSA")
	}
	return key, nil
}

// cachingSHA2Hash computes the caching_sha2_password fast-auth response:
// XOR(SHA256(password), SHA256(SHA256(SHA256(password)), scramble)).
func cachingSHA2Hash(password, scramble []byte) []byte {
	if len(password) == 0 {
		return []byte{}
	}
	stage1 := sha256.Sum256(password)
	stage2 := sha256.Sum256(stage1[:])

	h := sha256.New()
	h.Write(stage2[:])
	h.Write(scramble)
	stage3 := h.Sum(nil)

	result := make([]byte, len(stage1))
	for i := range result {
		result[i] = stage1[i] ^ stage3[i]
	}
	return result
}
