package auth

import (
	"crypto/sha512"

	"golang.org/x/crypto/ed25519"
)

// Ed25519Name is the wire name of MariaDB's client_ed25519 plugin.
const Ed25519Name = "client_ed25519"

type ed25519Plugin struct {
	password string
}

func (p *ed25519Plugin) Name() string { return Ed25519Name }

// Respond signs the server's scramble with a key pair deterministically
// derived from the password (SHA-512(password), as a 32-byte seed),
// matching MariaDB's client_ed25519 plugin. See SS1 of the domain stack
// notes for why this is the home for golang.org/x/crypto in this repo.
func (p *ed25519Plugin) Respond(scramble []byte) ([]byte, error) {
	seed := sha512.Sum512([]byte(p.password))
	key := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	return ed25519.Sign(key, scramble), nil
}

func (p *ed25519Plugin) Continue(serverData []byte) ([]byte, bool, error) {
	resp, err := p.Respond(serverData)
	return resp, true, err
}
