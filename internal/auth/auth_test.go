package auth

import (
	"bytes"
	"crypto/sha512"
	"testing"

	"golang.org/x/crypto/ed25519"
)

func TestNativePasswordEmptyPassword(t *testing.T) {
	p := &nativePassword{}
	resp, err := p.Respond([]byte("12345678901234567890"))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp) != 0 {
		t.Fatalf("expected empty response for blank password, got %x", resp)
	}
}

func TestNativePasswordDeterministic(t *testing.T) {
	scramble := []byte("abcdefghijklmnopqrst")
	a := nativePasswordHash([]byte("hunter2"), scramble)
	b := nativePasswordHash([]byte("hunter2"), scramble)
	if !bytes.Equal(a, b) {
		t.Fatal("expected deterministic hash for the same inputs")
	}
	if len(a) != 20 {
		t.Fatalf("expected a 20-byte SHA-1-sized response, got %d", len(a))
	}
	c := nativePasswordHash([]byte("hunter3"), scramble)
	if bytes.Equal(a, c) {
		t.Fatal("different passwords produced the same hash")
	}
}

func TestCachingSHA2FastAuthDeterministic(t *testing.T) {
	scramble := []byte("abcdefghijklmnopqrst")
	a := cachingSHA2Hash([]byte("hunter2"), scramble)
	b := cachingSHA2Hash([]byte("hunter2"), scramble)
	if !bytes.Equal(a, b) {
		t.Fatal("expected deterministic hash")
	}
	if len(a) != 32 {
		t.Fatalf("expected a 32-byte SHA-256-sized response, got %d", len(a))
	}
}

func TestCachingSHA2EmptyPassword(t *testing.T) {
	if resp := cachingSHA2Hash(nil, []byte("scramble")); len(resp) != 0 {
		t.Fatalf("expected empty response, got %x", resp)
	}
}

func TestCachingSHA2FastAuthSuccessEndsExchange(t *testing.T) {
	p := &cachingSHA2{password: "hunter2"}
	if _, err := p.Respond([]byte("0123456789012345678")); err != nil {
		t.Fatal(err)
	}
	resp, done, err := p.Continue([]byte{sha2FastAuthSuccess})
	if err != nil || !done || resp != nil {
		t.Fatalf("resp=%v done=%v err=%v", resp, done, err)
	}
}

func TestCachingSHA2FullAuthOverTLSSendsCleartext(t *testing.T) {
	p := &cachingSHA2{password: "hunter2", opts: Options{UseCleartext: true}}
	if _, err := p.Respond([]byte("0123456789012345678")); err != nil {
		t.Fatal(err)
	}
	resp, done, err := p.Continue([]byte{sha2FullAuthRequired})
	if err != nil || !done {
		t.Fatalf("resp=%v done=%v err=%v", resp, done, err)
	}
	if string(resp) != "hunter2\x00" {
		t.Fatalf("expected null-terminated cleartext password, got %q", resp)
	}
}

func TestCachingSHA2FullAuthWithoutTLSRequestsPublicKey(t *testing.T) {
	p := &cachingSHA2{password: "hunter2"}
	if _, err := p.Respond([]byte("0123456789012345678")); err != nil {
		t.Fatal(err)
	}
	resp, done, err := p.Continue([]byte{sha2FullAuthRequired})
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("expected the exchange to continue pending a public key")
	}
	if len(resp) != 1 || resp[0] != sha2RequestPublicKey {
		t.Fatalf("expected a public-key request byte, got %x", resp)
	}
}

func TestEd25519SignsScramble(t *testing.T) {
	p := &ed25519Plugin{password: "hunter2"}
	scramble := []byte("0123456789012345678901234567890")
	sig, err := p.Respond(scramble)
	if err != nil {
		t.Fatal(err)
	}
	seed := sha512.Sum512([]byte("hunter2"))
	pub := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize]).Public().(ed25519.PublicKey)
	if !ed25519.Verify(pub, scramble, sig) {
		t.Fatal("signature does not verify against the derived public key")
	}
}

func TestNewRejectsUnsupportedPlugin(t *testing.T) {
	_, err := New("sha256_password", Options{})
	if err == nil {
		t.Fatal("expected an error for an unsupported plugin")
	}
	var unsupported *ErrUnsupportedPlugin
	if !asUnsupported(err, &unsupported) {
		t.Fatalf("expected *ErrUnsupportedPlugin, got %T", err)
	}
}

func asUnsupported(err error, target **ErrUnsupportedPlugin) bool {
	if e, ok := err.(*ErrUnsupportedPlugin); ok {
		*target = e
		return true
	}
	return false
}
