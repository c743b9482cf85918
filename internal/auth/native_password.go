package auth

import "crypto/sha1" //nolint:gosec // mysql_native_password is defined in terms of SHA-1

// NativePasswordName is the wire name of the mysql_native_password plugin.
const NativePasswordName = "mysql_native_password"

type nativePassword struct {
	password string
}

func (p *nativePassword) Name() string { return NativePasswordName }

func (p *nativePassword) Respond(scramble []byte) ([]byte, error) {
	return nativePasswordHash([]byte(p.password), scramble), nil
}

func (p *nativePassword) Continue(serverData []byte) ([]byte, bool, error) {
	// mysql_native_password never issues a second round; any AuthSwitchRequest
	// naming this plugin again is answered with a fresh scramble response.
	resp, err := p.Respond(serverData)
	return resp, true, err
}

// nativePasswordHash computes the mysql_native_password response:
// SHA1(password) XOR SHA1(scramble + SHA1(SHA1(password))).
//
// The algorithm is the wire protocol's contract, not an implementation
// choice.
func nativePasswordHash(password, scramble []byte) []byte {
	if len(password) == 0 {
		return []byte{}
	}
	h1 := sha1.Sum(password) //nolint:gosec
	h2 := sha1.Sum(h1[:])    //nolint:gosec
	h := sha1.New()          //nolint:gosec
	h.Write(scramble)
	h.Write(h2[:])
	h3 := h.Sum(nil)

	result := make([]byte, len(h1))
	for i := range result {
		result[i] = h1[i] ^ h3[i]
	}
	return result
}
