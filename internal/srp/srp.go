package srp

import (
	"crypto/hmac"
	"crypto/rand"
	"math/big"

	koruerrors "github.com/korulabs/koru/internal/errors"
)

// GenKey returns a fresh 32-byte client ephemeral secret.
func GenKey() []byte {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("srp: rand failed: " + err.Error())
	}
	return secret
}

// Client runs the client side of an SRP-6a authentication exchange.
//
// The zero value is not usable; construct with NewClient, then drive the
// handshake in order: ComputeA, SetSalt, SetB, ComputeM1, CheckM2.
type Client struct {
	params   *Params
	identity []byte
	password []byte
	a        *big.Int // ephemeral secret
	bigA     *big.Int // g^a mod N
	k        *big.Int // multiplier H(N | PAD(g))
	x        *big.Int // private key from salt, identity, password
	m1       []byte
	m2       []byte // expected server proof
	key      []byte // shared session key K
}

// NewClient creates an SRP client for one authentication attempt. secret1 is
// the ephemeral secret from GenKey; identity and password are retained until
// SetSalt derives x from them.
func NewClient(params *Params, identity, password, secret1 []byte) *Client {
	a := new(big.Int).SetBytes(secret1)
	return &Client{
		params:   params,
		identity: identity,
		password: password,
		a:        a,
		bigA:     new(big.Int).Exp(params.G, a, params.N),
		k:        computeK(params),
	}
}

// ComputeA returns the client public ephemeral A = g^a mod N, padded to the
// group width.
func (c *Client) ComputeA() []byte {
	return c.params.pad(c.bigA)
}

// SetSalt derives the private key x = H(salt | H(identity ":" password))
// once the server has disclosed the user's salt.
func (c *Client) SetSalt(salt, identity, password []byte) {
	c.x = computeX(c.params, salt, identity, password)
}

// SetB ingests the server public ephemeral B and computes the shared secret,
// the session key K, the client proof M1, and the expected server proof M2.
// SetSalt must have been called first.
func (c *Client) SetB(bBytes []byte) {
	bigB := new(big.Int).SetBytes(bBytes)
	u := computeU(c.params, c.bigA, bigB)

	// S = (B - k * g^x) ^ (a + u * x) mod N
	gx := new(big.Int).Exp(c.params.G, c.x, c.params.N)
	base := new(big.Int).Sub(bigB, new(big.Int).Mul(c.k, gx))
	base.Mod(base, c.params.N)
	exp := new(big.Int).Add(c.a, new(big.Int).Mul(u, c.x))
	s := new(big.Int).Exp(base, exp, c.params.N)
	sPadded := c.params.pad(s)

	c.key = hashBytes(c.params, sPadded)
	c.m1 = hashBytes(c.params, c.params.pad(c.bigA), c.params.pad(bigB), sPadded)
	c.m2 = hashBytes(c.params, c.params.pad(c.bigA), c.m1, c.key)
}

// ComputeM1 returns the client proof for the second login round.
func (c *Client) ComputeM1() []byte {
	return c.m1
}

// CheckM2 verifies the server's proof, confirming the server also derived
// the shared key. A mismatch means the exchange was tampered with or the
// server never knew the verifier.
func (c *Client) CheckM2(m2 []byte) error {
	if !hmac.Equal(c.m2, m2) {
		return koruerrors.ErrAuthFailed
	}
	return nil
}

// ComputeVerifier derives the password verifier v = g^x mod N for signup and
// password change, padded to the group width. The server stores only salt
// and verifier, never the password.
func ComputeVerifier(params *Params, salt, identity, password []byte) []byte {
	x := computeX(params, salt, identity, password)
	return params.pad(new(big.Int).Exp(params.G, x, params.N))
}

func computeK(params *Params) *big.Int {
	digest := hashBytes(params, params.N.Bytes(), params.pad(params.G))
	return new(big.Int).SetBytes(digest)
}

func computeX(params *Params, salt, identity, password []byte) *big.Int {
	inner := hashBytes(params, identity, []byte(":"), password)
	return new(big.Int).SetBytes(hashBytes(params, salt, inner))
}

func computeU(params *Params, bigA, bigB *big.Int) *big.Int {
	digest := hashBytes(params, params.pad(bigA), params.pad(bigB))
	return new(big.Int).SetBytes(digest)
}

func hashBytes(params *Params, parts ...[]byte) []byte {
	h := params.NewHash()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
