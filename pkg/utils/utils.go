package utils

import (
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// NkeyOptionFromSeedText builds a nats.Option that authenticates with the
// supplied nkey seed. The seed itself never leaves the process; the server
// only sees the public key and signed nonces.
func NkeyOptionFromSeedText(seedText string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seedText))
	if err != nil {
		return nil, err
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, err
	}
	return nats.Nkey(pub, kp.Sign), nil
}
