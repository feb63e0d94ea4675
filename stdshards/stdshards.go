// Package stdshards is a minimal reference operator set built strictly to
// the shard.Shard contract. The runtime core is operator-agnostic; this
// package exists so the engine packages (compose/wire/mesh) have something
// concrete to run in their tests and so cmd/wiremesh has a usable starter
// registry. Richer operator libraries (I/O, networking, serialization)
// register through the same shard.Registry path.
package stdshards

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// hash128 combines a shard's name with its parameters' content hashes
// (plus, for stateful shards, the state hash) into the 128-bit
// Shard.Hash.
func hash128(name string, parts ...[16]byte) [16]byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err)
	}
	h.Write([]byte(name))
	for _, p := range parts {
		h.Write(p[:])
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

func paramHash(v value.Value) [16]byte {
	h, _ := value.Hash(v)
	return h
}

// validateParam checks v against a parameter slot's allowed types under
// Match(isParameter=true, strict=true).
func validateParam(slotName string, allowed []typeinfo.TypeInfo, v value.Value) error {
	info, _ := typeinfo.Derive(v, nil)
	for _, a := range allowed {
		if typeinfo.Match(info, a, true, true) {
			return nil
		}
	}
	return fmt.Errorf("parameter %q: value of kind %s not accepted", slotName, info.Kind)
}

// Register installs every shard in this package into r under its
// conventional name.
func Register(r *shard.Registry) {
	r.Register("Const", func() shard.Shard { return &Const{} })
	r.Register("Pass", func() shard.Shard { return &Pass{} })
	r.Register("Input", func() shard.Shard { return &Input{} })
	r.Register("Sleep", func() shard.Shard { return &Sleep{} })

	r.Register("Set", func() shard.Shard { return &SetVar{mode: typeinfo.ModeSet, opName: "Set"} })
	r.Register("Ref", func() shard.Shard { return &SetVar{mode: typeinfo.ModeRef, opName: "Ref"} })
	r.Register("Update", func() shard.Shard { return &SetVar{mode: typeinfo.ModeUpdate, opName: "Update"} })
	r.Register("Push", func() shard.Shard { return &Push{} })
	r.Register("Get", func() shard.Shard { return &Get{} })
	r.Register("Swap", func() shard.Shard { return &Swap{} })

	r.Register("Restart", func() shard.Shard { return &Restart{} })
	r.Register("Stop", func() shard.Shard { return &Stop{} })
	r.Register("Return", func() shard.Shard { return &Return{} })
	r.Register("Fail", func() shard.Shard { return &Fail{} })

	r.Register("And", func() shard.Shard { return &And{} })
	r.Register("Or", func() shard.Shard { return &Or{} })
	r.Register("Compare", func() shard.Shard { return &Compare{Op: "=="} })

	r.Register("Math.Add", func() shard.Shard { return &MathBinary{Op: "+"} })
	r.Register("Math.Multiply", func() shard.Shard { return &MathBinary{Op: "*"} })

	r.Register("ForRange", func() shard.Shard { return &ForRange{} })
	r.Register("Repeat", func() shard.Shard { return &Repeat{} })
	r.Register("Once", func() shard.Shard { return &Once{} })
}
