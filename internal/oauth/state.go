package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

const (
	nonceLength   = 15
	nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// StateParam is the OAuth CSRF state value. It is either a bare 15-character
// alphanumeric nonce, or a base64-encoded JSON envelope {nonce, data} carrying
// opaque caller data through the redirect.
type StateParam struct {
	value string
}

type stateEnvelope struct {
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// NewStateParam generates a bare nonce state from a CSPRNG.
func NewStateParam() (StateParam, error) {
	nonce, err := generateNonce()
	if err != nil {
		return StateParam{}, err
	}
	return StateParam{value: nonce}, nil
}

// NewStateParamWithData generates a nonce and wraps it together with v in a
// base64 JSON envelope, so the nonce stays verifiable while the state carries
// payload.
func NewStateParamWithData(v any) (StateParam, error) {
	nonce, err := generateNonce()
	if err != nil {
		return StateParam{}, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return StateParam{}, fmt.Errorf("failed to encode state data: %w", err)
	}
	envelope, err := json.Marshal(stateEnvelope{Nonce: nonce, Data: data})
	if err != nil {
		return StateParam{}, fmt.Errorf("failed to encode state envelope: %w", err)
	}
	return StateParam{value: base64.StdEncoding.EncodeToString(envelope)}, nil
}

// StateParamFromRaw wraps a caller-supplied state string verbatim, typically
// one read back from the callback query.
func StateParamFromRaw(s string) StateParam {
	return StateParam{value: s}
}

// Value returns the raw stored string — the exact value that travels on the
// wire in either mode.
func (p StateParam) Value() string {
	return p.value
}

// ExtractNonce returns the true nonce in both modes: the stored value for a
// bare state, or the envelope's nonce field for a structured one. If the value
// looks structured but cannot be decoded, the raw value is returned.
func (p StateParam) ExtractNonce() string {
	if env, ok := p.decodeEnvelope(); ok && env.Nonce != "" {
		return env.Nonce
	}
	return p.value
}

// ExtractData decodes the envelope's data field into v. It returns false on
// any failure: bare mode, bad base64, bad JSON, or a schema mismatch.
func ExtractData[T any](p StateParam) (T, bool) {
	var out T
	env, ok := p.decodeEnvelope()
	if !ok || len(env.Data) == 0 {
		return out, false
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, false
	}
	return out, true
}

func (p StateParam) decodeEnvelope() (stateEnvelope, bool) {
	raw, err := base64.StdEncoding.DecodeString(p.value)
	if err != nil {
		return stateEnvelope{}, false
	}
	var env stateEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return stateEnvelope{}, false
	}
	return env, true
}

func generateNonce() (string, error) {
	out := make([]byte, nonceLength)
	max := big.NewInt(int64(len(nonceAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate nonce: %w", err)
		}
		out[i] = nonceAlphabet[n.Int64()]
	}
	return string(out), nil
}
