package textbookrsa

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"filippo.io/edwards25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
)

// knownComposite is an odd composite with its factorization.
type knownComposite struct {
	N       *big.Int
	Factors []*big.Int
}

// knownNumbers is the content of testdata/known_numbers.json.
type knownNumbers struct {
	Primes     []*big.Int
	Composites []knownComposite
}

func testdataPath(name string) string {
	return filepath.Join("testdata", name)
}

// loadKnownNumbers reads the prime and composite fixtures.
func loadKnownNumbers(t testing.TB) knownNumbers {
	t.Helper()

	file, err := os.Open(testdataPath("known_numbers.json"))
	require.NoError(t, err)
	defer file.Close()

	var raw struct {
		Primes     []string `json:"primes"`
		Composites []struct {
			N       string   `json:"n"`
			Factors []string `json:"factors"`
		} `json:"composites"`
	}
	require.NoError(t, json.NewDecoder(file).Decode(&raw))

	var out knownNumbers
	for _, s := range raw.Primes {
		p, err := ParseBigInt(s)
		require.NoError(t, err)
		out.Primes = append(out.Primes, p)
	}
	for _, c := range raw.Composites {
		n, err := ParseBigInt(c.N)
		require.NoError(t, err)
		kc := knownComposite{N: n}
		for _, f := range c.Factors {
			v, err := ParseBigInt(f)
			require.NoError(t, err)
			kc.Factors = append(kc.Factors, v)
		}
		out.Composites = append(out.Composites, kc)
	}
	return out
}

// loadTestKey reads the small hand-computed key pair (p=61, q=53, e=7).
func loadTestKey(t testing.TB) *KeyFile {
	t.Helper()

	parser := &JSONKeyParser{}
	kf, err := parser.ParseKey(testdataPath("test_key.json"))
	require.NoError(t, err)
	return kf
}

// testKeyMaterial is the factorized form of testdata/test_key.json.
func testKeyMaterial() *KeyMaterial {
	return &KeyMaterial{
		P:    big.NewInt(61),
		Q:    big.NewInt(53),
		N:    big.NewInt(3233),
		PhiN: big.NewInt(3120),
		E:    big.NewInt(7),
		D:    big.NewInt(1783),
	}
}

// secp256k1Primes returns the secp256k1 field prime and group order.
func secp256k1Primes() (p, n *big.Int) {
	params := secp256k1.S256().Params()
	return new(big.Int).Set(params.P), new(big.Int).Set(params.N)
}

// ed25519GroupOrder recovers the prime order L of the ed25519 group from the
// little-endian encoding of the scalar -1.
func ed25519GroupOrder(t testing.TB) *big.Int {
	t.Helper()

	oneBytes := make([]byte, 32)
	oneBytes[0] = 1
	oneScalar, err := edwards25519.NewScalar().SetCanonicalBytes(oneBytes)
	require.NoError(t, err)

	minusOne := edwards25519.NewScalar().Subtract(edwards25519.NewScalar(), oneScalar)
	l := MessageToInt(minusOne.Bytes())
	return l.Add(l, one)
}

// panickingTester fails the search worker it is handed to.
type panickingTester struct{}

func (panickingTester) ProbablyPrime(*big.Int) bool { panic("tester exploded") }
func (panickingTester) Name() string                { return "Panicking" }

// rejectAllTester never accepts a candidate.
type rejectAllTester struct{}

func (rejectAllTester) ProbablyPrime(*big.Int) bool { return false }
func (rejectAllTester) Name() string                { return "RejectAll" }
