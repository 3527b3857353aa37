// Package textbookrsa generates large probable primes, derives textbook RSA
// key material from them and encrypts integer-encoded messages with the raw
// RSA permutation.
//
// The package is educational: there is no padding, no side-channel
// hardening and no certified prime generation. Do not use it to protect
// real data.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/textbook-rsa/pkg/textbookrsa"
//
//	// Create a client with default settings (race search, e = 7)
//	client := textbookrsa.NewClient()
//
//	km, err := client.GenerateKeyPair(ctx, 512)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pub, priv := km.Split()
//	ct, err := client.EncryptMessage("Super secret message!!!", pub)
//
// # Customization
//
// Searches are driven by a SearchStrategy. Two are provided: a sequential
// accept-reject loop and a race between worker goroutines:
//
//	strategy := textbookrsa.NewRaceStrategy(textbookrsa.NewSeededFactory(6678235)).
//	    WithConfig(textbookrsa.SearchConfig{
//	        Rounds:     10,
//	        Workers:    12,
//	        MaxTrials:  1 << 20,
//	        ExactWidth: true,
//	    })
//
//	client := textbookrsa.NewClient().WithStrategy(strategy)
//
// # Randomness
//
// Every function that consumes entropy receives it through a RandSource.
// A SourceFactory hands each worker its own candidate and witness sources,
// so no generator is ever shared between goroutines. With a seeded factory
// each worker's candidate stream is reproducible; the race winner is not,
// since it depends on which worker finishes its primality test first.
package textbookrsa
