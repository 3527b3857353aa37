// Command rsaprime searches probable primes, generates textbook RSA keys and
// encrypts or decrypts short messages with them.
//
// Usage:
//
//	rsaprime prime --bits 1024 --strategy race --workers 12 --seed 6678235
//	rsaprime keygen --bits 256 --out key.json
//	rsaprime encrypt --key key.json --message "Super secret message!!!"
//	rsaprime decrypt --key key.json --ciphertext <decimal>
//	rsaprime demo
//
// Every global flag can also be set through a config file (--config) or an
// RSAPRIME_ environment variable, e.g. RSAPRIME_LOG_LEVEL=debug.
package main

import (
	"context"
	"os"
)

func main() {
	// On failure cobra prints the error, so only the exit status is left.
	if newRootCmd().ExecuteContext(context.Background()) != nil {
		os.Exit(1)
	}
}
