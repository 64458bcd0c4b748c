// Command cmd prints a new master key for SECOND_FACTOR_ENCRYPTION_KEY.
// Pass -env to print it as a ready-to-paste .env line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrymomot/twofactor/pkg/secretbox"
)

func main() {
	asEnv := flag.Bool("env", false, "print as SECOND_FACTOR_ENCRYPTION_KEY=<key>")
	flag.Parse()

	key, err := secretbox.GenerateEncodedKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate encryption key: %v\n", err)
		os.Exit(1)
	}

	if *asEnv {
		fmt.Printf("SECOND_FACTOR_ENCRYPTION_KEY=%s\n", key)
		return
	}
	fmt.Println(key)
}
