// Command generate_password prints a bcrypt hash for seeding user rows by hand.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sagaline/ecommerce-backend/internal/pkg/auth"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/generate_password.go [-cost N] <password>")
		os.Exit(2)
	}

	passwords := auth.NewPasswordManager(*cost)
	password := flag.Arg(0)

	hash, err := passwords.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating hash:", err)
		os.Exit(1)
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		fmt.Fprintln(os.Stderr, "hash verification failed:", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
