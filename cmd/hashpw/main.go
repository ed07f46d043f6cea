// Command hashpw prints the bcrypt hash of a password for the
// admin_password_hash config entry.
//
// Usage:
//
//	hashpw 'my admin password'
//
// The password is taken from argv rather than stdin to keep the tool
// dependency-free; clear your shell history afterwards if that matters in
// your environment.
package main

import (
	"fmt"
	"os"

	"github.com/sakif/snipbin/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}

	hash, err := auth.NewPasswordService().Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashpw: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
