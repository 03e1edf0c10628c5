package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"docqa-platform/utils"
)

// Prints the bcrypt hash for the admin password so it can be placed in
// ADMIN_PASSWORD_HASH. The password comes from a flag or stdin-less env var;
// it is never stored anywhere by this tool.
func main() {
	password := flag.String("password", "", "admin password to hash")
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()

	pw := *password
	if pw == "" {
		pw = os.Getenv("ADMIN_PASSWORD")
	}
	if pw == "" {
		log.Fatal("Provide -password or set ADMIN_PASSWORD")
	}
	if len(pw) < 12 {
		log.Fatal("Admin password must be at least 12 characters")
	}

	hash, err := utils.HashPassword(pw, *cost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
}
