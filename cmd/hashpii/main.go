package main

import (
	"fmt"
	"os"

	"github.com/perfilmente/funnel-api/internal/normalize"
)

// hashpii prints the normalized form and hex digest of one field
// value, exactly as the attribution pipeline would emit it. Useful for
// checking what a given city/state/email turns into on the wire.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: hashpii <field> <value>")
		fmt.Println("Fields: city, state, country, postal, email, phone, external_id")
		os.Exit(1)
	}

	field, value := os.Args[1], os.Args[2]

	normalizers := map[string]func(string) string{
		"city":        normalize.City,
		"state":       normalize.State,
		"country":     normalize.Country,
		"postal":      normalize.Postal,
		"email":       normalize.Email,
		"phone":       normalize.Phone,
		"external_id": normalize.ExternalID,
	}

	fn, ok := normalizers[field]
	if !ok {
		fmt.Printf("Unknown field %q\n", field)
		os.Exit(1)
	}

	normalized := fn(value)
	if normalized == "" {
		fmt.Printf("Input: %q\nNormalized: (empty — field would be omitted, not hashed)\n", value)
		return
	}

	fmt.Printf("Input: %q\n", value)
	fmt.Printf("Normalized: %q\n", normalized)
	fmt.Printf("SHA-256: %s\n", normalize.Hash(normalized))
}
