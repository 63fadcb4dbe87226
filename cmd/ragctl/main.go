// ragctl drives the retrieval service from the command line: index documents
// into a tenant namespace, query them through any of the registered
// strategies, and remove them again.
package main

import (
	"log"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
