package main

import (
	"os"

	"github.com/adanyl0v/go-todo-api/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
