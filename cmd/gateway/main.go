package main

import "github.com/vietddude/gateway/internal/cli"

func main() {
	cli.Execute()
}
