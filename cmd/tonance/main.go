package main

import "github.com/ByteForce-Labs/Tonance/internal/cli"

func main() {
	cli.Execute()
}
