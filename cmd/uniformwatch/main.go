// cmd/uniformwatch/main.go
package main

import "github.com/tamzrod/uniform-watch/internal/cli"

func main() {
	cli.Execute()
}
