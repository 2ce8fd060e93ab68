package main

import "github.com/magabrotheeeer/subscription-backoffice/internal/cli"

func main() {
	cli.Execute()
}
