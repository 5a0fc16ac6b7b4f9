// Package main is the entry point for the mongo-console server.
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/kart-io/mongo-console/internal/console"
)

func main() {
	console.NewApp().Run()
}
