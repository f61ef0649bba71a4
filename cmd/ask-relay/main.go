package main

import (
	"ask-relay/internal/bootstrap"
)

func main() {
	bootstrap.NewApp().Run()
}
