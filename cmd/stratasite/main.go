// cmd/stratasite/main.go
package main

import (
	"context"

	"github.com/dalemusser/waffle/app"

	"github.com/dalemusser/stratasite/internal/app/bootstrap"
)

func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
