package main

import (
	"context"

	"github.com/use-agent/trendscout/cmd/trendctl/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
