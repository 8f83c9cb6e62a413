package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/luminlms/assessment-engine/internal/config"
	"github.com/luminlms/assessment-engine/internal/service"
)

// issue-token mints a service JWT for an upstream caller. Gateway tokens
// authorize the engine API; proctor tokens authorize the monitor stream.
func main() {
	var (
		tokenType string
		caller    string
	)
	flag.StringVar(&tokenType, "type", "gateway", "Token type: gateway or proctor")
	flag.StringVar(&caller, "caller", "", "Name of the calling service or proctor")
	flag.Parse()

	if caller == "" {
		fmt.Fprintln(os.Stderr, "Error: -caller is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var tt service.TokenType
	switch tokenType {
	case "gateway":
		tt = service.TokenTypeGateway
	case "proctor":
		tt = service.TokenTypeProctor
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown token type %q\n", tokenType)
		os.Exit(1)
	}

	cfg := config.Load()
	tokens := service.NewTokenService(cfg)

	token, err := tokens.Generate(tt, caller)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
