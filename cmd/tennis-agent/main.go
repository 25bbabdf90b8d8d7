// Package main provides the entry point for the tennis-agent service and its
// operator commands.
//
// @title                       tennis-agent admin API
// @version                     1.0
// @description                 Player resolution, prediction lookups, conversation sessions and the admin audit trail.
// @BasePath                    /api/v1/admin
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

//go:generate swag init --generalInfo main.go --dir ./,../../pkg/admin,../../pkg/player,../../pkg/predictions,../../pkg/session,../../pkg/audit --output ../../internal/apidocs --outputTypes go --parseDependency=false

import (
	"fmt"
	"os"

	_ "github.com/courtline/tennis-agent/internal/apidocs" // register swagger docs
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
