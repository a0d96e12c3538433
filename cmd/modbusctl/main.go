package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/danmuck/modbusctl/internal/diag"
	"github.com/danmuck/modbusctl/internal/logging"
	"github.com/danmuck/modbusctl/internal/manipulator"
	"github.com/danmuck/modbusctl/internal/server"
	"github.com/danmuck/modbusctl/internal/shell"
)

func main() {
	logging.ConfigureRuntime()

	cfg := defaultRuntimeConfig()
	if len(os.Args) > 1 {
		loaded, err := loadRuntimeConfig(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "modbusctl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	store := manipulator.NewStore()
	srv := server.New(server.Config{Addr: cfg.Addr, UnitID: cfg.UnitID}, store)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "modbusctl: %v\n", err)
		os.Exit(1)
	}

	var diagSrv *diag.Server
	if cfg.DiagAddr != "" {
		diagSrv = diag.New(cfg.DiagAddr, store, cfg.CorsOrigins)
		diagSrv.Start()
	}

	sh := shell.New(srv, shell.Config{HistoryFile: cfg.HistoryFile})
	runErr := sh.Run()

	if diagSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = diagSrv.Stop(ctx)
		cancel()
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "modbusctl: %v\n", runErr)
		os.Exit(1)
	}
}
