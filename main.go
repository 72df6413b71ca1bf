package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	Md "github.com/maroda/meter/display"
	Me "github.com/maroda/meter/engine"
	Mo "github.com/maroda/meter/obvy"
)

func main() {
	cfg, err := Me.LoadRuntimeConfig()
	if err != nil {
		slog.Error("Could not load configuration", slog.Any("Error", err))
		os.Exit(1)
	}

	User := Me.FillEnvVar("USER")
	fmt.Printf("Meter initializing for ... %s\n", User)

	otelShutdown, err := Mo.InitOTel(cfg.OTel)
	if err != nil {
		slog.Error("Could not start tracing", slog.Any("Error", err))
		os.Exit(1)
	}
	defer otelShutdown()

	switch strings.ToLower(cfg.UI) {
	case "web":
		err = Md.StartWebNoTUI(cfg)
	default:
		err = Md.StartTUI(cfg)
	}
	if err != nil {
		slog.Error("Problem running meter", slog.String("ui", cfg.UI), slog.Any("Error", err))
		otelShutdown()
		os.Exit(1)
	}
}
