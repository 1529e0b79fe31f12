package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/LynnColeArt/gusparse"
)

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the compute device backing the library",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			h, err := gusparse.NewHandle()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: create handle: %v", err), 1)
			}
			defer func() { _ = h.Destroy() }()

			dev := h.Device()
			fmt.Printf("Device:    %s\n", dev.Name)
			fmt.Printf("Workers:   %d\n", dev.Workers)
			fmt.Printf("SIMD:      %s\n", dev.Features())
			fmt.Printf("Wavefront: %d lanes\n", h.WavefrontSize())
			return nil
		},
	}
}
