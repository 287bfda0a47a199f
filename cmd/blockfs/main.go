package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/fs"
	"github.com/weberc2/blockfs/pkg/types"
)

func main() {
	log := logrus.New()

	app := cli.App{
		Name:        appName,
		Description: "a single-user block filesystem in an image file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "image",
				Usage: "path to the backing image file",
			},
			&cli.Uint64Flag{
				Name:  "capacity",
				Usage: "image capacity in bytes (multiple of 4096)",
			},
		},
		Commands: []*cli.Command{{
			Name:        "shell",
			Description: "run the interactive command shell",
			Action: withFileSystem(log, func(
				fileSystem *fs.FileSystem,
				ctx *cli.Context,
			) error {
				return runShell(fileSystem, os.Stdin, os.Stdout)
			}),
		}, {
			Name:        "info",
			Description: "print the image's superblock",
			Action: withFileSystem(log, func(
				fileSystem *fs.FileSystem,
				ctx *cli.Context,
			) error {
				if err := fileSystem.Mount(); err != nil {
					return err
				}
				sb := fileSystem.Superblock()
				fmt.Printf("total inodes:     %d\n", sb.TotalInodes)
				fmt.Printf("total blocks:     %d\n", sb.TotalBlocks)
				fmt.Printf("inodes per group: %d\n", sb.InodesPerGroup)
				fmt.Printf("blocks per group: %d\n", sb.BlocksPerGroup)
				fmt.Printf("root inode:       %d\n", sb.HomeDirInode)
				return nil
			}),
		}, {
			Name:        "fsck",
			Description: "check the image's invariants (read-only)",
			Action: withFileSystem(log, func(
				fileSystem *fs.FileSystem,
				ctx *cli.Context,
			) error {
				if err := fileSystem.Mount(); err != nil {
					return err
				}
				violations, err := fileSystem.CheckImage()
				if err != nil {
					return err
				}
				for _, violation := range violations {
					fmt.Println(violation)
				}
				if len(violations) > 0 {
					return fmt.Errorf(
						"found %d invariant violations",
						len(violations),
					)
				}
				log.Info("image is clean")
				return nil
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withFileSystem(
	log *logrus.Logger,
	f func(*fs.FileSystem, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		config, err := LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if image := ctx.String("image"); image != "" {
			config.Image = image
		}
		if capacity := ctx.Uint64("capacity"); capacity != 0 {
			config.CapacityBytes = capacity
		}
		level, err := logrus.ParseLevel(config.LogLevel)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		log.SetLevel(level)

		log.WithFields(logrus.Fields{
			"image":    config.Image,
			"capacity": config.CapacityBytes,
		}).Debug("opening device")

		dev, err := device.New(config.Image, types.Byte(config.CapacityBytes))
		if err != nil {
			return err
		}
		defer func() {
			if err := dev.Close(); err != nil {
				log.WithError(err).Error("closing device")
			}
		}()

		return f(fs.New(dev), ctx)
	}
}
