// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}

// prepareCommand stores track lists and prints download ids
func prepareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "prepare",
		Aliases: []string{"p"},
		Usage:   "Store track lists for a collection and print its download id",
		Commands: []*cli.Command{
			{
				Name:      "playlist",
				Usage:     "Prepare a single playlist",
				ArgsUsage: "<link>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "link"},
				},
				Flags:  outputFlags(),
				Action: r.PreparePlaylist,
			},
			{
				Name:      "album",
				Usage:     "Prepare a single album",
				ArgsUsage: "<link>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "link"},
				},
				Flags:  outputFlags(),
				Action: r.PrepareAlbum,
			},
			{
				Name:      "user",
				Usage:     "Prepare every public playlist of a user",
				ArgsUsage: "<user id or link>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Flags:  outputFlags(),
				Action: r.PrepareUserPlaylists,
			},
			{
				Name:      "artist",
				Usage:     "Prepare every album of an artist",
				ArgsUsage: "<link>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "link"},
				},
				Flags:  outputFlags(),
				Action: r.PrepareArtistAlbums,
			},
			{
				Name:      "tracks",
				Usage:     "Prepare an ad-hoc list of track links or search queries",
				ArgsUsage: "<track> [track...]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "List name",
						Value:   "Tracks",
					},
				}, outputFlags()...),
				Action: r.PrepareTracks,
			},
		},
	}
}

// downloadCommand resumes a download id
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Resolve a download id and fetch every track it covers",
		ArgsUsage: "<download id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Also write the report as CSV to this path",
			},
		}, outputFlags()...),
		Action: r.Download,
	}
}

// songCommand fetches one track
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "song",
		Usage:     "Fetch a single track by link or search query",
		ArgsUsage: "<link or query>",
		Action:    r.Song,
	}
}

// inspectCommand decodes a download id
func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode a download id and report missing track lists",
		ArgsUsage: "<download id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Action: r.Inspect,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file helpers",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.ConfigInit,
			},
			{
				Name:   "check",
				Usage:  "Validate the resolved configuration",
				Action: r.ConfigCheck,
			},
		},
	}
}
