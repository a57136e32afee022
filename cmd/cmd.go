// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func policyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "policy",
		Aliases: []string{"p"},
		Usage:   "Where new singers join the rotation: bottom, fair or next (default from config)",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func keyFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "key",
		Aliases: []string{"k"},
		Usage:   "Key change in semitones (-12 to 12)",
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if needed, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// singerCommand manages singers in the rotation.
func singerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "singer",
		Aliases: []string{"singers", "s"},
		Usage:   "Manage singers in the rotation",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a singer to the rotation",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{policyFlag()},
				Action:    r.SingerAdd,
			},
			{
				Name:      "rm",
				Aliases:   []string{"remove"},
				Usage:     "Remove singers and their queues",
				ArgsUsage: "SINGER...",
				Action:    r.SingerRemove,
			},
			{
				Name:      "rename",
				Usage:     "Rename a singer",
				ArgsUsage: "SINGER NEW_NAME",
				Action:    r.SingerRename,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List singers in rotation order",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  r.SingerList,
			},
			{
				Name:      "move",
				Usage:     "Move a singer to a 1-based position",
				ArgsUsage: "SINGER POSITION",
				Action:    r.SingerMove,
			},
			{
				Name:      "top",
				Usage:     "Move singers to the top of the rotation, keeping their order",
				ArgsUsage: "SINGER...",
				Action:    r.SingerTop,
			},
			{
				Name:      "bottom",
				Usage:     "Move singers to the bottom of the rotation, keeping their order",
				ArgsUsage: "SINGER...",
				Action:    r.SingerBottom,
			},
			{
				Name:      "regular",
				Usage:     "Save a singer as a regular and track their queue",
				ArgsUsage: "SINGER",
				Action:    r.SingerRegular,
			},
			{
				Name:      "unregular",
				Usage:     "Stop tracking a regular singer's queue (the saved profile is kept)",
				ArgsUsage: "SINGER",
				Action:    r.SingerUnregular,
			},
			{
				Name:      "load",
				Usage:     "Add a saved regular to the rotation with their songs",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{policyFlag()},
				Action:    r.SingerLoad,
			},
			{
				Name:   "regulars",
				Usage:  "List saved regular singers",
				Action: r.SingerRegulars,
			},
		},
	}
}

// queueCommand manages per-singer song queues.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Aliases: []string{"q"},
		Usage:   "Manage singer queues",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a catalog song to the end of a singer's queue",
				ArgsUsage: "SINGER SONG_ID",
				Flags:     []cli.Flag{keyFlag()},
				Action:    r.QueueAdd,
			},
			{
				Name:      "insert",
				Usage:     "Insert a catalog song at a 1-based position in a singer's queue",
				ArgsUsage: "SINGER SONG_ID POSITION",
				Flags:     []cli.Flag{keyFlag()},
				Action:    r.QueueInsert,
			},
			{
				Name:      "rm",
				Aliases:   []string{"remove"},
				Usage:     "Remove queue entries",
				ArgsUsage: "ENTRY_ID...",
				Action:    r.QueueRemove,
			},
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "Show a singer's queue",
				ArgsUsage: "SINGER",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.QueueList,
			},
			{
				Name:      "move",
				Usage:     "Move a queue entry to a 1-based position",
				ArgsUsage: "ENTRY_ID POSITION",
				Action:    r.QueueMove,
			},
			{
				Name:      "played",
				Usage:     "Mark a queue entry as sung",
				ArgsUsage: "ENTRY_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "unset",
						Usage: "Mark the entry as not sung instead",
					},
				},
				Action: r.QueuePlayed,
			},
			{
				Name:      "key",
				Usage:     "Set a queue entry's key change",
				ArgsUsage: "ENTRY_ID SEMITONES",
				Action:    r.QueueKey,
			},
			{
				Name:      "transfer",
				Usage:     "Move a queue entry to the end of another singer's queue",
				ArgsUsage: "ENTRY_ID SINGER",
				Action:    r.QueueTransfer,
			},
			{
				Name:      "clear",
				Usage:     "Clear a singer's queue, or every queue with --all",
				ArgsUsage: "[SINGER]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Clear every singer's queue",
					},
				},
				Action: r.QueueClear,
			},
		},
	}
}

// currentCommand manages the current singer cursor.
func currentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show or set the current singer",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set the current singer",
				ArgsUsage: "SINGER",
				Action:    r.CurrentSet,
			},
			{
				Name:   "clear",
				Usage:  "Clear the current singer",
				Action: r.CurrentClear,
			},
			{
				Name:   "show",
				Usage:  "Show the current singer",
				Action: r.CurrentShow,
			},
		},
	}
}

// rotationCommand renders and maintains the rotation as a whole.
func rotationCommand(r *Runner) *cli.Command {
	formatFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv or markdown",
			Value:   "text",
		}
	}

	return &cli.Command{
		Name:    "rotation",
		Aliases: []string{"rot"},
		Usage:   "Show and maintain the rotation",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the rotation with wait times",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.RotationShow,
			},
			{
				Name:  "export",
				Usage: "Write the rotation to a file",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: rotation.<ext>)",
					},
				},
				Action: r.RotationExport,
			},
			{
				Name:  "next",
				Usage: "Print the \"up next\" ticker line",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of upcoming singers",
						Value:   3,
					},
				},
				Action: r.RotationNext,
			},
			{
				Name:   "repair",
				Usage:  "Re-sequence singer and queue positions",
				Action: r.RotationRepair,
			},
			{
				Name:  "clear",
				Usage: "Remove every singer and queue (regular profiles are kept)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "queues-only",
						Usage: "Keep the singers and clear only their queues",
					},
				},
				Action: r.RotationClear,
			},
		},
	}
}

// songsCommand manages the song catalog.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"song"},
		Usage:   "Manage the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a song to the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title"},
					&cli.StringFlag{Name: "path", Usage: "Media file path"},
					&cli.StringFlag{Name: "song-id", Usage: "Disc/track identifier, e.g. SC1234-05"},
					&cli.IntFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Length in seconds (0 if unknown)"},
				},
				Action: r.SongsAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls", "search"},
				Usage:   "List or search catalog songs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match artist, title or song id"},
					jsonFlag(),
				},
				Action: r.SongsList,
			},
		},
	}
}

// waitCommand prints estimated wait times.
func waitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "wait",
		Usage:  "Estimate how long each singer waits until they're up",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Wait,
	}
}

// advanceCommand starts the next performance immediately.
func advanceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "advance",
		Usage:  "Start the next singer's next song now",
		Action: r.Advance,
	}
}

// tuiCommand returns the top-level TUI command for running the rotation interactively.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive rotation display",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto",
				Usage: "Enable auto-advance regardless of the config",
			},
		},
		Action: r.TUI,
	}
}
