package cmd

import "github.com/urfave/cli/v2"

// Flags only carry values the user gave on the command line. Environment and
// defaults are applied by config.Load so they are not duplicated here.

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to a TOML, YAML or JSON config file.",
}

var ModeFlag = &cli.StringFlag{
	Name:    "mode",
	Aliases: []string{"m"},
	Usage:   "Deployment mode, local or production. Decides the allowed origin and notification URL.",
}

var PortFlag = &cli.IntFlag{
	Name:    "port",
	Aliases: []string{"p"},
	Usage:   "Port to bind the server to.",
}

var PassphrasePolicyFlag = &cli.StringFlag{
	Name:  "passphrase-policy",
	Usage: "How passphrases are compared: exact, substring or oneof.",
}

var RecordsBackendFlag = &cli.StringFlag{
	Name:  "records-backend",
	Usage: "Where requests are recorded: notion or dynamodb.",
}

var NotifierFlag = &cli.StringFlag{
	Name:  "notifier",
	Usage: "How notifications are delivered: http or ses.",
}

var NotifyURLFlag = &cli.StringFlag{
	Name:  "notify-url",
	Usage: "URL of the email sending service, for the http notifier.",
}

var ServeFlags = []cli.Flag{
	ConfigFlag,
	ModeFlag,
	PortFlag,
	PassphrasePolicyFlag,
	RecordsBackendFlag,
	NotifierFlag,
	NotifyURLFlag,
}
