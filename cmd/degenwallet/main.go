package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/playdegen/auth/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app := &cli.App{
		Name:  "degenwallet",
		Usage: "log a wallet in and out of a playdegen auth server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:9000",
				EnvVars: []string{"DEGEN_SERVER"},
			},
			&cli.StringFlag{
				Name:    "key",
				Usage:   "base58 secret key of the wallet",
				EnvVars: []string{"DEGEN_WALLET_KEY"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log each reconciliation step",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "generate a new wallet keypair",
				Action: keygen,
			},
			{
				Name:   "login",
				Usage:  "connect the wallet and establish a session",
				Action: login,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func keygen(c *cli.Context) error {
	w, err := client.GenerateKeypairWallet()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "public key: %s\nsecret key: %s\n", w.PublicKey(), w.SecretKey())
	return nil
}

func login(c *cli.Context) error {
	if c.String("key") == "" {
		return errors.New("--key or DEGEN_WALLET_KEY is required")
	}
	w, err := client.LoadKeypairWallet(c.String("key"))
	if err != nil {
		return err
	}

	api, err := client.NewAPI(c.String("server"))
	if err != nil {
		return err
	}

	level := zerolog.WarnLevel
	if c.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	var token string
	reloaded := false
	r := client.NewReconciler(
		api,
		client.TokenSinkFunc(func(t string) { token = t }),
		client.ReloaderFunc(func() { reloaded = true }),
		client.WithReconcilerLogger(l),
	)

	state := r.Handle(c.Context, client.ConnectionEvent{Connected: true, Wallet: w})
	if reloaded {
		return errors.New("session belonged to another wallet and was cleared, run login again")
	}
	if state != client.ConnectedEstablished {
		return fmt.Errorf("no session established (%s)", state)
	}

	fmt.Fprintf(c.App.Writer, "wallet: %s\ntoken: %s\n", w.PublicKey(), token)
	return nil
}
