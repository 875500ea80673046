package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/dmorales/projectboard/internal/api"
	"github.com/dmorales/projectboard/internal/app"
	"github.com/dmorales/projectboard/internal/config"
	"github.com/dmorales/projectboard/internal/credential"
	"github.com/dmorales/projectboard/internal/logging"
	"github.com/dmorales/projectboard/internal/notify"
	"github.com/dmorales/projectboard/internal/realtime"
	"github.com/dmorales/projectboard/internal/session"
	"github.com/dmorales/projectboard/internal/store"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "projectboard: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logCloser, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logCloser.Close()

	cache, err := store.NewSQLiteCache(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	tokens := credential.NewKeyringStore()
	client := api.NewClient(cfg.APIBaseURL, tokens, logger.WithField("component", "api"))

	channel := realtime.New(
		cfg.NotificationsURL(),
		realtime.NewDialer(),
		realtime.NewClock(),
		logger.WithField("component", "realtime"),
	)
	controller := session.NewController(client, tokens, channel,
		logger.WithField("component", "session"))

	root := app.New(app.Deps{
		Client:  client,
		Session: controller,
		Channel: channel,
		Center:  notify.NewCenter(),
		Cache:   cache,
		Log:     logger.WithField("component", "app"),
	})

	logger.WithFields(logrus.Fields{
		"api": cfg.APIBaseURL,
		"ws":  cfg.NotificationsURL(),
	}).Info("starting projectboard")

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	channel.Stop()
	return nil
}
