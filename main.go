package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/campusdesk/reqsync/external/portal"
	"github.com/campusdesk/reqsync/session"
	"github.com/campusdesk/reqsync/store"
)

func initLog() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})

	if level, err := log.ParseLevel(viper.GetString("log.level")); err == nil {
		log.SetLevel(level)
	}
}

func loadConfig(file string) {
	viper.SetConfigType("yaml")
	if file != "" {
		viper.SetConfigFile(file)
	}
	viper.AddConfigPath("/.config/")
	viper.AddConfigPath(".")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("session.path", "./reqsync-session.db")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file. Read config from env.")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("reqsync")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func main() {
	var configFile string

	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.Parse()

	loadConfig(configFile)

	initLog()

	// Sentry
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              viper.GetString("sentry.dsn"),
		AttachStacktrace: true,
		Environment:      viper.GetString("sentry.environment"),
		Dist:             viper.GetString("sentry.dist"),
	}); err != nil {
		log.Error(err)
	}
	log.WithField("prefix", "init").Info("Initialized sentry")

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	client, err := portal.New(viper.GetString("portal.endpoint"), httpClient)
	if err != nil {
		log.Panic(err)
	}

	sess, err := session.Open(viper.GetString("session.path"), client)
	if err != nil {
		log.Panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info("Sync agent is preparing to shutdown")
		cancel()
	}()

	if err := sess.Init(ctx); err != nil && !errors.Is(err, portal.ErrUnauthorized) {
		log.WithError(err).Warn("could not restore session")
	}

	if !sess.Authenticated() {
		email := viper.GetString("portal.email")
		password := viper.GetString("portal.password")
		if email == "" {
			log.Panic("no persisted session and no portal.email configured")
		}
		if err := sess.Login(ctx, email, password); err != nil {
			log.Panic(err)
		}
		log.WithField("prefix", "init").Info("Logged in as ", email)
	}

	requestStore := store.NewRequestStore(client, sess, func() {
		log.Warn("session expired, shutting down; log in again to resume")
		sentry.CaptureMessage("sync halted on rejected credential")
		cancel()
	})

	log.WithField("prefix", "init").Info("Starting request synchronization")
	requestStore.Run(ctx)

	sentry.Flush(5 * time.Second)
}
