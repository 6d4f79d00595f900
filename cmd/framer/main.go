package main

import (
	"github.com/ds124wfegd/mirai-frame/config"
	"github.com/ds124wfegd/mirai-frame/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	v, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("error loading config: %s", err.Error())
	}

	cfg, err := config.ParseConfig(v)
	if err != nil {
		logrus.Fatalf("error parsing config: %s", err.Error())
	}

	if err := appServer.NewServer(cfg); err != nil {
		logrus.Fatalf("error starting app: %s", err.Error())
	}
}
