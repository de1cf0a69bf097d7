package main

import (
	"log"

	"github.com/vkotov/clipcoin/bot"
	botconfig "github.com/vkotov/clipcoin/bot/config"
	"github.com/vkotov/clipcoin/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CLIPCOIN_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return botconfig.Load(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			return bot.New(carrier.(*botconfig.Config))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
