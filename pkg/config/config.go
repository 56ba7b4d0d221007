package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lit      LitConfig      `mapstructure:"lit"`
	Executor ExecutorConfig `mapstructure:"executor"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LitConfig locates the on-chain registries the executor reads.
// YellowstoneRpc is the Lit chain endpoint; registry reads always go there,
// regardless of which chain the transfer itself targets.
type LitConfig struct {
	Network             string `mapstructure:"network"` // datil-dev, datil-test, datil
	YellowstoneRpc      string `mapstructure:"yellowstone_rpc"`
	ToolRegistryAddress string `mapstructure:"tool_registry_address"`
	ToolCid             string `mapstructure:"tool_cid"` // operation id this executor runs as
}

type ExecutorConfig struct {
	NodeID          string `mapstructure:"node_id"`
	BarrierTTLSec   int    `mapstructure:"barrier_ttl_sec"`
	BarrierPollMs   int    `mapstructure:"barrier_poll_ms"`
	DevMode         bool   `mapstructure:"dev_mode"` // in-memory barrier + local signer
	DevSignerKeyHex string `mapstructure:"dev_signer_key_hex"`
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("lit.network", "datil-dev")
	viper.SetDefault("lit.yellowstone_rpc", "https://yellowstone-rpc.litprotocol.com")

	viper.SetDefault("executor.node_id", "executor-0")
	viper.SetDefault("executor.barrier_ttl_sec", 600)
	viper.SetDefault("executor.barrier_poll_ms", 200)
	viper.SetDefault("executor.dev_mode", false)
}
