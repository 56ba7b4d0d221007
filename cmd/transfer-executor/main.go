package main

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/handler"
	"github.com/madschristensen99/lit-full-self-signing/internal/server"
	"github.com/madschristensen99/lit-full-self-signing/internal/service"
	"github.com/madschristensen99/lit-full-self-signing/pkg/config"
	"github.com/madschristensen99/lit-full-self-signing/pkg/database"
	"github.com/madschristensen99/lit-full-self-signing/pkg/logger"
	"github.com/madschristensen99/lit-full-self-signing/pkg/runonce"
	"github.com/madschristensen99/lit-full-self-signing/pkg/signer"
	"github.com/madschristensen99/lit-full-self-signing/pkg/validator"
)

// @title Transfer Executor API
// @version 1.0
// @description Policy-gated delegated ERC-20 transfer executor for threshold-signed PKP identities

// @host localhost:8080
// @BasePath /api/v1
func main() {
	config.Init()

	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	validator.Init()

	cfg := config.Global

	// Barrier: redis-backed across a real cohort, in-memory for a single
	// dev node.
	var barrier runonce.Barrier
	if cfg.Executor.DevMode {
		logger.Info("dev mode: using in-memory single-execution barrier")
		barrier = runonce.NewMemoryBarrier()
	} else {
		rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		barrier = runonce.NewRedisBarrier(
			rdb,
			cfg.Executor.NodeID,
			time.Duration(cfg.Executor.BarrierTTLSec)*time.Second,
			time.Duration(cfg.Executor.BarrierPollMs)*time.Millisecond,
		)
	}

	// Signing capability. The local signer stands in for the threshold
	// protocol; production cohorts inject the distributed client here.
	if cfg.Executor.DevSignerKeyHex == "" {
		logger.Fatal("no signing capability configured (executor.dev_signer_key_hex)")
	}
	sg, err := signer.NewLocalSignerFromHex(cfg.Executor.DevSignerKeyHex)
	if err != nil {
		logger.Fatal("signer init failed", zap.Error(err))
	}
	logger.Info("local signer loaded", zap.String("publicKey", sg.PublicKeyHex()))

	litClient, err := chain.Dial(context.Background(), cfg.Lit.YellowstoneRpc)
	if err != nil {
		logger.Fatal("lit chain rpc connection failed",
			zap.String("rpc", cfg.Lit.YellowstoneRpc), zap.Error(err))
	}

	executor := service.NewExecutor(service.Config{
		Network:             cfg.Lit.Network,
		ToolRegistryAddress: common.HexToAddress(cfg.Lit.ToolRegistryAddress),
		ToolCid:             cfg.Lit.ToolCid,
	}, litClient, chain.Dial, sg, barrier)

	r := server.NewHTTPRouter(handler.NewTransferHandler(executor))

	app := server.New(server.Config{HttpPort: cfg.App.HttpPort}, r)
	app.Run()
}
