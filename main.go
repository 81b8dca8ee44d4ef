package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"SProject/global"
	"SProject/logger"
	mid "SProject/middleware"
	"SProject/module/social/api"
	"SProject/module/social/call"
	"SProject/module/social/consent"
	"SProject/module/social/friend"
	"SProject/module/social/receipt"
	"SProject/module/social/store"
	"SProject/module/user"
	"SProject/service/chat"
	"SProject/service/kafka"
	mgoSrv "SProject/service/mgo"
	"SProject/service/natsx"
)

func main() {
	cfg := global.LoadAppConfig()
	global.ConfigAll(cfg)
	mid.Config()

	// mongo 是硬依赖：索引没建好之前不接流量
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mgoSrv.WaitReady(ctx); err != nil {
		cancel()
		logger.Errorf("[boot] mongo not ready: %v", err)
		os.Exit(1)
	}

	st := store.NewStore()
	if err := st.EnsureIndexes(ctx); err != nil {
		cancel()
		logger.Errorf("[boot] ensure social indexes: %v", err)
		os.Exit(1)
	}
	userSvc := user.NewService()
	if err := userSvc.EnsureIndexes(ctx); err != nil {
		cancel()
		logger.Errorf("[boot] ensure user indexes: %v", err)
		os.Exit(1)
	}
	cancel()

	// NATS / Kafka 都是可降级依赖：连不上就单节点跑
	var relay *natsx.Relay
	if len(cfg.NatsServers) > 0 {
		nc, err := natsx.NewClient(natsx.Config{
			Servers: cfg.NatsServers,
			Name:    cfg.GatewayNodeId,
		})
		if err != nil {
			logger.Warnf("[boot] nats unavailable, running single-node: %v", err)
		} else {
			relay = natsx.NewRelay(cfg.GatewayNodeId, nc)
		}
	}

	reg := chat.NewRegistry()
	// typed-nil 指针塞进接口会绕过 Router 里的 nil 判断，这里显式留空
	var routerRelay chat.Relay
	if relay != nil {
		routerRelay = relay
	}
	router := chat.NewRouter(cfg.GatewayNodeId, reg, routerRelay)

	var archiver consent.Archiver
	if len(cfg.KafkaBrokers) > 0 {
		a, err := kafka.NewArchiver(kafka.Config{Brokers: cfg.KafkaBrokers})
		if err != nil {
			logger.Warnf("[boot] kafka unavailable, message archive disabled: %v", err)
		} else {
			archiver = a
			defer a.Close()
		}
	}

	consentSvc := consent.NewService(st, router, archiver)
	receiptSvc := receipt.NewService(st, router)
	friendSvc := friend.NewService(st, consentSvc, router)
	calls := call.NewCoordinator(router, cfg.RingTimeout)
	defer calls.Close()

	server := chat.NewServer(cfg, reg, router, consentSvc, receiptSvc, calls, st, userSvc)

	if relay != nil {
		if err := relay.Start(router); err != nil {
			logger.Warnf("[boot] relay subscribe failed, running single-node: %v", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	mid.Default().Add(mid.Origin())
	r.Use(mid.Default().Use())
	r.GET("/ws", server.HandleWS)
	api.NewHandler(st, consentSvc, receiptSvc, friendSvc, userSvc).RegisterRoutes(r)

	go func() {
		logger.Infof("[boot] gateway %s listening on :%d", cfg.GatewayNodeId, cfg.Port)
		if err := r.Run(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Errorf("[boot] http server exited: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("[boot] shutting down")
	logger.Sync()
}
