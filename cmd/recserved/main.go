// recserved 是推荐服务守护进程：加载工件、装配 Pipeline、启动 HTTP 服务。
//
// 用法：
//
//	recserved -config server.yaml
//
// 工件来源二选一：本地目录（artifact_dir）或 Redis（redis.addr + 前缀）。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/recserve/api"
	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/config"
	"github.com/rushteam/recserve/feast"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/service"
	"github.com/rushteam/recserve/store"
)

type serverConfig struct {
	Addr string `yaml:"addr"`

	// ArtifactDir 是本地工件目录；与 Redis 二选一，目录优先
	ArtifactDir string `yaml:"artifact_dir"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	// PipelineConfig 是可选的 Pipeline YAML，缺省用内置装配
	PipelineConfig string `yaml:"pipeline_config"`

	MaxK int `yaml:"max_k"`

	Feast struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Project string `yaml:"project"`
	} `yaml:"feast"`
}

func main() {
	configPath := flag.String("config", "server.yaml", "服务配置文件路径")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("recserved exit", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	bundle, err := loadBundle(cfg, logger)
	if err != nil {
		return err
	}

	opts := []service.Option{}
	if cfg.MaxK > 0 {
		opts = append(opts, service.WithMaxK(cfg.MaxK))
	}

	if cfg.PipelineConfig != "" {
		pcfg, err := pipeline.LoadFromYAML(cfg.PipelineConfig)
		if err != nil {
			return fmt.Errorf("load pipeline config: %w", err)
		}
		p, err := pcfg.BuildPipeline(config.NewNodeFactory(bundle))
		if err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}
		opts = append(opts, service.WithPipeline(p))
		logger.Info("pipeline built from config", "path", cfg.PipelineConfig)
	}

	if cfg.Feast.Host != "" {
		client, err := feast.NewGrpcClient(cfg.Feast.Host, cfg.Feast.Port, cfg.Feast.Project)
		if err != nil {
			return fmt.Errorf("connect feast: %w", err)
		}
		defer client.Close()
		opts = append(opts, service.WithProfileSource(&feast.ProfileSource{Client: client}))
		logger.Info("feast profile source enabled", "host", cfg.Feast.Host)
	}

	svc, err := service.New(bundle, opts...)
	if err != nil {
		return fmt.Errorf("assemble service: %w", err)
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(svc, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("recserved listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadConfig(path string) (*serverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg serverConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func loadBundle(cfg *serverConfig, logger *slog.Logger) (*artifact.Bundle, error) {
	if cfg.ArtifactDir != "" {
		logger.Info("loading artifacts", "dir", cfg.ArtifactDir)
		return artifact.LoadDir(cfg.ArtifactDir)
	}
	if cfg.Redis.Addr != "" {
		logger.Info("loading artifacts", "redis", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB, store.WithPassword(cfg.Redis.Password))
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		defer rs.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return artifact.LoadFromStore(ctx, rs, cfg.Redis.Prefix)
	}
	return nil, fmt.Errorf("no artifact source configured: set artifact_dir or redis.addr")
}
