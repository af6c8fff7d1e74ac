package initialize

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/internal/chatwoot"
	"github.com/strataops/strata-triage/internal/embedding"
	"github.com/strataops/strata-triage/internal/llm"
	"github.com/strataops/strata-triage/internal/mcp"
	"github.com/strataops/strata-triage/internal/oss"
	"github.com/strataops/strata-triage/internal/redis"
	"github.com/strataops/strata-triage/internal/vector"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

func (i *Initializer) initRedis() error {
	client, err := redis.NewClient(
		global.Config.Redis.Addr,
		global.Config.Redis.Password,
		int(global.Config.Redis.DB),
	)
	if err != nil {
		return fmt.Errorf("initializing redis client failed: %w", err)
	}
	global.RedisClient = client
	global.Log.Info("redis client ready")
	return nil
}

func (i *Initializer) redisClose() error {
	if global.RedisClient != nil {
		return global.RedisClient.Close()
	}
	return nil
}

func (i *Initializer) initVectorDb() error {
	client, err := vector.NewClient(
		global.Config.VectorDb.Url,
		global.Config.VectorDb.Auth,
	)
	if err != nil {
		global.Log.Warnf("creating vector store client failed: %v", err)
		return err
	}

	if err := client.Heartbeat(context.Background()); err != nil {
		global.Log.Warnf("vector store unreachable (url: %s): %v", global.Config.VectorDb.Url, err)
		return err
	}

	global.VectorDb = client
	global.Log.Info("vector store client ready")
	return nil
}

func (i *Initializer) vectorDbClose() error {
	if global.VectorDb != nil {
		return global.VectorDb.Close()
	}
	return nil
}

func (i *Initializer) initChatwoot() error {
	client := chatwoot.NewClient(
		global.Config.Chatwoot.Url,
		int(global.Config.Chatwoot.AccountId),
		global.Config.Chatwoot.Auth,
		global.Config.Chatwoot.BotAuth,
		global.Log,
	)

	if _, err := client.GetAccountDetails(); err != nil {
		return fmt.Errorf("ticketing platform unreachable (url: %s): %w", global.Config.Chatwoot.Url, err)
	}

	global.ChatwootService = client
	global.Log.Info("ticketing platform client ready")
	return nil
}

func (i *Initializer) initLlm() error {
	if err := i.doInitLlm(); err != nil {
		global.Log.Warnf("initializing llm clients failed: %v", err)
		return err
	}
	global.Log.Info("llm clients ready")
	return nil
}

func (i *Initializer) doInitLlm() error {
	if len(global.Config.Llm) == 0 {
		return fmt.Errorf("no llm configured")
	}

	llmClients := make(map[llm.LlmSize]*openai.Client, len(global.Config.Llm))
	for _, cfg := range global.Config.Llm {
		config := openai.DefaultConfig(cfg.Auth)
		config.BaseURL = cfg.Url
		config.HTTPClient = &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
		llmClients[llm.LlmSize(cfg.Size)] = openai.NewClientWithConfig(config)
	}

	g, gCtx := errgroup.WithContext(context.Background())
	for _, cfg := range global.Config.Llm {
		cfg := cfg
		g.Go(func() error {
			size := llm.LlmSize(cfg.Size)
			client := llmClients[size]

			reqCtx, cancel := context.WithTimeout(gCtx, 5*time.Second)
			defer cancel()

			if _, err := client.ListModels(reqCtx); err != nil {
				return fmt.Errorf("llm unreachable (size: %s, url: %s): %w", size, cfg.Url, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	global.Llm = llmClients
	global.LlmService = llm.NewClient(
		global.Log,
		llmClients,
		global.Config.Llm,
	)
	return nil
}

func (i *Initializer) initLlmEmbedding() error {
	if err := i.doInitLlmEmbedding(); err != nil {
		global.Log.Warnf("initializing embedding client failed: %v", err)
		return err
	}
	global.Log.Info("embedding client ready")
	return nil
}

func (i *Initializer) doInitLlmEmbedding() error {
	config := openai.DefaultConfig(global.Config.LlmEmbedding.Auth)
	config.BaseURL = global.Config.LlmEmbedding.Url
	openAIClient := openai.NewClientWithConfig(config)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := openAIClient.ListModels(ctx); err != nil {
		return fmt.Errorf("embedding service unreachable (url: %s): %w", config.BaseURL, err)
	}

	global.LlmEmbedding = openAIClient
	global.EmbeddingService = embedding.NewClient(
		openAIClient,
		global.Config.LlmEmbedding.Model,
		global.Config.LlmEmbedding.Dimension,
	)
	return nil
}

func (i *Initializer) initMcp() error {
	if len(global.Config.McpServers) == 0 {
		return nil
	}
	client, err := mcp.NewClient(global.Log, global.Config.McpServers, global.Version, global.Config.ProjectName)
	if err != nil {
		global.Log.Warnf("initializing mcp clients failed: %v", err)
		return err
	}
	global.McpService = client
	global.Log.Info("mcp clients ready")
	return nil
}

func (i *Initializer) mcpClose() error {
	if global.McpService != nil {
		return global.McpService.Close()
	}
	return nil
}

func (i *Initializer) initOss() error {
	cfg := global.Config.Oss
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKeyId == "" || cfg.AccessKeySecret == "" {
		global.Log.Info("oss config incomplete, transcript archival disabled")
		return nil
	}

	client, err := oss.NewClient(cfg, global.Tz)
	if err != nil {
		global.Log.Warnf("initializing oss client failed: %v", err)
		return err
	}
	global.OssService = client
	global.Log.Info("oss client ready")
	return nil
}

func (i *Initializer) ossClose() error {
	if global.OssService != nil {
		return global.OssService.Close()
	}
	return nil
}
