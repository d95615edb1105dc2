package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/search"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// InitSnippetIndex 未启用检索时返回 nil，录音搜索退回数据库查询
func InitSnippetIndex(cfg *config.ElasticsearchConfig) (search.SnippetIndex, error) {
	if !cfg.Enabled {
		logger.Info("Elasticsearch disabled, snippet search falls back to MySQL")
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	// 尝试连接并获取集群信息，验证连接是否成功
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %s", res.Status())
	}

	index := search.NewElasticsearchIndex(client, cfg.Index)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := index.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	logger.Info("Elasticsearch client initialized successfully.", zap.Strings("addresses", cfg.Addresses), zap.String("index", cfg.Index))
	return index, nil
}
