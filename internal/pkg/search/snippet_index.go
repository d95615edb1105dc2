package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// SnippetDocument 录音在检索索引中的文档
type SnippetDocument struct {
	ID            uint64    `json:"id"`
	OwnerID       uint64    `json:"owner_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Transcription string    `json:"transcription"`
	IsPrivate     bool      `json:"is_private"`
	CreatedAt     time.Time `json:"created_at"`
}

// SnippetIndex 录音全文检索
type SnippetIndex interface {
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, doc SnippetDocument) error
	Delete(ctx context.Context, snippetID uint64) error
	// Search 返回命中的录音 ID（按相关度排序）和命中总数
	Search(ctx context.Context, ownerID uint64, query string, from, size int) ([]uint64, int64, error)
}

type esSnippetIndex struct {
	client *elasticsearch.Client
	index  string
}

var _ SnippetIndex = (*esSnippetIndex)(nil)

func NewElasticsearchIndex(client *elasticsearch.Client, index string) SnippetIndex {
	return &esSnippetIndex{client: client, index: index}
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "long"},
      "owner_id":      {"type": "long"},
      "title":         {"type": "text"},
      "description":   {"type": "text"},
      "transcription": {"type": "text"},
      "is_private":    {"type": "boolean"},
      "created_at":    {"type": "date"}
    }
  }
}`

func (e *esSnippetIndex) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引是否存在失败: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引失败: %s", res.String())
	}
	logger.Info("Elasticsearch 索引创建成功", zap.String("index", e.index))
	return nil
}

func (e *esSnippetIndex) Index(ctx context.Context, doc SnippetDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化检索文档失败: %w", err)
	}
	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(strconv.FormatUint(doc.ID, 10)),
	)
	if err != nil {
		return fmt.Errorf("写入检索索引失败: %w", err)
	}
	defer res.Body.Close()
	return checkResponse(res, "写入检索索引失败")
}

func (e *esSnippetIndex) Delete(ctx context.Context, snippetID uint64) error {
	res, err := e.client.Delete(e.index, strconv.FormatUint(snippetID, 10), e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("删除检索文档失败: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil
	}
	return checkResponse(res, "删除检索文档失败")
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source SnippetDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *esSnippetIndex) Search(ctx context.Context, ownerID uint64, query string, from, size int) ([]uint64, int64, error) {
	q := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"title^3", "description", "transcription"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"owner_id": ownerID},
				},
			},
		},
		"_source": []string{"id"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, 0, fmt.Errorf("构造检索请求失败: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
		e.client.Search.WithFrom(from),
		e.client.Search.WithSize(size),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("检索失败: %w", err)
	}
	defer res.Body.Close()
	if err := checkResponse(res, "检索失败"); err != nil {
		return nil, 0, err
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("解析检索结果失败: %w", err)
	}
	ids := make([]uint64, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, sr.Hits.Total.Value, nil
}

func checkResponse(res *esapi.Response, msg string) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: %s %s", msg, res.Status(), string(body))
}
