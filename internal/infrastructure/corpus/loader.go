// Package corpus 提供静态示例语料的一次性加载
package corpus

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/domain/repository"
	"copysmith-ai-api/pkg/logger"
)

//go:embed data/examples.json
var embeddedFS embed.FS

// FileStore 从磁盘 JSON 文件加载语料；路径为空时退回内置数据集。
// 语料在进程生命周期内只读。
type FileStore struct {
	path string
}

var _ repository.CorpusStore = (*FileStore)(nil)

// NewFileStore 创建语料加载器
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadExamples 读取并解析语料数据集
func (s *FileStore) LoadExamples(ctx context.Context) ([]entity.CorpusExample, error) {
	var raw []byte
	var err error
	source := s.path

	if s.path != "" {
		raw, err = os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus file %s: %w", s.path, err)
		}
	} else {
		source = "embedded"
		raw, err = embeddedFS.ReadFile("data/examples.json")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded corpus: %w", err)
		}
	}

	var examples []entity.CorpusExample
	if err := json.Unmarshal(raw, &examples); err != nil {
		return nil, fmt.Errorf("failed to parse corpus dataset: %w", err)
	}

	// 丢弃空文本条目，避免污染召回
	out := examples[:0]
	for _, ex := range examples {
		if ex.Text != "" {
			out = append(out, ex)
		}
	}

	logger.Info(ctx, "corpus loaded", "source", source, "examples", len(out))
	return out, nil
}
