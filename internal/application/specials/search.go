package specials

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"shop-economy/internal/domain/modifier"
)

const defaultSearchLimit = 20

// searchSource fuzzy.Source の実装。名前が空の場合は適用範囲で検索する
type searchSource []modifier.State

func (src searchSource) Len() int {
	return len(src)
}

func (src searchSource) String(i int) string {
	st := src[i]
	if st.Name == "" {
		return strings.ToLower(st.Scope.String())
	}
	return strings.ToLower(st.Name)
}

// Search 名前のあいまい検索。スコアの高い順に返す
func (s *SpecialsEditorService) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("query", req.Query),
	)

	inst, err := s.registry.Get(req.ShopID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}

	src := searchSource(inst.Store().Snapshot())
	query := strings.ToLower(strings.TrimSpace(req.Query))
	if query == "" {
		results := make([]SearchResult, 0, min(limit, len(src)))
		for i := 0; i < len(src) && i < limit; i++ {
			results = append(results, SearchResult{Modifier: src[i]})
		}
		return &SearchResponse{Results: results}, nil
	}

	matches := fuzzy.FindFrom(query, src)
	results := make([]SearchResult, 0, min(limit, len(matches)))
	for _, match := range matches {
		if len(results) == limit {
			break
		}
		results = append(results, SearchResult{
			Modifier: src[match.Index],
			Score:    match.Score,
		})
	}

	span.SetAttributes(attribute.Int("count", len(results)))
	s.logger.Debug(ctx, "Specials searched", map[string]interface{}{
		"shop_id": req.ShopID,
		"query":   req.Query,
		"matches": len(matches),
	})
	return &SearchResponse{Results: results}, nil
}
