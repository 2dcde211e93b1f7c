package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceOf(t *testing.T, s *testServer, shopID, itemID string) int64 {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/shops/"+shopID+"/prices/"+itemID, nil, "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PriceResponse
	decode(t, rec, &resp)
	return resp.Quote.Price
}

func TestSpecialsHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		shopID     string
		draft      SpecialDraft
		wantStatus int
		wantCode   string
	}{
		{name: "正常系: アイテムへの値上げ", shopID: "village", draft: swordMarkup("20"), wantStatus: http.StatusCreated},
		{
			name:   "正常系: カテゴリへの値下げ",
			shopID: "village",
			draft: SpecialDraft{
				Name: "Potion Sale", ScopeKind: "category", ScopeTarget: "consumables",
				Kind: "markdown", Value: "5", Unit: "absolute", Manual: true,
			},
			wantStatus: http.StatusCreated,
		},
		{name: "異常系: 効果なし", shopID: "village", draft: swordMarkup("0"), wantStatus: http.StatusUnprocessableEntity, wantCode: "noop_modifier"},
		{
			name:       "異常系: 不正な種別",
			shopID:     "village",
			draft:      SpecialDraft{Name: "x", ScopeKind: "shop", Kind: "bogus", Value: "1", Unit: "percent", Manual: true},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_modifier",
		},
		{name: "異常系: 存在しないショップ", shopID: "nowhere", draft: swordMarkup("20"), wantStatus: http.StatusNotFound, wantCode: "unknown_shop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.mustCreateShop(t, "village")

			rec := s.do(t, http.MethodPost, "/admin/shops/"+tt.shopID+"/specials", CreateSpecialRequest{
				SpecialDraft: tt.draft,
				Actor:        "designer",
			}, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantCode != "" {
				var body ErrorResponse
				decode(t, rec, &body)
				assert.Equal(t, tt.wantCode, body.Error)
				return
			}
			var resp SpecialResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Special.ID)
			assert.Equal(t, tt.draft.Name, resp.Special.Name)
			assert.True(t, resp.Special.Enabled)
			assert.NotNil(t, resp.Superseded)
		})
	}
}

func TestSpecialsHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateShop(t, "village")

	special := s.mustCreateSpecial(t, "village", swordMarkup("20"))
	base := "/admin/shops/village/specials/" + special.ID
	assert.Equal(t, int64(120), priceOf(t, s, "village", "sword"))

	// 編集
	value := "50"
	rec := s.do(t, http.MethodPatch, base, EditSpecialRequest{Value: &value, Actor: "designer"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edited SpecialResponse
	decode(t, rec, &edited)
	assert.Equal(t, "50", edited.Special.Value)
	assert.Equal(t, int64(150), priceOf(t, s, "village", "sword"))

	// 無効化はボディなしでも受け付ける
	rec = s.do(t, http.MethodPost, base+"/disable", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(100), priceOf(t, s, "village", "sword"))

	rec = s.do(t, http.MethodPost, base+"/enable", ActorRequest{Actor: "designer"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(150), priceOf(t, s, "village", "sword"))

	// 一覧
	rec = s.do(t, http.MethodGet, "/admin/shops/village/specials?item_id=sword", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list SpecialListResponse
	decode(t, rec, &list)
	require.Len(t, list.Specials, 1)
	assert.Equal(t, special.ID, list.Specials[0].ID)

	// 削除
	rec = s.do(t, http.MethodDelete, base+"?actor=designer", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, int64(100), priceOf(t, s, "village", "sword"))

	rec = s.do(t, http.MethodPatch, base, EditSpecialRequest{Value: &value}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 監査ログ
	rec = s.do(t, http.MethodGet, "/admin/shops/village/specials/audit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var audit AuditResponse
	decode(t, rec, &audit)
	actions := make([]string, 0, len(audit.Entries))
	for _, e := range audit.Entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"create", "edit", "disable", "enable", "remove"}, actions)
	assert.Equal(t, "admin", audit.Entries[2].Actor)
	assert.Nil(t, audit.Entries[0].Before)
	assert.Nil(t, audit.Entries[4].After)
}

func TestSpecialsHandler_Search(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateShop(t, "village")
	s.mustCreateSpecial(t, "village", swordMarkup("20"))
	s.mustCreateSpecial(t, "village", SpecialDraft{
		Name: "Potion Festival", ScopeKind: "item", ScopeTarget: "potion",
		Kind: "markdown", Value: "10", Unit: "percent", Manual: true,
	})

	rec := s.do(t, http.MethodGet, "/admin/shops/village/specials/search?q=potfest", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SearchResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Potion Festival", resp.Results[0].Special.Name)

	rec = s.do(t, http.MethodGet, "/admin/shops/village/specials/search?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpecialsHandler_Preview(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateShop(t, "village")

	t.Run("正常系: 保存前の定義", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/admin/shops/village/specials/preview", PreviewDraftRequest{
			Draft:  swordMarkup("20"),
			ItemID: "sword",
		}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp PreviewResponse
		decode(t, rec, &resp)
		assert.Equal(t, int64(100), resp.Baseline.Price)
		assert.Equal(t, int64(120), resp.With.Price)
		assert.Equal(t, int64(20), resp.Delta)

		// 状態は変わらない
		assert.Equal(t, int64(100), priceOf(t, s, "village", "sword"))
	})

	t.Run("正常系: 無効化済みのスペシャル", func(t *testing.T) {
		special := s.mustCreateSpecial(t, "village", SpecialDraft{
			Name: "Half Price", ScopeKind: "shop", Kind: "markdown", Value: "50", Unit: "percent", Manual: true,
		})
		rec := s.do(t, http.MethodPost, "/admin/shops/village/specials/"+special.ID+"/disable", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, "/admin/shops/village/specials/"+special.ID+"/preview?item_id=potion", nil, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp PreviewResponse
		decode(t, rec, &resp)
		assert.Equal(t, int64(25), resp.Baseline.Price)
		assert.Equal(t, int64(13), resp.With.Price)
		assert.Equal(t, int64(-12), resp.Delta)
	})

	t.Run("異常系: 存在しないスペシャル", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/admin/shops/village/specials/missing/preview?item_id=sword", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
