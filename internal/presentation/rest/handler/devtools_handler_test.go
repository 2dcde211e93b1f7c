package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevToolsHandler_Menu(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/admin/devtools/menu", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp DevMenuResponse
	decode(t, rec, &resp)
	keys := make([]string, 0, len(resp.Options))
	for _, o := range resp.Options {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"list_shops", "quick_save", "specials_creator", "quick_load", "purge_price_cache"}, keys)
}

func TestDevToolsHandler_Invoke(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		body       interface{}
		wantStatus int
		checkFunc  func(t *testing.T, resp InvokeMenuResponse)
	}{
		{
			name:       "正常系: ショップ一覧",
			key:        "list_shops",
			wantStatus: http.StatusOK,
			checkFunc: func(t *testing.T, resp InvokeMenuResponse) {
				assert.Equal(t, []interface{}{"village"}, resp.Data["shops"])
			},
		},
		{
			name:       "正常系: スペシャル作成ツール",
			key:        "specials_creator",
			body:       InvokeMenuRequest{Args: map[string]string{"shop_id": "village"}},
			wantStatus: http.StatusOK,
			checkFunc: func(t *testing.T, resp InvokeMenuResponse) {
				assert.Empty(t, resp.Notice)
				assert.Equal(t, "village", resp.Data["shop_id"])
				assert.Len(t, resp.Data["modifiers"], 1)
			},
		},
		{
			name:       "異常系: 存在しない項目",
			key:        "teleport",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.mustCreateShop(t, "village")
			s.mustCreateSpecial(t, "village", swordMarkup("20"))

			rec := s.do(t, http.MethodPost, "/admin/devtools/menu/"+tt.key, tt.body, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.checkFunc == nil {
				return
			}
			var resp InvokeMenuResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.key, resp.Key)
			tt.checkFunc(t, resp)
		})
	}
}
