package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGameHandler_SaveAndLoad(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateShop(t, "village")
	s.mustCreateSpecial(t, "village", swordMarkup("20"))

	rec := s.do(t, http.MethodPost, "/admin/saves/slot_1", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved SaveSlotResponse
	decode(t, rec, &saved)
	assert.Equal(t, "slot_1", saved.Slot)
	assert.Equal(t, 1, saved.Shops)
	assert.Positive(t, saved.Size)

	rec = s.do(t, http.MethodGet, "/admin/saves", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list SaveSlotListResponse
	decode(t, rec, &list)
	require.Len(t, list.Slots, 1)
	assert.Equal(t, "slot_1", list.Slots[0].Name)

	// 保存後の変更はロードで巻き戻る
	rec = s.do(t, http.MethodDelete, "/admin/shops/village", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/saves/slot_1/load", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var loaded LoadSlotResponse
	decode(t, rec, &loaded)
	assert.Equal(t, []string{"village"}, loaded.Loaded)
	assert.Empty(t, loaded.Failed)
	assert.Equal(t, int64(120), priceOf(t, s, "village", "sword"))

	rec = s.do(t, http.MethodDelete, "/admin/saves/slot_1", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSaveGameHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "異常系: 存在しないスロットをロード", method: http.MethodPost, path: "/admin/saves/ghost/load", wantStatus: http.StatusNotFound, wantCode: "save_slot_not_found"},
		{name: "異常系: 存在しないスロットを削除", method: http.MethodDelete, path: "/admin/saves/ghost", wantStatus: http.StatusNotFound, wantCode: "save_slot_not_found"},
		{name: "異常系: 不正なスロット名", method: http.MethodPost, path: "/admin/saves/bad.name", wantStatus: http.StatusBadRequest, wantCode: "invalid_slot_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, tt.method, tt.path, nil, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			var body ErrorResponse
			decode(t, rec, &body)
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}
