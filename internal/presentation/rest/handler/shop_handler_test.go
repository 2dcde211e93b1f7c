package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopHandler_GetOrCreate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/admin/shops", CreateShopRequest{ShopID: "village"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created ShopResponse
	decode(t, rec, &created)
	assert.True(t, created.Created)
	assert.Equal(t, "village", created.ShopID)

	// 2回目は既存のショップを返す
	rec = s.do(t, http.MethodPost, "/admin/shops", CreateShopRequest{ShopID: "village"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var existing ShopResponse
	decode(t, rec, &existing)
	assert.False(t, existing.Created)

	rec = s.do(t, http.MethodPost, "/admin/shops", CreateShopRequest{ShopID: ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShopHandler_GetListDelete(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateShop(t, "village")
	s.mustCreateShop(t, "harbor")
	s.mustCreateSpecial(t, "village", swordMarkup("20"))

	rec := s.do(t, http.MethodGet, "/admin/shops/village", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info ShopResponse
	decode(t, rec, &info)
	assert.Equal(t, 1, info.Specials)
	assert.Equal(t, 0, info.ActiveLeases)

	rec = s.do(t, http.MethodGet, "/admin/shops", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ShopListResponse
	decode(t, rec, &list)
	assert.Len(t, list.Shops, 2)

	rec = s.do(t, http.MethodDelete, "/admin/shops/village", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/admin/shops/village", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/admin/shops/village", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
