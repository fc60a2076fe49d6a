package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopbot-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "admin-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminListOrders(t *testing.T) {
	r, db := newTestRouter(t)
	token := adminToken(t, r)

	require.NoError(t, db.Create(&models.Order{AmountMinor: 100, Status: models.OrderStatusPaid, BuyerTgID: "42"}).Error)
	require.NoError(t, db.Create(&models.Order{AmountMinor: 200, Status: models.OrderStatusPending, BuyerTgID: "43"}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=paid", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, models.OrderStatusPaid, resp.Data[0].Status)
}

func TestAdminAddCodes(t *testing.T) {
	r, db := newTestRouter(t)
	token := adminToken(t, r)

	item := &models.Item{
		Title:        "License",
		PriceMinor:   100,
		ItemType:     models.ItemTypeDigital,
		DeliveryType: models.DeliveryTypeCodes,
		IsVisible:    true,
	}
	require.NoError(t, db.Create(item).Error)

	body, _ := json.Marshal(map[string]interface{}{"codes": []string{"A-1", "B-2"}})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/admin/items/%d/codes", item.ID), bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.ItemCode{}).Where("item_id = ?", item.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
