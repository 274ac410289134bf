package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const productExtID = "7944ef04-f831-11e3-917b-002590a28eca"

func TestWebhook_MalformedPayload(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodPost, "/api/v1/webhooks/moysklad", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.products.AssertNotCalled(t, "DeleteByExternalIDs", mock.Anything, mock.Anything)
}

func TestWebhook_ProductDeleteEvent(t *testing.T) {
	f := newHandlerFixture()
	f.products.On("DeleteByExternalIDs", mock.Anything, []string{productExtID}).Return(int64(1), nil)

	payload := `{"events":[{"action":"DELETE","meta":{"type":"product","href":"https://api.moysklad.ru/api/remap/1.2/entity/product/` + productExtID + `"}}]}`
	w := f.do(http.MethodPost, "/api/v1/webhooks/moysklad", payload)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["deleted"])
	f.products.AssertExpectations(t)
}

func TestWebhook_IgnoresUnrelatedEvents(t *testing.T) {
	f := newHandlerFixture()

	payload := `{"events":[
		{"action":"UPDATE","meta":{"type":"product","href":"https://api.moysklad.ru/api/remap/1.2/entity/product/` + productExtID + `"}},
		{"action":"DELETE","meta":{"type":"productfolder","href":"https://api.moysklad.ru/api/remap/1.2/entity/productfolder/` + productExtID + `"}}
	]}`
	w := f.do(http.MethodPost, "/api/v1/webhooks/moysklad", payload)

	assert.Equal(t, http.StatusOK, w.Code)
	f.products.AssertNotCalled(t, "DeleteByExternalIDs", mock.Anything, mock.Anything)
}
