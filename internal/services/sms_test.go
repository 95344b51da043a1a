package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnshRaj112/blog-backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateSMSClient_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = map[string]string{
			"apiKey":     r.PostForm.Get("apiKey"),
			"recipient":  r.PostForm.Get("recipient"),
			"templateId": r.PostForm.Get("templateId"),
			"params":     r.PostForm.Get("params"),
		}
		w.Write([]byte(`{"code":0,"data":{"messageId":"m-1"}}`))
	}))
	defer srv.Close()

	c := NewTemplateSMSClient(srv.URL, "key", false, logger.Discard())
	id, err := c.SendTemplate(context.Background(), "13800000000", "1", []string{"654321", "5"})
	require.NoError(t, err)

	assert.Equal(t, "m-1", id)
	assert.Equal(t, "key", got["apiKey"])
	assert.Equal(t, "13800000000", got["recipient"])
	assert.Equal(t, "1", got["templateId"])
	assert.Equal(t, "654321,5", got["params"])
}

func TestTemplateSMSClient_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":12,"message":"quota exceeded"}`))
	}))
	defer srv.Close()

	c := NewTemplateSMSClient(srv.URL, "key", false, logger.Discard())
	_, err := c.SendTemplate(context.Background(), "13800000000", "1", []string{"1", "5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestTemplateSMSClient_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewTemplateSMSClient(srv.URL, "key", false, logger.Discard())
	_, err := c.SendTemplate(context.Background(), "13800000000", "1", nil)
	assert.Error(t, err)
}

func TestTemplateSMSClient_DryRun(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewTemplateSMSClient(srv.URL, "key", true, logger.Discard())
	assert.True(t, c.DryRun())
	_, err := c.SendTemplate(context.Background(), "13800000000", "1", []string{"1", "5"})
	require.NoError(t, err)
	assert.False(t, called)

	assert.True(t, NewTemplateSMSClient(srv.URL, "", false, logger.Discard()).DryRun())
}
