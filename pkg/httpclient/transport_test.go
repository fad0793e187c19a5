package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTransport(t *testing.T) {
	tr := NewTransport(Config{DialTimeout: time.Second, MaxConnsPerHost: 8, IdleConnTimeout: time.Minute})

	assert.Equal(t, 8, tr.MaxConnsPerHost)
	assert.Equal(t, 16, tr.MaxIdleConns)
	assert.Equal(t, time.Minute, tr.IdleConnTimeout)
	assert.True(t, tr.ForceAttemptHTTP2)
}
