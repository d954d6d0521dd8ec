package elastic_client

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectSkipsWithoutAddress(t *testing.T) {
	t.Setenv("TRAVIGO_ELASTICSEARCH_ADDRESS", "")

	assert.NoError(t, Connect(false))
	assert.False(t, Enabled())

	// Indexing without a client is a no-op
	IndexRequest("livetransit-load-events-2024-1", bytes.NewReader([]byte(`{}`)))
	WaitUntilQueueEmpty()
}
