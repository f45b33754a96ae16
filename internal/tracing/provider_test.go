package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "combat", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
