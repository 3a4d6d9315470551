package extensions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	active map[string]bool
	err    error
	calls  int
}

func (s *stubDetector) IsActive(_ context.Context, ext string) (bool, error) {
	s.calls++
	return s.active[ext], s.err
}

func TestOverridesWinOverDetection(t *testing.T) {
	ctx := context.Background()
	det := &stubDetector{active: map[string]bool{"woocommerce": true, "oxygen": true}}
	r := NewRegistry(det, map[string]bool{"woocommerce": false, "breakdance": true}, nil)

	active, err := r.IsActive(ctx, "woocommerce")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = r.IsActive(ctx, "breakdance")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = r.IsActive(ctx, "oxygen")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 1, det.calls)
	assert.Equal(t, []string{"breakdance", "woocommerce"}, r.Overrides())
}

func TestDetectionErrorsPropagate(t *testing.T) {
	r := NewRegistry(&stubDetector{err: errors.New("boom")}, nil, nil)
	_, err := r.IsActive(context.Background(), "oxygen")
	assert.Error(t, err)

	active, err := NewRegistry(nil, nil, nil).IsActive(context.Background(), "oxygen")
	require.NoError(t, err)
	assert.False(t, active)
}
