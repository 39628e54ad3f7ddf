package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mediagrab-go/internal/domain"
)

type fakeEncoderTester struct {
	mu      sync.Mutex
	working map[string]bool
	tested  []string
	block   chan struct{}
}

func (f *fakeEncoderTester) TestEncoder(ctx context.Context, encoder string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.tested = append(f.tested, encoder)
	f.mu.Unlock()
	if f.working[encoder] {
		return nil
	}
	return errors.New("Unknown encoder")
}

func waitReady(t *testing.T, s *EncoderSelector) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("encoder probe did not finish")
	}
}

func TestEncoderSelector_FirstWorkingCandidate(t *testing.T) {
	tester := &fakeEncoderTester{working: map[string]bool{"hevc_nvenc": true, "h264_amf": true}}
	s := NewEncoderSelector(tester, time.Second, "", nil)

	s.Start(context.Background())
	waitReady(t, s)

	assert.Equal(t, "hevc_nvenc", s.Current().Encoder)
	assert.Equal(t, []string{"h264_qsv", "h264_nvenc", "hevc_nvenc", "h264_amf", "hevc_amf"}, tester.tested)

	var names []string
	for _, c := range s.Available() {
		names = append(names, c.Encoder)
	}
	assert.Equal(t, []string{"hevc_nvenc", "h264_amf", "libx264"}, names)
}

func TestEncoderSelector_CPUFallback(t *testing.T) {
	s := NewEncoderSelector(&fakeEncoderTester{}, time.Second, "", nil)

	s.Start(context.Background())
	waitReady(t, s)

	assert.Equal(t, domain.CPUEncoder, s.Current())
	assert.Len(t, s.Available(), 1)
}

func TestEncoderSelector_CPUBeforeReady(t *testing.T) {
	tester := &fakeEncoderTester{working: map[string]bool{"h264_qsv": true}, block: make(chan struct{})}
	s := NewEncoderSelector(tester, time.Second, "", nil)

	s.Start(context.Background())
	assert.False(t, s.IsReady())
	assert.Equal(t, domain.CPUEncoder, s.Current())

	close(tester.block)
	waitReady(t, s)
	assert.Equal(t, "h264_qsv", s.Current().Encoder)
}

func TestEncoderSelector_Preferred(t *testing.T) {
	tester := &fakeEncoderTester{working: map[string]bool{"h264_qsv": true, "h264_nvenc": true}}
	s := NewEncoderSelector(tester, time.Second, "h264_nvenc", nil)

	s.Start(context.Background())
	waitReady(t, s)

	assert.Equal(t, "h264_nvenc", s.Current().Encoder)
}

func TestEncoderSelector_Use(t *testing.T) {
	tester := &fakeEncoderTester{working: map[string]bool{"h264_qsv": true}}
	s := NewEncoderSelector(tester, time.Second, "", nil)

	_, err := s.Use("libx264")
	assert.Error(t, err, "switching before the probe finishes is rejected")

	s.Start(context.Background())
	waitReady(t, s)

	choice, err := s.Use("libx264")
	require.NoError(t, err)
	assert.Equal(t, domain.CPUEncoder, choice)
	assert.Equal(t, domain.CPUEncoder, s.Current())

	_, err = s.Use("hevc_amf")
	assert.Error(t, err)
	assert.Equal(t, domain.CPUEncoder, s.Current())
}

func TestEncoderSelector_StartOnce(t *testing.T) {
	tester := &fakeEncoderTester{}
	s := NewEncoderSelector(tester, time.Second, "", nil)

	s.Start(context.Background())
	s.Start(context.Background())
	waitReady(t, s)

	assert.Len(t, tester.tested, 5)
}
