package playground

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"ai-runner-api/internal/domain/prompt"
	"ai-runner-api/internal/infrastructure/imagegen"
	apperrors "ai-runner-api/pkg/errors"
)

// fakeGenerator 按提示词返回预设结果
type fakeGenerator struct {
	mu       sync.Mutex
	calls    []string
	settings []prompt.GenerationSettings
	errs     map[string]error
	inFlight int32
	peak     int32
	delay    time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, text string, settings prompt.GenerationSettings) (*imagegen.Image, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.settings = append(f.settings, settings)
	err := f.errs[text]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &imagegen.Image{Data: []byte("img:" + text), ContentType: "image/png", Attempts: 1}, nil
}

type PlaygroundSuite struct {
	suite.Suite
	gen *fakeGenerator
	svc *Service
}

func (s *PlaygroundSuite) SetupTest() {
	s.gen = &fakeGenerator{errs: map[string]error{}}
	s.svc = NewService(s.gen, 0)
}

func (s *PlaygroundSuite) TestAnalyzeAndEnhance() {
	ctx := context.Background()
	s.Equal(prompt.QualityBad, s.svc.Analyze(ctx, "A picture").Quality)

	e := s.svc.Enhance(ctx, "A picture")
	s.Len(e.Improvements, 5)
}

func (s *PlaygroundSuite) TestGenerateNormalizesSettings() {
	img, err := s.svc.Generate(context.Background(), "a red fox", prompt.GenerationSettings{AspectRatio: "1:1", GuidanceScale: 99})
	s.Require().NoError(err)
	s.Equal([]byte("img:a red fox"), img.Data)

	s.Require().Len(s.gen.settings, 1)
	got := s.gen.settings[0]
	s.Equal(1024, got.Width)
	s.Equal(prompt.MaxGuidanceScale, got.GuidanceScale)
	s.Equal(20, got.NumInferenceSteps)
}

func (s *PlaygroundSuite) TestGenerateRejectsBlankPrompt() {
	_, err := s.svc.Generate(context.Background(), "  ", prompt.DefaultSettings())
	appErr := apperrors.AsAppError(err)
	s.Equal(apperrors.CodePromptEmpty, appErr.Code)
	s.Equal(EmptyPromptHint, appErr.Detail)
	s.Empty(s.gen.calls)
}

func (s *PlaygroundSuite) TestCompareGeneratesBothBranches() {
	c, err := s.svc.Compare(context.Background(), "A picture", prompt.DefaultSettings())
	s.Require().NoError(err)

	s.Equal(prompt.QualityBad, c.Analysis.Quality)
	s.Equal("A picture", c.Original.Prompt)
	s.Equal(c.Enhancement.Enhanced, c.Enhanced.Prompt)
	s.Require().NotNil(c.Original.Image)
	s.Require().NotNil(c.Enhanced.Image)
	s.Nil(c.Original.Err)
	s.Nil(c.Enhanced.Err)
	s.ElementsMatch([]string{"A picture", c.Enhancement.Enhanced}, s.gen.calls)
}

func (s *PlaygroundSuite) TestCompareBranchFailureDoesNotCancelOther() {
	s.gen.delay = 20 * time.Millisecond
	s.gen.errs["A picture"] = imagegen.ErrModelLoading

	c, err := s.svc.Compare(context.Background(), "A picture", prompt.DefaultSettings())
	s.Require().NoError(err)

	s.Require().NotNil(c.Original.Err)
	s.Equal(apperrors.CodeModelLoading, c.Original.Err.Code)
	s.Nil(c.Original.Image)
	s.NotNil(c.Enhanced.Image)
	s.Nil(c.Enhanced.Err)
}

func (s *PlaygroundSuite) TestCompareRunsBranchesConcurrently() {
	s.gen.delay = 50 * time.Millisecond
	_, err := s.svc.Compare(context.Background(), "A picture", prompt.DefaultSettings())
	s.Require().NoError(err)
	s.EqualValues(2, atomic.LoadInt32(&s.gen.peak))
}

func (s *PlaygroundSuite) TestCompareHonoursTimeout() {
	s.gen.delay = time.Second
	svc := NewService(s.gen, 20*time.Millisecond)

	c, err := svc.Compare(context.Background(), "A picture", prompt.DefaultSettings())
	s.Require().NoError(err)
	s.Require().NotNil(c.Original.Err)
	s.Require().NotNil(c.Enhanced.Err)
	s.Equal(apperrors.CodeServiceUnavailable, c.Original.Err.Code)
}

func TestPlaygroundSuite(t *testing.T) {
	suite.Run(t, new(PlaygroundSuite))
}

func TestMapGenerateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode apperrors.ErrorCode
		wantHTTP int
		wantMsg  string
	}{
		{"model loading", imagegen.ErrModelLoading, apperrors.CodeModelLoading, 503, ""},
		{"rate limited", fmt.Errorf("wrapped: %w", imagegen.ErrRateLimited), apperrors.CodeUpstreamRateLimited, 429, ""},
		{"token missing", imagegen.ErrTokenMissing, apperrors.CodeProviderNotConfig, 500, ""},
		{"unexpected format", imagegen.ErrUnexpectedFormat, apperrors.CodeImageProviderError, 502, "Unexpected response format. Please try again."},
		{"upstream message", &imagegen.UpstreamError{StatusCode: 400, Message: "NSFW content detected"}, apperrors.CodeImageProviderError, 502, "NSFW content detected"},
		{"deadline", context.DeadlineExceeded, apperrors.CodeServiceUnavailable, 503, ""},
		{"other", errors.New("boom"), apperrors.CodeGenerationFailed, 500, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapGenerateError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantHTTP, got.HTTPStatus)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}
}
