package ocr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/ocr"
	"frigo/internal/port"
	"frigo/internal/vision"
	"frigo/mocks"
)

func testOCRConfig() *config.OCRConfig {
	return &config.OCRConfig{Provider: "static", Languages: []string{"fra"}, TimeoutSecs: 1}
}

func standardVariant() vision.Variant {
	return vision.Variant{Kind: vision.VariantStandard, Image: []byte("png")}
}

func TestEngine_Extract_Success(t *testing.T) {
	rec := new(mocks.MockTextRecognizer)
	rec.On("Recognize", mock.Anything, []byte("png"), port.OCROptions{
		PageSegMode: port.PageSegAuto, Languages: []string{"fra"},
	}).Return(&port.OCRResult{Text: "CARREFOUR\nTOTAL 5.99", Confidence: 0.87}, nil)

	e := ocr.NewEngine(rec, testOCRConfig(), zap.NewNop())
	res, err := e.Extract(context.Background(), standardVariant(), port.PageSegAuto)

	require.NoError(t, err)
	assert.Equal(t, "CARREFOUR\nTOTAL 5.99", res.Text)
	assert.InDelta(t, 0.87, res.Confidence, 0.0001)
	assert.Greater(t, res.ProcessingTime, time.Duration(0))
	rec.AssertExpectations(t)
}

func TestEngine_Extract_RecognizerError(t *testing.T) {
	rec := new(mocks.MockTextRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("tesseract unavailable"))

	e := ocr.NewEngine(rec, testOCRConfig(), zap.NewNop())
	res, err := e.Extract(context.Background(), standardVariant(), port.PageSegAuto)

	var extErr *ocr.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, vision.VariantStandard, extErr.Variant)
	assert.Equal(t, ocr.EmptyResult(), res)
}

func TestEngine_Extract_BlankText(t *testing.T) {
	rec := new(mocks.MockTextRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(&port.OCRResult{Text: "  \n ", Confidence: 0.4}, nil)

	e := ocr.NewEngine(rec, testOCRConfig(), zap.NewNop())
	_, err := e.Extract(context.Background(), standardVariant(), port.PageSegAuto)
	assert.ErrorIs(t, err, ocr.ErrNoText)
}

func TestEngine_Extract_Timeout(t *testing.T) {
	rec := new(mocks.MockTextRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		After(3*time.Second).
		Return(&port.OCRResult{Text: "late", Confidence: 0.9}, nil)

	e := ocr.NewEngine(rec, testOCRConfig(), zap.NewNop())
	start := time.Now()
	res, err := e.Extract(context.Background(), standardVariant(), port.PageSegAuto)

	assert.ErrorIs(t, err, ocr.ErrTimeout)
	assert.Equal(t, ocr.EmptyResult(), res)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEngine_ExtractText_NeverFails(t *testing.T) {
	rec := new(mocks.MockTextRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("boom"))

	e := ocr.NewEngine(rec, testOCRConfig(), zap.NewNop())
	res := e.ExtractText(context.Background(), standardVariant(), port.PageSegSparseText)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Empty(t, res.Text)
}

type panicRecognizer struct{}

func (panicRecognizer) Recognize(context.Context, []byte, port.OCROptions) (*port.OCRResult, error) {
	panic("native crash")
}

func TestEngine_Extract_RecoversPanic(t *testing.T) {
	e := ocr.NewEngine(panicRecognizer{}, testOCRConfig(), zap.NewNop())
	_, err := e.Extract(context.Background(), standardVariant(), port.PageSegAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestFactory_RegisterAndCreate(t *testing.T) {
	ocr.RegisterRecognizer("test-provider", func(cfg *config.OCRConfig) (port.TextRecognizer, error) {
		return ocr.NewStaticRecognizer("hello", 0.5), nil
	})

	rec, err := ocr.NewRecognizer(&config.OCRConfig{Provider: "test-provider"})
	require.NoError(t, err)
	res, err := rec.Recognize(context.Background(), nil, port.OCROptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
}

func TestFactory_UnknownProvider(t *testing.T) {
	rec, err := ocr.NewRecognizer(&config.OCRConfig{Provider: "nonexistent-provider-xyz"})
	assert.Nil(t, rec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ocr provider")
}

func TestStaticRecognizer(t *testing.T) {
	rec, err := ocr.NewRecognizer(&config.OCRConfig{Provider: "static", StaticText: "LIDL\n\n1 PAIN 0.99\n"})
	require.NoError(t, err)

	res, err := rec.Recognize(context.Background(), nil, port.OCROptions{})
	require.NoError(t, err)
	assert.Len(t, res.Lines, 2)
	assert.Equal(t, "1 PAIN 0.99", res.Lines[1].Text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rec.Recognize(ctx, nil, port.OCROptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
