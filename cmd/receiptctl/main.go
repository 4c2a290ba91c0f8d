// Command receiptctl runs the receipt pipeline locally and prints the
// analysis as JSON.
//
//	receiptctl -image ticket.jpg
//	receiptctl -text-file ticket.txt
//	echo "CARREFOUR ..." | receiptctl -text -
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/logger"
	"frigo/internal/normalize"
	"frigo/internal/ocr"
	"frigo/internal/ocr/tesseract"
	"frigo/internal/parser"
	"frigo/internal/service"
	"frigo/internal/validator"
	"frigo/internal/vision"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "receiptctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := ff.NewFlagSet("receiptctl")
	var (
		imagePath = fs.StringLong("image", "", "receipt image (jpeg, png or webp)")
		text      = fs.StringLong("text", "", "receipt text to parse instead of an image; - reads stdin")
		textFile  = fs.StringLong("text-file", "", "file holding receipt text")
		languages = fs.StringLong("lang", "fra", "tesseract languages, comma separated")
		logLevel  = fs.StringLong("log-level", "warn", "log level")
	)
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("RECEIPTCTL")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Level = *logLevel
	zlog, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	var image []byte
	switch {
	case *imagePath != "":
		if image, err = os.ReadFile(*imagePath); err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		cfg.OCR.Provider = "tesseract"
		cfg.OCR.Languages = strings.Split(*languages, ",")
	case *text != "" || *textFile != "":
		raw, err := readText(*text, *textFile, stdin)
		if err != nil {
			return err
		}
		// The static engine ignores pixels, but the pipeline still validates an image.
		if image, err = blankPage(); err != nil {
			return err
		}
		cfg.OCR.Provider = "static"
		cfg.OCR.StaticText = raw
	default:
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return errors.New("one of -image, -text or -text-file is required")
	}

	pipeline, err := newPipeline(cfg, zlog)
	if err != nil {
		return err
	}
	analysis, err := pipeline.Analyze(ctx, image)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(newReport(analysis))
}

func newPipeline(cfg *config.Config, zlog *zap.Logger) (*service.ReceiptPipeline, error) {
	ocr.RegisterRecognizer("tesseract", tesseract.New)
	recognizer, err := ocr.NewRecognizer(&cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("init ocr: %w", err)
	}
	normalizer, err := normalize.NewNormalizer(&cfg.Parser)
	if err != nil {
		return nil, fmt.Errorf("load normalizer: %w", err)
	}
	return service.NewReceiptPipeline(
		&cfg.Vision,
		vision.NewPreprocessor(&cfg.Vision),
		ocr.NewOrchestrator(ocr.NewEngine(recognizer, &cfg.OCR, zlog), zlog),
		parser.NewSelector(parser.NewDefaultRegistry(&cfg.Parser), zlog),
		normalizer,
		validator.NewConsistencyValidator(validator.NewDefaultRegistry(), zlog),
		zlog,
	), nil
}

func readText(text, textFile string, stdin io.Reader) (string, error) {
	switch {
	case textFile != "":
		b, err := os.ReadFile(textFile)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(b), nil
	case text == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	default:
		return text, nil
	}
}

func blankPage() ([]byte, error) {
	var buf bytes.Buffer
	page := imaging.New(600, 1000, color.White)
	if err := imaging.Encode(&buf, page, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode blank page: %w", err)
	}
	return buf.Bytes(), nil
}
