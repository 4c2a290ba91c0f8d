package main

import (
	"time"

	"frigo/internal/domain"
	"frigo/internal/service"
	"frigo/internal/vision"
)

type report struct {
	Format        vision.Format        `json:"format"`
	Quality       vision.QualityReport `json:"quality"`
	OCRVariant    string               `json:"ocr_variant,omitempty"`
	OCRConfidence float64              `json:"ocr_confidence"`
	OCRFailed     bool                 `json:"ocr_failed"`
	Parser        domain.ParserID      `json:"parser"`
	ParserScore   float64              `json:"parser_score"`
	StoreName     string               `json:"store_name"`
	StoreAddress  *string              `json:"store_address,omitempty"`
	ReceiptDate   *time.Time           `json:"receipt_date,omitempty"`
	Total         *float64             `json:"total,omitempty"`
	Confidence    float64              `json:"confidence"`
	Items         []domain.ReceiptItem `json:"items"`
	Failures      []failure            `json:"failures,omitempty"`
	RawText       string               `json:"raw_text"`
}

type failure struct {
	Line    int    `json:"line"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func newReport(a *service.Analysis) report {
	r := report{
		Format:        a.Format,
		Quality:       a.Quality,
		OCRVariant:    string(a.OCR.Variant),
		OCRConfidence: a.OCR.Result.Confidence,
		OCRFailed:     a.OCR.AllFailed,
		Parser:        a.ParserID,
		ParserScore:   a.ParserScore,
		StoreName:     a.StoreName,
		StoreAddress:  a.StoreAddress,
		ReceiptDate:   a.ReceiptDate,
		Total:         a.DeclaredTotal,
		Confidence:    a.Confidence,
		Items:         a.Items,
		RawText:       a.RawText(),
	}
	if r.Items == nil {
		r.Items = []domain.ReceiptItem{}
	}
	for _, f := range a.Failures {
		r.Failures = append(r.Failures, failure{Line: f.LineNumber, Rule: f.RuleKey, Message: f.Message})
	}
	return r
}
