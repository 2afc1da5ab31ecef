package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	applog "rationbook/internal/log"
	"rationbook/models"
)

const maxPriceUploadSize = 5 << 20 // 5 MiB

type priceImportResult struct {
	Updated   []string `json:"updated"`
	Unmatched []string `json:"unmatched"`
	Skipped   int      `json:"skipped"`
}

type priceQuote struct {
	Name        string
	CostPerUnit float64
}

// ToolsImportPrices ingests an uploaded supplier price sheet (CSV or PDF) and
// updates the per-unit cost of matching catalog ingredients.
func ToolsImportPrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if _, ok := currentUserID(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxPriceUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Error(r.Context(), "failed to parse price import form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "upload is too large or invalid")
		return
	}

	fileName, fileBytes, fileType, err := readPriceUpload(r)
	if err != nil {
		applog.Error(r.Context(), "price sheet read failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to read the uploaded file")
		return
	}
	if len(fileBytes) == 0 {
		writeJSONError(w, http.StatusBadRequest, "upload a price sheet before running the import")
		return
	}

	text, err := derivePriceText(fileBytes, fileType)
	if err != nil {
		applog.Error(r.Context(), "failed to extract price sheet text", "error", err, "mime", fileType, "file", fileName)
		writeJSONError(w, http.StatusBadRequest, "we couldn't interpret the uploaded document")
		return
	}

	quotes, skipped := parsePriceQuotes(text)
	if len(quotes) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no usable price rows were found in the upload")
		return
	}

	result := priceImportResult{Skipped: skipped}
	ctx := r.Context()
	for _, quote := range quotes {
		var ingredient models.Ingredient
		err := database.WithContext(ctx).Where("lower(name) = ?", strings.ToLower(quote.Name)).First(&ingredient).Error
		if err != nil {
			result.Unmatched = append(result.Unmatched, quote.Name)
			continue
		}
		if err := database.WithContext(ctx).Model(&ingredient).Update("cost_per_unit", quote.CostPerUnit).Error; err != nil {
			applog.Error(ctx, "failed to update ingredient price", "error", err, "ingredient", ingredient.Name)
			writeJSONError(w, http.StatusInternalServerError, "unable to apply price updates")
			return
		}
		result.Updated = append(result.Updated, ingredient.Name)
	}

	applog.Info(ctx, "price sheet imported", "file", fileName, "updated", len(result.Updated), "unmatched", len(result.Unmatched))
	writeJSON(w, http.StatusOK, result)
}

func readPriceUpload(r *http.Request) (string, []byte, string, error) {
	file, header, err := r.FormFile("price_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, "", nil
		}
		return "", nil, "", err
	}
	defer file.Close()

	if header.Size > maxPriceUploadSize {
		return "", nil, "", fmt.Errorf("file exceeds %d bytes", maxPriceUploadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return "", nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = priceMimeFromName(header.Filename)
	}

	return header.Filename, buf.Bytes(), mime, nil
}

func derivePriceText(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	default:
		return string(data), nil
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// parsePriceQuotes accepts "name,price" rows; comma, semicolon and tab
// delimiters are tolerated. Rows without a positive price are counted as
// skipped rather than failing the whole import.
func parsePriceQuotes(text string) ([]priceQuote, int) {
	quotes := make([]priceQuote, 0)
	skipped := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		reader := csv.NewReader(strings.NewReader(line))
		if strings.Contains(line, ";") && !strings.Contains(line, ",") {
			reader.Comma = ';'
		} else if strings.Contains(line, "\t") && !strings.Contains(line, ",") {
			reader.Comma = '\t'
		}
		fields, err := reader.Read()
		if err != nil || len(fields) < 2 {
			skipped++
			continue
		}

		name := strings.TrimSpace(fields[0])
		price, err := strconv.ParseFloat(strings.TrimSpace(fields[len(fields)-1]), 64)
		if name == "" || err != nil || price <= 0 {
			skipped++
			continue
		}
		quotes = append(quotes, priceQuote{Name: name, CostPerUnit: price})
	}

	return quotes, skipped
}

func priceMimeFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
