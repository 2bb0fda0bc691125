package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"traddy-backend-go/internal/models"
)

// PackColumns is the header expected by ParsePacks.
var PackColumns = []string{"name", "description", "intention", "lead_count", "price"}

var ErrInvalidPackFile = errors.New("invalid pack file")

// ParsePacks reads a semicolon-separated catalog file. Every row must carry a
// name, a non-negative lead count and a positive price.
func ParsePacks(r io.Reader) ([]*models.LeadPack, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.WithDelimiter(';'),
		dataframe.WithLazyQuotes(true),
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackFile, df.Err)
	}

	index := make(map[string]int, df.Ncol())
	for c := 0; c < df.Ncol(); c++ {
		index[strings.ToLower(strings.TrimSpace(df.Elem(0, c).String()))] = c
	}
	for _, col := range PackColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrInvalidPackFile, col)
		}
	}

	now := time.Now().UTC()
	cell := func(row int, col string) string {
		return strings.TrimSpace(df.Elem(row, index[col]).String())
	}
	packs := make([]*models.LeadPack, 0, df.Nrow()-1)
	for row := 1; row < df.Nrow(); row++ {
		line := row + 1
		name := cell(row, "name")
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: name is required", ErrInvalidPackFile, line)
		}
		count, err := strconv.Atoi(cell(row, "lead_count"))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: line %d: lead_count must be a non-negative integer", ErrInvalidPackFile, line)
		}
		price, err := strconv.ParseFloat(strings.Replace(cell(row, "price"), ",", ".", 1), 64)
		if err != nil || price <= 0 {
			return nil, fmt.Errorf("%w: line %d: price must be a positive number", ErrInvalidPackFile, line)
		}
		packs = append(packs, &models.LeadPack{
			Name:        name,
			Description: cell(row, "description"),
			Intention:   cell(row, "intention"),
			LeadCount:   count,
			Price:       price,
			CreatedAt:   now,
		})
	}
	return packs, nil
}
