package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/utils"
)

const (
	exportPageSize    = 50
	exportConcurrency = 4
	pdfFontFamily     = "body"
)

// ErrNoFont means no TrueType font was configured or found for the export.
var ErrNoFont = errors.New("no unicode font for pdf export")

// fontCandidates are system fonts with Thai glyphs, tried in order.
var fontCandidates = []string{
	"/usr/share/fonts/truetype/noto/NotoSansThai-Regular.ttf",
	"/usr/share/fonts/noto/NotoSansThai-Regular.ttf",
	"/usr/share/fonts/truetype/tlwg/Garuda.ttf",
	"/usr/share/fonts/truetype/tlwg/Loma.ttf",
	"/usr/share/fonts/truetype/thai/Sarabun-Regular.ttf",
}

// LoadFont reads the TrueType font at path, or the first system font with
// Thai glyphs when path is empty.
func LoadFont(path string) ([]byte, error) {
	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pdf font: %w", err)
		}
		return b, nil
	}
	for _, p := range fontCandidates {
		if b, err := os.ReadFile(p); err == nil {
			return b, nil
		}
	}
	return nil, ErrNoFont
}

// FavoritesLister is the favorites endpoint of the recipe API.
type FavoritesLister interface {
	ListFavorites(ctx context.Context, q domain.PageQuery) (domain.ListResult, error)
}

// ExportService renders the caller's favorites as a PDF.
type ExportService struct {
	Log       *zap.Logger
	RequestID string
	Now       func() time.Time
	// Font is a TrueType file, see LoadFont. Names and descriptions are
	// Thai, so the PDF core fonts cannot print them.
	Font []byte
}

// FavoritesPDF loads every favorite matching search and returns the document
// and its download filename.
func (s ExportService) FavoritesPDF(ctx context.Context, api FavoritesLister, search string) ([]byte, string, error) {
	if len(s.Font) == 0 {
		return nil, "", domain.InternalError{Msg: "pdf font not configured", Err: ErrNoFont}
	}
	items, err := s.loadAll(ctx, api, search)
	if err != nil {
		return nil, "", err
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	utils.LogEvent(s.Log, s.RequestID, "export", "favorites_pdf", "rendering favorites", zap.Int("count", len(items)))
	return buildFavoritesPDF(s.Font, items, search, now)
}

// loadAll reads page 1 for the total, then the rest in parallel.
func (s ExportService) loadAll(ctx context.Context, api FavoritesLister, search string) ([]domain.RecipeSummary, error) {
	first, err := api.ListFavorites(ctx, domain.PageQuery{Page: 1, Limit: exportPageSize, Search: search})
	if err != nil {
		return nil, fmt.Errorf("list favorites page 1: %w", err)
	}
	pages := domain.TotalPages(first.Total, exportPageSize)
	if pages <= 1 {
		return first.Items, nil
	}

	byPage := make([][]domain.RecipeSummary, pages+1)
	byPage[1] = first.Items
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for p := 2; p <= pages; p++ {
		page := p
		g.Go(func() error {
			res, err := api.ListFavorites(gctx, domain.PageQuery{Page: page, Limit: exportPageSize, Search: search})
			if err != nil {
				return fmt.Errorf("list favorites page %d: %w", page, err)
			}
			mu.Lock()
			byPage[page] = res.Items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.RecipeSummary, 0, first.Total)
	for _, items := range byPage[1:] {
		out = append(out, items...)
	}
	return out, nil
}

func buildFavoritesPDF(font []byte, items []domain.RecipeSummary, search string, now time.Time) ([]byte, string, error) {
	search = utils.NormalizeSpace(search)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", font)
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "B", font)
	pdf.SetTitle("My Favorites", true)
	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "B", 18)
	pdf.Cell(0, 10, "MY FAVORITE RECIPES")
	pdf.Ln(12)

	pdf.SetFont(pdfFontFamily, "", 11)
	pdf.Cell(0, 6, "Exported : "+now.Format("2006-01-02 15:04"))
	pdf.Ln(6)
	if search != "" {
		pdf.Cell(0, 6, "Search   : "+search)
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Total    : %d", len(items)))
	pdf.Ln(10)

	if len(items) == 0 {
		pdf.Cell(0, 7, "No favorite recipes.")
		pdf.Ln(7)
	}

	for i, it := range items {
		pdf.SetFont(pdfFontFamily, "B", 12)
		pdf.Cell(0, 7, fmt.Sprintf("%d) %s", i+1, utils.Fallback(utils.NormalizeSpace(it.Name), "-")))
		pdf.Ln(7)

		pdf.SetFont(pdfFontFamily, "", 10)
		lines := []string{
			fmt.Sprintf("Difficulty : %s", utils.Fallback(it.Difficulty.Name, "-")),
			fmt.Sprintf("Duration   : %s", utils.Fallback(it.CookingDuration.Name, "-")),
			fmt.Sprintf("Rating     : %s", formatRating(it.AverageRating)),
			fmt.Sprintf("By         : %s", utils.Fallback(it.User.DisplayName(), "-")),
		}
		for _, l := range lines {
			pdf.Cell(0, 5, l)
			pdf.Ln(5)
		}
		if d := utils.NormalizeSpace(it.Description); d != "" {
			pdf.MultiCell(0, 5, d, "", "", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename(search, now), nil
}

// exportFilename is FAVORITES_<yyyymmdd>.pdf, with the search term appended
// when it has any filename-safe characters.
func exportFilename(search string, now time.Time) string {
	name := "FAVORITES_" + now.Format("20060102")
	if part := utils.SafeFilenamePart(search); part != "" {
		name += "_" + part
	}
	return name + ".pdf"
}

// formatRating shows one decimal, or "-" when nobody has rated yet.
func formatRating(avg *float64) string {
	if avg == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *avg)
}
