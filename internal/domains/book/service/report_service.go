package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/book/repository"
	"bookreview-backend/internal/shared/apperr"
)

const ratingSheet = "Ratings"

var ratingHeaders = []string{
	"Title", "Author", "Genre", "Average Rating", "Total Reviews",
	"1 Star", "2 Stars", "3 Stars", "4 Stars", "5 Stars",
}

type ReportService struct {
	books   repository.BookRepository
	ratings RatingDistributionReader
}

func NewReportService(books repository.BookRepository, ratings RatingDistributionReader) ReportServiceInterface {
	return &ReportService{books: books, ratings: ratings}
}

// ExportRatings: một sheet, mỗi book active một dòng, sắp theo title
func (s *ReportService) ExportRatings(ctx context.Context, w io.Writer) error {
	// 1. Load data
	books, err := s.books.ListAllActive(ctx)
	if err != nil {
		return apperr.Store("list books for report", err)
	}

	distributions, err := s.ratings.RatingDistributions(ctx)
	if err != nil {
		return apperr.Store("load rating distributions", err)
	}

	// 2. Build workbook
	f, err := buildRatingsWorkbook(books, distributions)
	if err != nil {
		return fmt.Errorf("build ratings workbook: %w", err)
	}
	defer f.Close()

	// 3. Stream ra writer
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write ratings workbook: %w", err)
	}

	log.Info().Int("books", len(books)).Msg("Rating report exported")
	return nil
}

func buildRatingsWorkbook(books []model.Book, distributions map[uuid.UUID]map[int]int) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ratingSheet); err != nil {
		f.Close()
		return nil, err
	}

	// Row 1: Header
	for colIdx, header := range ratingHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err := f.SetCellValue(ratingSheet, cell, header); err != nil {
			f.Close()
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(ratingHeaders), 1)
		_ = f.SetCellStyle(ratingSheet, "A1", lastHeader, headerStyle)
	}
	_ = f.SetColWidth(ratingSheet, "A", "B", 40)

	// Data rows, bắt đầu từ row 2
	for i, b := range books {
		dist := distributions[b.ID]
		row := []interface{}{
			b.Title,
			b.Author,
			string(b.Genre),
			b.AverageRating,
			b.TotalReviews,
			dist[1], dist[2], dist[3], dist[4], dist[5],
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ratingSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}
