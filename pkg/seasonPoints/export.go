package seasonPoints

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

type SeasonPointsCsvRow struct {
	UserId   string `csv:"user_id"`
	SeasonId string `csv:"season_id"`
	WeekId   string `csv:"week_id"`
	Points   string `csv:"points"`
}

// ExportUserSeasonPoints writes the week's season points as CSV, highest points first.
func (spc *SeasonPointsCalculator) ExportUserSeasonPoints(ctx context.Context, weekId string, w io.Writer) error {
	if _, err := spc.store.GetWeek(ctx, weekId); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return &ValidationError{Message: fmt.Sprintf("week '%s' does not exist", weekId)}
		}
		return err
	}

	points, err := spc.store.ListUserSeasonPointsForWeek(ctx, weekId)
	if err != nil {
		return err
	}

	rows := make([]*SeasonPointsCsvRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, &SeasonPointsCsvRow{
			UserId:   p.UserId,
			SeasonId: p.SeasonId,
			WeekId:   p.WeekId,
			Points:   p.Points.StringFixed(seasonPointsPrecision),
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		spc.logger.Sugar().Errorw("Failed to write season points csv", zap.String("weekId", weekId), zap.Error(err))
		return err
	}
	spc.logger.Sugar().Infow("Exported season points", zap.String("weekId", weekId), zap.Int("count", len(rows)))
	return nil
}
