package rollup

import (
	"time"

	"go.uber.org/zap"

	"github.com/adserve/core/internal/db"
)

// Refund flips an offer's is_refunded flag and decrements that day's
// AdImpression view/click counters correspondingly. A repeat refund is a
// no-op (spec.md §4.8): RefundOffer returns false once is_refunded is
// already set, and no counters are decremented a second time.
func Refund(pg *db.Postgres, offerID string, publisherID, advertisementID int, decrementViews, decrementClicks int, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.L()
	}

	refunded, err := pg.RefundOffer(offerID)
	if err != nil {
		return false, err
	}
	if !refunded {
		return false, nil
	}

	today := time.Now().Truncate(24 * time.Hour)
	if err := pg.DecrementAdImpression(publisherID, advertisementID, today, decrementViews, decrementClicks); err != nil {
		logger.Error("decrement ad impression on refund", zap.Error(err), zap.String("offer_id", offerID))
		return true, err
	}
	return true, nil
}
