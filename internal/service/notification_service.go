package service

import (
	"context"
	"fmt"
	"strconv"

	"truvamate/internal/models"
)

const NotifyTypeCommission = "REFERRAL_COMMISSION"

// CommissionNotifier pushes a commission notice to the referrer's device.
type CommissionNotifier struct {
	fcm *FCMService
}

func NewCommissionNotifier(fcm *FCMService) *CommissionNotifier {
	return &CommissionNotifier{fcm: fcm}
}

func (n *CommissionNotifier) NotifyCommission(ctx context.Context, referrer *models.User, ref *models.Referral) error {
	if n == nil || referrer == nil || referrer.FCMToken == "" {
		return nil
	}
	title := "คุณได้รับค่าคอมมิชชั่น!"
	body := fmt.Sprintf("%s สั่งซื้อสำเร็จ คุณได้รับ ฿%s", ref.ReferredUserName, FormatBaht(ref.CommissionCents))
	return n.fcm.Send(ctx, referrer.FCMToken, title, body, map[string]string{
		"type":             NotifyTypeCommission,
		"referral_id":      ref.ID,
		"commission_cents": strconv.FormatInt(ref.CommissionCents, 10),
	})
}

// FormatBaht renders minor units as baht with thousands separators,
// dropping the satang part when it is zero.
func FormatBaht(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	if frac := cents % 100; frac != 0 {
		whole += fmt.Sprintf(".%02d", frac)
	}
	if neg {
		whole = "-" + whole
	}
	return whole
}
