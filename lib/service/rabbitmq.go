package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/farmhub/paygate/common"
	"github.com/farmhub/paygate/db/models"
)

// paymentChanBufSize absorbs publish bursts while a subscriber is
// busy delivering the previous payment. Publishing never blocks on a
// full channel.
const paymentChanBufSize = 32

func (svc *PaygateService) SubscribeCreditedPayments() (chan models.Payment, error) {
	creditedPayments := make(chan models.Payment, paymentChanBufSize)
	svc.PaymentPubSub.Subscribe(common.PaymentTopicCredited, creditedPayments)
	return creditedPayments, nil
}

// EncodePaymentWithUserLogin enriches the published payment with the
// owner's login so downstream consumers do not need a lookup.
func (svc *PaygateService) EncodePaymentWithUserLogin(ctx context.Context, w io.Writer, payment models.Payment) error {
	var user models.User
	if err := svc.DB.NewSelect().Model(&user).Where("id = ?", payment.UserID).Limit(1).Scan(ctx); err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(struct {
		models.Payment
		UserLogin string `json:"user_login"`
	}{
		Payment:   payment,
		UserLogin: user.Login,
	})
}
