package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/farmhub/paygate/common"
	"github.com/farmhub/paygate/db/models"
)

// StartWebhookSubscription notifies the game server about every
// credited payment so it can unlock the purchased resources. Delivery
// is best effort, the payment record stays the source of truth.
func (svc *PaygateService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	creditedPayments := make(chan models.Payment, paymentChanBufSize)
	subID := svc.PaymentPubSub.Subscribe(common.PaymentTopicCredited, creditedPayments)
	defer svc.PaymentPubSub.Unsubscribe(subID, common.PaymentTopicCredited)
	for {
		select {
		case <-ctx.Done():
			return
		case payment := <-creditedPayments:
			svc.postToWebhook(payment, url)
		}
	}
}

func (svc *PaygateService) postToWebhook(payment models.Payment, url string) {
	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(payment)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(url, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
