package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/calebmonroe/printhaus-backend/api/responses"
	paymentwebhook "github.com/calebmonroe/printhaus-backend/internal/webhooks/payment"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
	"github.com/calebmonroe/printhaus-backend/pkg/payments"
)

type paymentWebhookService interface {
	ApplyEvent(ctx context.Context, event paymentwebhook.Event) error
}

// PaymentWebhook handles provider payment lifecycle events. The signature is
// verified over the raw body before anything is decoded; a bad signature
// changes no state.
func PaymentWebhook(svc paymentWebhookService, webhookSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if webhookSecret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret not configured"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(payments.SignatureHeader)
		if !payments.VerifySignature(payload, webhookSecret, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInvalidSignature, "signature verification failed"))
			return
		}

		var event paymentwebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		if err := svc.ApplyEvent(ctx, event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
