package user

type ApiGroup struct {
	WebhookApi WebhookApi
}
