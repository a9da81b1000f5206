package notify

import "context"

// Entidades sobre las que se emite "algo cambió, refetch".
const (
	EntityPlacementRequest = "placement_request"
	EntityResponse         = "response"
	EntityTransfer         = "transfer"
)

// Change es la única señal que viaja por el canal: quién debe refetchear qué.
// No lleva estado; el cliente siempre relee la entidad.
type Change struct {
	Entity     string   `json:"entity"`
	EntityID   string   `json:"entity_id"`
	RequestID  string   `json:"request_id,omitempty"`
	Event      string   `json:"event"`
	Recipients []string `json:"recipients,omitempty"`
}

// Notifier es fire-and-forget: la corrección del workflow no depende de la entrega.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

// Nop descarta todo. Útil en tests y cuando no hay canal configurado.
type Nop struct{}

func (Nop) Notify(context.Context, Change) {}
